// Command issue-token signs an API token for a till user with the
// configured JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go-pos-ledger/internal/auth"
	"go-pos-ledger/internal/config"
)

func main() {
	id := flag.Uint("id", 0, "user id")
	username := flag.String("user", "", "username recorded on sales and ledger entries")
	role := flag.String("role", "cashier", "cashier or admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	token, err := auth.NewTokens(cfg.Auth.JWTSecret, *ttl).GenerateToken(*id, *username, *role)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
