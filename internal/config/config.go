package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-pos-ledger/internal/models"
)

const devJWTSecret = "dev-only-secret"

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	App      AppConfig
	Auth     AuthConfig
}

// DatabaseConfig selects the store. Driver is "mysql" or "memory".
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// AppConfig holds application configuration
type AppConfig struct {
	Environment   string
	Port          string
	BaseURL       string
	CORSOrigins   []string
	LoyaltyConfig string
	Location      *time.Location
}

type AuthConfig struct {
	JWTSecret string
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Load reads .env files (all optional) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read env file: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "mysql"),
			DSN:    getEnv("DB_DSN", ""),
		},
		App: AppConfig{
			Environment:   getEnv("APP_ENV", "production"),
			Port:          getEnv("APP_PORT", "8080"),
			BaseURL:       getEnv("BASE_URL", "http://localhost:8080"),
			CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
			LoyaltyConfig: getEnv("LOYALTY_CONFIG", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	cfg.App.Location = loc

	switch cfg.Database.Driver {
	case "mysql":
		if cfg.Database.DSN == "" {
			return nil, errors.New("DB_DSN is required for the mysql driver")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("DB_DRIVER %q is not supported", cfg.Database.Driver)
	}

	if cfg.Auth.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("JWT_SECRET is required outside development")
		}
		cfg.Auth.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

// LoadLoyalty reads the loyalty program file. An empty path means the
// built-in default program.
func LoadLoyalty(path string) (models.LoyaltySettings, error) {
	if path == "" {
		return models.DefaultLoyaltySettings(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.LoyaltySettings{}, fmt.Errorf("read loyalty program: %w", err)
	}
	return ParseLoyalty(raw)
}

// ParseLoyalty decodes and validates a YAML loyalty program.
func ParseLoyalty(raw []byte) (models.LoyaltySettings, error) {
	var s models.LoyaltySettings
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return models.LoyaltySettings{}, fmt.Errorf("parse loyalty program: %w", err)
	}
	if err := s.Validate(); err != nil {
		return models.LoyaltySettings{}, err
	}
	return s, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
