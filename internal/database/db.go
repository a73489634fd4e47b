package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-pos-ledger/internal/models"
)

// settingsRow holds the loyalty program as one JSON document.
type settingsRow struct {
	ID      uint                   `gorm:"primaryKey"`
	Program models.LoyaltySettings `gorm:"serializer:json;type:text"`
}

func (settingsRow) TableName() string { return "loyalty_settings" }

// Connect opens MySQL at dsn, waiting for the server to come up.
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	// 1. Credentials come from config
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}

	var (
		db  *gorm.DB
		err error
	)

	// 2. Connect with GORM (Wait for DB to be ready)
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			break
		}
		log.Warn("database not reachable, retrying in 2 seconds", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to database after 5 attempts: %w", err)
	}

	log.Info("connected to MySQL")
	return db, nil
}

// Migrate syncs the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Product{},
		&models.Customer{},
		&models.Sale{},
		&models.SaleLine{},
		&models.LoyaltyTransaction{},
		&models.Payment{},
		&settingsRow{},
	)
}
