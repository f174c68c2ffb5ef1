package database

import (
	"fmt"
	"time"

	"erp/internal/config"
	"erp/internal/logger"
	"erp/internal/model"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// zerologWriter routes gorm's logger output into zerolog.
type zerologWriter struct {
	log zerolog.Logger
}

func (w zerologWriter) Printf(format string, args ...interface{}) {
	w.log.Warn().Msgf(format, args...)
}

// NewConnection opens the postgres pool and migrates the schema.
func NewConnection(cfg *config.Config) (*gorm.DB, error) {
	log := logger.WithComponent("database")

	logLevel := gormlogger.Warn
	if cfg.IsRelease() {
		logLevel = gormlogger.Error
	}
	gormLog := gormlogger.New(zerologWriter{log: log}, gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.AuditLog{},
		&model.Partner{},
		&model.PartnerAddress{},
		&model.Stock{},
		&model.InventoryTransaction{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.PerformaInvoice{},
		&model.PerformaItem{},
		&model.Purchase{},
		&model.PurchaseItem{},
		&model.DocumentSequence{},
		&model.Payment{},
		&model.Expense{},
		&model.BankTransaction{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
