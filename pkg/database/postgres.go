package database

import (
	"time"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/pkg/e"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func ConnectDB(cfg config.DBConfig, log *zap.Logger) (*gorm.DB, error) {
	const op = "database.ConnectDB"

	gormLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogLevel(log),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // Disables implicit prepared statements for poolers in transaction mode
	}), &gorm.Config{
		Logger:         gormLogger,
		PrepareStmt:    false,
		TranslateError: true,
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info("database connection established")
	return db, nil
}

// gormLogLevel logs every statement only when debug logging is on.
func gormLogLevel(log *zap.Logger) logger.LogLevel {
	if log.Core().Enabled(zap.DebugLevel) {
		return logger.Info
	}
	return logger.Warn
}
