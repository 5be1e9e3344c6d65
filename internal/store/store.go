package store

import (
	"fmt"

	"github.com/ahlabot/ahlabot/internal/config"
	entitlementdomain "github.com/ahlabot/ahlabot/internal/entitlement/domain"
	quizdomain "github.com/ahlabot/ahlabot/internal/quiz/domain"
	rotationdomain "github.com/ahlabot/ahlabot/internal/rotation/domain"
	subscriptiondomain "github.com/ahlabot/ahlabot/internal/subscription/domain"
	usagedomain "github.com/ahlabot/ahlabot/internal/usage/domain"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

func Dialect(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DBType {
	case "postgres":
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			cfg.DBPort,
			cfg.DBSSLMode,
		)), nil
	case "sqlite":
		return sqlite.Open(cfg.DBPath), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.DBType)
	}
}

// New opens the database and migrates the persisted record types.
func New(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	dialect, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialect, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database ready", zap.String("type", cfg.DBType))
	return db, nil
}

// LockForUpdate takes a row lock on backends that support it. SQLite has
// no FOR UPDATE; its writers are serialized by the engine itself.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Migrate creates the schema for all persisted record types.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&usagedomain.UsageRecord{},
		&entitlementdomain.Entitlement{},
		&subscriptiondomain.Preferences{},
		&rotationdomain.Cursor{},
		&quizdomain.Question{},
		&quizdomain.Stats{},
	)
}
