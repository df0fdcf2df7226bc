package database

import (
	"fmt"
	"time"

	"github.com/staffsched/approvals/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Options selects the driver and pool settings
type Options struct {
	Driver          string // postgres or sqlite
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// NewConnection initializes a new connection pool using GORM
func NewConnection(opts Options, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case "postgres", "":
		dialector = postgres.Open(opts.DSN)
	case "sqlite":
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  newGormLogger(log, gormlogger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if opts.AutoMigrate {
		if err := Migrate(db); err != nil {
			log.Warn("failed to auto-migrate models", zap.Error(err))
		}
	}

	return db, nil
}

// Migrate creates or updates every table the workflow reads or writes
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Company{},
		&model.Brand{},
		&model.Store{},
		&model.Employee{},
		&model.Profile{},
		&model.UserBrand{},
		&model.ApprovalRequest{},
		&model.TimeOffEntry{},
		&model.AuditLog{},
	)
}
