// Package dbtest opens migrated sqlite databases and seeds org fixtures for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/staffsched/approvals/internal/database"
	"github.com/staffsched/approvals/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// New returns a migrated sqlite database private to t.
// A single connection serializes writers so concurrent tests see no SQLITE_BUSY.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "approvals.db") + "?_busy_timeout=5000&_foreign_keys=off"
	db, err := database.NewConnection(database.Options{
		Driver:       "sqlite",
		DSN:          dsn,
		MaxOpenConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Org is a seeded company -> brand -> store -> employee chain.
type Org struct {
	Company  model.Company
	Brand    *model.Brand
	Store    model.Store
	Employee model.Employee
}

// SeedOrg creates a company, an optional brand, a store and one employee.
func SeedOrg(t testing.TB, db *gorm.DB, withBrand bool) *Org {
	t.Helper()

	org := &Org{Company: model.Company{Name: "Acme Foods"}}
	require.NoError(t, db.Create(&org.Company).Error)

	org.Store = model.Store{CompanyID: org.Company.ID, Name: "Downtown"}
	if withBrand {
		org.Brand = &model.Brand{CompanyID: org.Company.ID, Name: "Acme Burgers"}
		require.NoError(t, db.Create(org.Brand).Error)
		org.Store.BrandID = &org.Brand.ID
	}
	require.NoError(t, db.Create(&org.Store).Error)

	org.Employee = model.Employee{StoreID: org.Store.ID, FullName: "Dana Reyes", Email: "dana@example.com"}
	require.NoError(t, db.Create(&org.Employee).Error)
	return org
}

// SeedProfile inserts a profile with the given role and scope keys.
func SeedProfile(t testing.TB, db *gorm.DB, role string, scope func(p *model.Profile)) *model.Profile {
	t.Helper()

	p := &model.Profile{
		Email:    role + "-" + uuid.NewString()[:8] + "@example.com",
		FullName: "Test " + role,
		Role:     role,
	}
	if scope != nil {
		scope(p)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}
