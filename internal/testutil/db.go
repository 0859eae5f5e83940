// Package testutil provides an in-memory database for package tests.
package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"furnistore/internal/auth"
	"furnistore/internal/bootstrap"
	"furnistore/internal/models"
)

// NewDB opens a migrated SQLite database that lives as long as the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection, otherwise each pool member gets its own empty :memory: db
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, bootstrap.Migrate(db))
	return db
}

// CreateUser inserts an account with password "password".
func CreateUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("password")
	require.NoError(t, err)
	u := &models.User{
		Name:     "Test " + string(role),
		Email:    email,
		Password: hash,
		Phone:    "01711111111",
		Address:  "House 1, Road 2, Dhaka",
		Role:     role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateProduct inserts an active product.
func CreateProduct(t *testing.T, db *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     name,
		Category: "Living Room",
		Material: "Oak",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}
