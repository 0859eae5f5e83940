package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"furnistore/internal/auth"
	"furnistore/internal/models"
)

// SeedOptions controls the baseline rows inserted on start.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

// MigrateAndSeed ensures required tables exist and inserts the default admin account.
func MigrateAndSeed(db *gorm.DB, opts SeedOptions) error {
	if err := Migrate(db); err != nil {
		return err
	}
	if err := seedDefaults(db, opts); err != nil {
		return fmt.Errorf("seed defaults failed: %w", err)
	}
	return nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Wishlist{},
	}
}

func seedDefaults(db *gorm.DB, opts SeedOptions) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return ensureAdmin(tx, opts)
	})
}

func ensureAdmin(tx *gorm.DB, opts SeedOptions) error {
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if email == "" || opts.AdminPassword == "" {
		return nil
	}

	var existing models.User
	err := tx.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return err
	}
	return tx.Create(&models.User{
		Name:     "Administrator",
		Email:    email,
		Password: hash,
		Role:     models.RoleAdmin,
	}).Error
}
