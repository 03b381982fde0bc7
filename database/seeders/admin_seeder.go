package seeders

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/app/repositories"
	"github.com/shashiranjanraj/dulceria/config"
	"github.com/shashiranjanraj/dulceria/pkg/auth"
	"github.com/shashiranjanraj/dulceria/pkg/logger"
)

// SeedAdmin creates the first back-office account from ADMIN_EMAIL /
// ADMIN_PASSWORD. Skipped when unset or when the account already exists.
func SeedAdmin(ctx context.Context, db *gorm.DB) error {
	email := config.Get("ADMIN_EMAIL", "")
	password := config.Get("ADMIN_PASSWORD", "")
	if email == "" || password == "" {
		logger.Info("seed admin: ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping")
		return nil
	}
	if len(password) < 8 {
		return fmt.Errorf("seed admin: password must be at least 8 characters")
	}

	repo := repositories.NewAdminRepository(db)
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		logger.Info("seed admin: account exists, skipping", "email", email)
		return nil
	} else {
		var nf *repositories.NotFoundError
		if !errors.As(err, &nf) {
			return fmt.Errorf("seed admin: lookup: %w", err)
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("seed admin: hash password: %w", err)
	}

	admin := models.Admin{
		Name:     config.Get("ADMIN_NAME", "Administrador"),
		Email:    email,
		Password: hash,
	}
	if err := repo.Create(ctx, &admin); err != nil {
		return fmt.Errorf("seed admin: create: %w", err)
	}

	logger.Info("seeded admin account", "email", email)
	return nil
}

// SeedAll runs every seeder in order.
func SeedAll(ctx context.Context, db *gorm.DB) error {
	if err := SeedProducts(ctx, db); err != nil {
		return err
	}
	return SeedAdmin(ctx, db)
}
