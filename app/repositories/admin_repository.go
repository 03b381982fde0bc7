package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/dulceria/app/models"
)

// AdminRepository handles the back-office account table.
type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// GetByEmail returns the admin with the given login email.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (models.Admin, error) {
	var admin models.Admin
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Admin{}, &NotFoundError{Entity: "admin", ID: email}
	}
	if err != nil {
		return models.Admin{}, &PersistenceError{Op: "admins: get by email", Err: err}
	}
	return admin, nil
}

// GetByID returns one admin.
func (r *AdminRepository) GetByID(ctx context.Context, id uint) (models.Admin, error) {
	var admin models.Admin
	err := r.db.WithContext(ctx).First(&admin, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Admin{}, &NotFoundError{Entity: "admin", ID: id}
	}
	if err != nil {
		return models.Admin{}, &PersistenceError{Op: "admins: get", Err: err}
	}
	return admin, nil
}

// Create persists a new admin account. The password must already be hashed.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if err := r.db.WithContext(ctx).Create(admin).Error; err != nil {
		return &PersistenceError{Op: "admins: create", Err: err}
	}
	return nil
}
