package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/pkg/migration"
)

type createAdmins struct{}

func init() {
	migration.Register("2025_01_10_000004_create_admins", createAdmins{})
}

func (createAdmins) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Admin{})
}

func (createAdmins) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Admin{})
}
