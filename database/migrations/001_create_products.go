// Package migrations defines the schema, one migration per table, applied
// through the migrate CLI commands.
package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/pkg/migration"
)

type createProducts struct{}

func init() {
	migration.Register("2025_01_10_000001_create_products", createProducts{})
}

func (createProducts) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

func (createProducts) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Product{})
}
