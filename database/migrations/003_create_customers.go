package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/pkg/migration"
)

type createCustomers struct{}

func init() {
	migration.Register("2025_01_10_000003_create_customers", createCustomers{})
}

func (createCustomers) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Customer{})
}

func (createCustomers) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Customer{})
}
