package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/pkg/migration"
)

type createOrders struct{}

func init() {
	migration.Register("2025_01_10_000002_create_orders", createOrders{})
}

func (createOrders) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{}, &models.OrderItem{})
}

func (createOrders) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.OrderItem{}, &models.Order{})
}
