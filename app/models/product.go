package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalogue entry: a cake, dessert, or snack box.
// Price is stored as an exact decimal; float money drifts.
type Product struct {
	gorm.Model
	Code             string          `gorm:"size:32;uniqueIndex;not null"   json:"code"`
	Name             string          `gorm:"size:255;not null;index"        json:"name"`
	Description      string          `gorm:"type:text"                      json:"description"`
	Price            decimal.Decimal `gorm:"type:decimal(10,2);not null"    json:"price"`
	Category         string          `gorm:"size:64;not null;index"         json:"category"`
	Portions         string          `gorm:"size:64"                        json:"portions"`
	Shape            string          `gorm:"size:64"                        json:"shape"`
	PreparationHours int             `gorm:"not null;default:48"            json:"preparation_hours"`
	ImagePath        string          `gorm:"size:512"                       json:"image_path"`
	Available        bool            `gorm:"not null;default:true"          json:"available"`
}
