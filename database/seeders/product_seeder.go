// Package seeders loads the initial catalogue and the first admin
// account. Seeding is idempotent; rerunning updates rather than
// duplicates.
package seeders

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/app/repositories"
	"github.com/shashiranjanraj/dulceria/pkg/logger"
	"github.com/shashiranjanraj/dulceria/pkg/validate"
)

//go:embed catalog.json
var catalogJSON []byte

// catalogEntry mirrors one record in catalog.json; validated before it
// touches the database so a bad edit fails the whole seed loudly.
type catalogEntry struct {
	Code             string `json:"code"              validate:"required|alpha_dash|max:32"`
	Name             string `json:"name"              validate:"required|min:3|max:120"`
	Description      string `json:"description"       validate:"nullable|max:500"`
	Price            string `json:"price"             validate:"required|decimal"`
	Category         string `json:"category"          validate:"required|max:60"`
	Portions         string `json:"portions"          validate:"nullable|max:60"`
	Shape            string `json:"shape"             validate:"nullable|max:60"`
	PreparationHours int    `json:"preparation_hours" validate:"required|gte:1|lte:240"`
}

// SeedProducts upserts the embedded catalogue by product code.
func SeedProducts(ctx context.Context, db *gorm.DB) error {
	var entries []catalogEntry
	if err := json.Unmarshal(catalogJSON, &entries); err != nil {
		return fmt.Errorf("seed products: parse catalog: %w", err)
	}

	repo := repositories.NewProductRepository(db)
	for i, entry := range entries {
		if errs := validate.Struct(entry); validate.HasErrors(errs) {
			return fmt.Errorf("seed products: entry %d (%s) invalid: %v", i, entry.Code, errs)
		}

		price, err := decimal.NewFromString(entry.Price)
		if err != nil {
			return fmt.Errorf("seed products: entry %d (%s) bad price: %w", i, entry.Code, err)
		}

		product := models.Product{
			Code:             entry.Code,
			Name:             entry.Name,
			Description:      entry.Description,
			Price:            price,
			Category:         entry.Category,
			Portions:         entry.Portions,
			Shape:            entry.Shape,
			PreparationHours: entry.PreparationHours,
			Available:        true,
		}
		if err := repo.UpsertByCode(ctx, &product); err != nil {
			return fmt.Errorf("seed products: upsert %s: %w", entry.Code, err)
		}
	}

	logger.Info("seeded catalogue", "products", len(entries))
	return nil
}
