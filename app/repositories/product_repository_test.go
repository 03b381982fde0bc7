package repositories

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/dulceria/app/models"
)

func seedProduct(t *testing.T, repo *ProductRepository, code, name, category string, available bool) models.Product {
	t.Helper()
	product := models.Product{
		Code:             code,
		Name:             name,
		Price:            decimal.RequireFromString("20.00"),
		Category:         category,
		PreparationHours: 48,
		Available:        available,
	}
	require.NoError(t, repo.Create(context.Background(), &product))
	return product
}

func TestProductLookups(t *testing.T) {
	repo := NewProductRepository(testDB(t))
	ctx := context.Background()

	torta := seedProduct(t, repo, "torta-choco", "Torta de Chocolate", "Tortas", true)
	seedProduct(t, repo, "pie-limon", "Pie de Limón", "Postres", true)
	seedProduct(t, repo, "agotada", "Torta Agotada", "Tortas", false)

	got, err := repo.GetByID(ctx, torta.ID)
	require.NoError(t, err)
	assert.Equal(t, "Torta de Chocolate", got.Name)

	got, err = repo.GetByCode(ctx, "pie-limon")
	require.NoError(t, err)
	assert.Equal(t, "Pie de Limón", got.Name)

	var nf *NotFoundError
	_, err = repo.GetByID(ctx, 999)
	assert.ErrorAs(t, err, &nf)
}

func TestListAvailableExcludesHidden(t *testing.T) {
	repo := NewProductRepository(testDB(t))
	ctx := context.Background()

	seedProduct(t, repo, "a", "Alfajores", "Bocaditos", true)
	seedProduct(t, repo, "b", "Brownies", "Postres", true)
	seedProduct(t, repo, "c", "Casata", "Postres", false)

	products, err := repo.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	byCategory, err := repo.ListByCategory(ctx, "Postres")
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Brownies", byCategory[0].Name)

	categories, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bocaditos", "Postres"}, categories)
}

func TestUpsertByCodeIsIdempotent(t *testing.T) {
	repo := NewProductRepository(testDB(t))
	ctx := context.Background()

	first := seedProduct(t, repo, "torta-choco", "Torta de Chocolate", "Tortas", true)

	update := models.Product{
		Code:             "torta-choco",
		Name:             "Torta de Chocolate Premium",
		Price:            decimal.RequireFromString("34.00"),
		Category:         "Tortas",
		PreparationHours: 48,
		Available:        true,
	}
	require.NoError(t, repo.UpsertByCode(ctx, &update))

	// Same row, new fields.
	assert.Equal(t, first.ID, update.ID)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Torta de Chocolate Premium", all[0].Name)
	assert.Equal(t, "34.00", all[0].Price.StringFixed(2))
}

func TestDeleteMissingProduct(t *testing.T) {
	repo := NewProductRepository(testDB(t))

	var nf *NotFoundError
	err := repo.Delete(context.Background(), 42)
	assert.ErrorAs(t, err, &nf)
}
