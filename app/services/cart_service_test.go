package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/app/repositories"
)

type fakeCatalog struct {
	products map[uint]models.Product
}

func (f *fakeCatalog) GetByID(_ context.Context, id uint) (models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return models.Product{}, &repositories.NotFoundError{Entity: "product", ID: id}
	}
	return p, nil
}

func (f *fakeCatalog) ListAvailable(_ context.Context) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.products {
		if p.Available {
			out = append(out, p)
		}
	}
	return out, nil
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{products: map[uint]models.Product{
		1: {Model: gormModel(1), Name: "Torta de Chocolate", Price: decimal.RequireFromString("28.00"), Available: true},
		2: {Model: gormModel(2), Name: "Pie de Limón", Price: decimal.RequireFromString("18.00"), Available: true},
		3: {Model: gormModel(3), Name: "Torta Agotada", Price: decimal.RequireFromString("30.00"), Available: false},
	}}
}

func TestCartAddAndSummary(t *testing.T) {
	cart := NewCartService(testCatalog())
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, 10, 1, 2))
	require.NoError(t, cart.Add(ctx, 10, 2, 1))
	require.NoError(t, cart.Add(ctx, 10, 1, 1)) // additive

	summary, err := cart.Summary(ctx, 10)
	require.NoError(t, err)
	require.Len(t, summary.Items, 2)

	assert.Equal(t, 3, summary.Items[0].Quantity)
	assert.Equal(t, "84.00", summary.Items[0].Subtotal.StringFixed(2))
	assert.Equal(t, "102.00", summary.Total.StringFixed(2))
}

func TestCartAddValidation(t *testing.T) {
	cart := NewCartService(testCatalog())
	ctx := context.Background()

	var verr *ValidationError

	err := cart.Add(ctx, 10, 1, 0)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)

	err = cart.Add(ctx, 10, 99, 1)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "product", verr.Field)

	err = cart.Add(ctx, 10, 3, 1) // unavailable
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "no está disponible")
}

// failingCatalog simulates a database outage on every lookup.
type failingCatalog struct{ err error }

func (f failingCatalog) GetByID(context.Context, uint) (models.Product, error) {
	return models.Product{}, f.err
}

func TestCartAddSurfacesCatalogOutage(t *testing.T) {
	boom := &repositories.PersistenceError{Op: "products: get", Err: errors.New("db down")}
	cart := NewCartService(failingCatalog{err: boom})

	err := cart.Add(context.Background(), 10, 1, 1)
	require.Error(t, err)

	// An outage must not masquerade as "product doesn't exist".
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, boom)
}

func TestCartRemoveMissingLineIsNoOp(t *testing.T) {
	cart := NewCartService(testCatalog())
	ctx := context.Background()

	require.NoError(t, cart.Remove(10, 99))
	require.NoError(t, cart.SetQuantity(10, 99, 0))

	require.NoError(t, cart.Add(ctx, 10, 1, 2))
	require.NoError(t, cart.SetQuantity(10, 1, 0))
	assert.True(t, cart.IsEmpty(10))

	// Removing again after the line is gone still succeeds.
	require.NoError(t, cart.Remove(10, 1))
}

func TestCartSetQuantityReplacesLine(t *testing.T) {
	cart := NewCartService(testCatalog())
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, 10, 1, 2))
	require.NoError(t, cart.SetQuantity(10, 1, 5))

	lines := cart.Lines(10)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestCartAdjustQuantity(t *testing.T) {
	cart := NewCartService(testCatalog())
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, 10, 1, 2))
	require.NoError(t, cart.AdjustQuantity(10, 1, 1))

	lines := cart.Lines(10)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)

	// Dropping to zero removes the line.
	require.NoError(t, cart.AdjustQuantity(10, 1, -3))
	assert.True(t, cart.IsEmpty(10))

	err := cart.AdjustQuantity(10, 1, 1)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCartClearAndIsolation(t *testing.T) {
	cart := NewCartService(testCatalog())
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, 10, 1, 1))
	require.NoError(t, cart.Add(ctx, 20, 2, 1))

	cart.Clear(10)
	assert.True(t, cart.IsEmpty(10))
	assert.False(t, cart.IsEmpty(20))
}

func TestCartSummarySkipsVanishedProducts(t *testing.T) {
	catalog := testCatalog()
	cart := NewCartService(catalog)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, 10, 1, 1))
	require.NoError(t, cart.Add(ctx, 10, 2, 1))

	delete(catalog.products, 2)

	summary, err := cart.Summary(ctx, 10)
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, "28.00", summary.Total.StringFixed(2))
}

func TestCartConcurrentAdds(t *testing.T) {
	cart := NewCartService(testCatalog())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cart.Add(ctx, 10, 1, 1)
		}()
	}
	wg.Wait()

	lines := cart.Lines(10)
	require.Len(t, lines, 1)
	assert.Equal(t, 50, lines[0].Quantity)
}
