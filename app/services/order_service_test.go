package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/pkg/event"
	"github.com/shashiranjanraj/dulceria/pkg/pagination"
)

type fakeOrderStore struct {
	created   []models.Order
	updated   map[uint]models.Status
	createErr error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{updated: make(map[uint]models.Status)}
}

func (f *fakeOrderStore) Create(_ context.Context, order *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	order.ID = uint(len(f.created) + 1)
	f.created = append(f.created, *order)
	return nil
}

func (f *fakeOrderStore) GetByID(_ context.Context, id uint) (models.Order, error) {
	return f.created[id-1], nil
}

func (f *fakeOrderStore) ListRecentByUser(_ context.Context, _ int64, _ int) ([]models.Order, error) {
	return f.created, nil
}

func (f *fakeOrderStore) List(_ context.Context, _, _ int, _ models.Status) ([]models.Order, pagination.Pagination, error) {
	return f.created, pagination.New(1, 15, int64(len(f.created))), nil
}

func (f *fakeOrderStore) ListByStatus(_ context.Context, _ models.Status) ([]models.Order, error) {
	return f.created, nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, id uint, next models.Status) (models.Order, error) {
	order := f.created[id-1]
	if err := order.Status.CanTransition(next); err != nil {
		return models.Order{}, err
	}
	order.Status = next
	f.created[id-1] = order
	f.updated[id] = next
	return order, nil
}

func TestPlaceSnapshotsCartAndClearsIt(t *testing.T) {
	event.Flush()
	t.Cleanup(event.Flush)

	cart := NewCartService(testCatalog())
	store := newFakeOrderStore()
	svc := NewOrderService(cart, store)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, 10, 1, 2))
	require.NoError(t, cart.Add(ctx, 10, 2, 1))

	var fired []models.Order
	event.Listen(EventOrderCreated, func(payload interface{}) {
		fired = append(fired, payload.(models.Order))
	})

	order, err := svc.Place(ctx, 10, "maria", CheckoutData{
		DeliveryType: models.DeliveryPickup,
		Address:      models.PickupAddress,
		Phone:        "0991234567",
	})
	require.NoError(t, err)

	assert.Equal(t, uint(1), order.ID)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, "74.00", order.Total.StringFixed(2))
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Torta de Chocolate", order.Items[0].ProductName)
	assert.Equal(t, "56.00", order.Items[0].Subtotal.StringFixed(2))

	// Cart is gone only after the order persisted.
	assert.True(t, cart.IsEmpty(10))

	require.Len(t, fired, 1)
	assert.Equal(t, order.ID, fired[0].ID)
}

func TestPlaceKeepsCartWhenCreateFails(t *testing.T) {
	event.Flush()
	t.Cleanup(event.Flush)

	cart := NewCartService(testCatalog())
	store := newFakeOrderStore()
	store.createErr = errors.New("database is down")
	svc := NewOrderService(cart, store)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, 10, 1, 2))
	require.NoError(t, cart.Add(ctx, 10, 2, 1))

	var fired []models.Order
	event.Listen(EventOrderCreated, func(payload interface{}) {
		fired = append(fired, payload.(models.Order))
	})

	_, err := svc.Place(ctx, 10, "maria", CheckoutData{DeliveryType: models.DeliveryPickup})
	require.Error(t, err)

	// Nothing persisted, so the user keeps their cart and can retry.
	assert.Len(t, cart.Lines(10), 2)
	assert.Empty(t, store.created)
	assert.Empty(t, fired)
}

func TestPlaceRejectsEmptyCart(t *testing.T) {
	cart := NewCartService(testCatalog())
	svc := NewOrderService(cart, newFakeOrderStore())

	var verr *ValidationError
	_, err := svc.Place(context.Background(), 10, "maria", CheckoutData{})
	require.ErrorAs(t, err, &verr)
}

func TestUpdateStatusFiresEvent(t *testing.T) {
	event.Flush()
	t.Cleanup(event.Flush)

	cart := NewCartService(testCatalog())
	store := newFakeOrderStore()
	svc := NewOrderService(cart, store)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, 10, 1, 1))
	placed, err := svc.Place(ctx, 10, "maria", CheckoutData{DeliveryType: models.DeliveryPickup})
	require.NoError(t, err)

	var changed []models.Order
	event.Listen(EventOrderStatusChanged, func(payload interface{}) {
		changed = append(changed, payload.(models.Order))
	})

	order, err := svc.UpdateStatus(ctx, placed.ID, models.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, order.Status)
	require.Len(t, changed, 1)

	// Illegal jump surfaces the transition error and fires nothing.
	_, err = svc.UpdateStatus(ctx, placed.ID, models.StatusDelivered)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Len(t, changed, 1)
}
