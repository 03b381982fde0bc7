package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/dulceria/app/models"
)

type fakePlacer struct {
	placed []CheckoutData
	err    error
}

func (f *fakePlacer) Place(_ context.Context, _ int64, _ string, data CheckoutData) (models.Order, error) {
	if f.err != nil {
		return models.Order{}, f.err
	}
	f.placed = append(f.placed, data)
	return models.Order{Model: gormModel(7), Status: models.StatusPending}, nil
}

func checkoutFixture(t *testing.T) (*CartService, *CheckoutService, *fakePlacer) {
	t.Helper()
	cart := NewCartService(testCatalog())
	placer := &fakePlacer{}
	return cart, NewCheckoutService(cart, placer), placer
}

func TestCheckoutRequiresNonEmptyCart(t *testing.T) {
	_, checkout, _ := checkoutFixture(t)

	var verr *ValidationError
	err := checkout.Start(10)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "carrito está vacío")
	assert.Equal(t, StateIdle, checkout.State(10))
}

func TestCheckoutDeliveryFlow(t *testing.T) {
	cart, checkout, placer := checkoutFixture(t)
	ctx := context.Background()
	require.NoError(t, cart.Add(ctx, 10, 1, 1))

	require.NoError(t, checkout.Start(10))
	assert.Equal(t, StateDeliveryType, checkout.State(10))

	require.NoError(t, checkout.SetDeliveryType(10, models.DeliveryDelivery))
	assert.Equal(t, StateAddress, checkout.State(10))

	next, err := checkout.SubmitText(10, "Av. Universitaria y Mercadillo, Loja")
	require.NoError(t, err)
	assert.Equal(t, StatePhone, next)

	next, err = checkout.SubmitText(10, "+593 99 123 4567")
	require.NoError(t, err)
	assert.Equal(t, StateNotes, next)

	next, err = checkout.SubmitText(10, "Sin azúcar en la cubierta")
	require.NoError(t, err)
	assert.Equal(t, StateConfirmation, next)

	order, err := checkout.Confirm(ctx, 10, "maria")
	require.NoError(t, err)
	assert.Equal(t, uint(7), order.ID)

	require.Len(t, placer.placed, 1)
	data := placer.placed[0]
	assert.Equal(t, models.DeliveryDelivery, data.DeliveryType)
	assert.Equal(t, "Av. Universitaria y Mercadillo, Loja", data.Address)
	assert.Equal(t, "+593 99 123 4567", data.Phone)
	assert.Equal(t, "Sin azúcar en la cubierta", data.Notes)

	assert.Equal(t, StateIdle, checkout.State(10))
}

func TestCheckoutPickupSkipsAddress(t *testing.T) {
	cart, checkout, _ := checkoutFixture(t)
	require.NoError(t, cart.Add(context.Background(), 10, 1, 1))

	require.NoError(t, checkout.Start(10))
	require.NoError(t, checkout.SetDeliveryType(10, models.DeliveryPickup))

	assert.Equal(t, StatePhone, checkout.State(10))
	assert.Equal(t, models.PickupAddress, checkout.Data(10).Address)
}

func TestCheckoutTextValidation(t *testing.T) {
	cart, checkout, _ := checkoutFixture(t)
	require.NoError(t, cart.Add(context.Background(), 10, 1, 1))
	require.NoError(t, checkout.Start(10))
	require.NoError(t, checkout.SetDeliveryType(10, models.DeliveryDelivery))

	var verr *ValidationError

	// Too-short address keeps the state.
	_, err := checkout.SubmitText(10, "ahí")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StateAddress, checkout.State(10))

	_, err = checkout.SubmitText(10, "Calle Bolívar 123, Loja")
	require.NoError(t, err)

	// Bad phone keeps the state.
	_, err = checkout.SubmitText(10, "llámame luego")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StatePhone, checkout.State(10))

	_, err = checkout.SubmitText(10, "0991234567")
	require.NoError(t, err)

	// "-" means no notes.
	next, err := checkout.SubmitText(10, "-")
	require.NoError(t, err)
	assert.Equal(t, StateConfirmation, next)
	assert.Equal(t, "", checkout.Data(10).Notes)
}

func TestCheckoutRejectsUnexpectedText(t *testing.T) {
	_, checkout, _ := checkoutFixture(t)

	var verr *ValidationError
	_, err := checkout.SubmitText(10, "hola")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "no estoy esperando")
}

func TestCheckoutConfirmFailureKeepsSession(t *testing.T) {
	cart, checkout, _ := checkoutFixture(t)
	ctx := context.Background()
	require.NoError(t, cart.Add(ctx, 10, 1, 1))

	placer := &fakePlacer{err: errors.New("db down")}
	checkout = NewCheckoutService(cart, placer)

	require.NoError(t, checkout.Start(10))
	require.NoError(t, checkout.SetDeliveryType(10, models.DeliveryPickup))
	_, err := checkout.SubmitText(10, "0991234567")
	require.NoError(t, err)
	_, err = checkout.SubmitText(10, "-")
	require.NoError(t, err)

	_, err = checkout.Confirm(ctx, 10, "maria")
	require.Error(t, err)

	// Still at confirmation so the user can retry.
	assert.Equal(t, StateConfirmation, checkout.State(10))
}

func TestCheckoutCancelPreservesCart(t *testing.T) {
	cart, checkout, _ := checkoutFixture(t)
	require.NoError(t, cart.Add(context.Background(), 10, 1, 2))

	require.NoError(t, checkout.Start(10))
	checkout.Cancel(10)

	assert.Equal(t, StateIdle, checkout.State(10))
	assert.False(t, cart.IsEmpty(10))
}

func TestCheckoutConfirmOutOfOrder(t *testing.T) {
	cart, checkout, _ := checkoutFixture(t)
	require.NoError(t, cart.Add(context.Background(), 10, 1, 1))
	require.NoError(t, checkout.Start(10))

	var verr *ValidationError
	_, err := checkout.Confirm(context.Background(), 10, "maria")
	require.ErrorAs(t, err, &verr)
}
