package services

import (
	"context"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/pkg/event"
	"github.com/shashiranjanraj/dulceria/pkg/logger"
	"github.com/shashiranjanraj/dulceria/pkg/metrics"
	"github.com/shashiranjanraj/dulceria/pkg/pagination"
)

// Events fired by OrderService. The notification job dispatcher and the
// admin websocket feed listen for these.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderStore is the persistence surface OrderService needs.
// Implemented by repositories.OrderRepository.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (models.Order, error)
	ListRecentByUser(ctx context.Context, userID int64, limit int) ([]models.Order, error)
	List(ctx context.Context, page, perPage int, status models.Status) ([]models.Order, pagination.Pagination, error)
	ListByStatus(ctx context.Context, status models.Status) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, next models.Status) (models.Order, error)
}

// OrderService turns carts into persisted orders and manages the order
// lifecycle afterwards.
type OrderService struct {
	cart  *CartService
	store OrderStore
}

func NewOrderService(cart *CartService, store OrderStore) *OrderService {
	return &OrderService{cart: cart, store: store}
}

// Place snapshots the user's cart into an order, persists it atomically
// together with the customer aggregate, clears the cart, and fires
// EventOrderCreated. The snapshot freezes product names and prices;
// later catalogue edits never touch existing orders.
func (s *OrderService) Place(ctx context.Context, userID int64, username string, data CheckoutData) (models.Order, error) {
	summary, err := s.cart.Summary(ctx, userID)
	if err != nil {
		return models.Order{}, err
	}
	if summary.Empty() {
		return models.Order{}, validationErr("cart", "tu carrito está vacío")
	}

	order := models.Order{
		UserID:          userID,
		Username:        username,
		Total:           summary.Total,
		Status:          models.StatusPending,
		DeliveryType:    data.DeliveryType,
		DeliveryAddress: data.Address,
		Phone:           data.Phone,
		Notes:           data.Notes,
	}
	for _, item := range summary.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   item.Product.ID,
			ProductName: item.Product.Name,
			UnitPrice:   item.Product.Price,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
		})
	}

	if err := s.store.Create(ctx, &order); err != nil {
		return models.Order{}, err
	}

	// The order is safe; only now does the cart go away.
	s.cart.Clear(userID)

	metrics.OrdersCreated.WithLabelValues(order.DeliveryType).Inc()
	logger.WithCtx(ctx).Info("order created",
		"order_id", order.ID,
		"user_id", userID,
		"total", order.Total.StringFixed(2),
		"delivery_type", order.DeliveryType,
	)

	event.Fire(EventOrderCreated, order)
	return order, nil
}

// Get returns one order with its items.
func (s *OrderService) Get(ctx context.Context, id uint) (models.Order, error) {
	return s.store.GetByID(ctx, id)
}

// RecentForUser returns the user's latest orders, newest first.
func (s *OrderService) RecentForUser(ctx context.Context, userID int64, limit int) ([]models.Order, error) {
	return s.store.ListRecentByUser(ctx, userID, limit)
}

// List returns a page of orders for the admin API.
func (s *OrderService) List(ctx context.Context, page, perPage int, status models.Status) ([]models.Order, pagination.Pagination, error) {
	return s.store.List(ctx, page, perPage, status)
}

// Pending returns all orders still awaiting confirmation, oldest first.
func (s *OrderService) Pending(ctx context.Context) ([]models.Order, error) {
	return s.store.ListByStatus(ctx, models.StatusPending)
}

// UpdateStatus applies a lifecycle transition and fires
// EventOrderStatusChanged on success.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, next models.Status) (models.Order, error) {
	order, err := s.store.UpdateStatus(ctx, id, next)
	if err != nil {
		return models.Order{}, err
	}

	metrics.OrderStatusChanges.WithLabelValues(string(next)).Inc()
	logger.WithCtx(ctx).Info("order status changed",
		"order_id", order.ID, "status", string(next))

	event.Fire(EventOrderStatusChanged, order)
	return order, nil
}
