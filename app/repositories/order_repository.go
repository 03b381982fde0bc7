package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/pkg/pagination"
)

// OrderRepository handles database operations for orders and the customer
// aggregate rows that track per-user ordering history.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists the order, its line items, and the customer aggregate in
// one transaction. Either everything lands or nothing does; a crash can
// never leave an order without its customer counter bump.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if order.Status == "" {
			order.Status = models.StatusPending
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}

		return upsertCustomer(tx, order.UserID, order.Username, order.CreatedAt)
	})
	if err != nil {
		return &PersistenceError{Op: "orders: create", Err: err}
	}
	return nil
}

// upsertCustomer increments the aggregate row for userID, creating it on
// the first order. Runs inside the caller's transaction.
func upsertCustomer(tx *gorm.DB, userID int64, username string, orderedAt time.Time) error {
	var customer models.Customer
	err := tx.Where("user_id = ?", userID).First(&customer).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		customer = models.Customer{
			UserID:      userID,
			Username:    username,
			TotalOrders: 1,
			LastOrderAt: orderedAt,
		}
		return tx.Create(&customer).Error
	case err != nil:
		return err
	}

	updates := map[string]interface{}{
		"total_orders":  gorm.Expr("total_orders + 1"),
		"last_order_at": orderedAt,
	}
	if username != "" {
		updates["username"] = username
	}
	return tx.Model(&customer).Updates(updates).Error
}

// GetByID returns an order with its line items.
func (r *OrderRepository) GetByID(ctx context.Context, id uint) (models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Order{}, &NotFoundError{Entity: "order", ID: id}
	}
	if err != nil {
		return models.Order{}, &PersistenceError{Op: "orders: get", Err: err}
	}
	return order, nil
}

// ListRecentByUser returns the user's newest orders first, at most limit.
func (r *OrderRepository) ListRecentByUser(ctx context.Context, userID int64, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 5
	}

	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, &PersistenceError{Op: "orders: list recent", Err: err}
	}
	return orders, nil
}

// List returns a page of orders for the admin API, newest first,
// optionally filtered by status.
func (r *OrderRepository) List(ctx context.Context, page, perPage int, status models.Status) ([]models.Order, pagination.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, pagination.Pagination{}, &PersistenceError{Op: "orders: count", Err: err}
	}

	p := pagination.New(page, perPage, total)

	var orders []models.Order
	err := q.Session(&gorm.Session{}).Preload("Items").
		Order("created_at DESC").
		Offset(p.Offset()).
		Limit(p.PerPage).
		Find(&orders).Error
	if err != nil {
		return nil, pagination.Pagination{}, &PersistenceError{Op: "orders: list", Err: err}
	}
	return orders, p, nil
}

// ListByStatus returns all orders in the given status, oldest first.
// Used by the daily pending-order digest.
func (r *OrderRepository) ListByStatus(ctx context.Context, status models.Status) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, &PersistenceError{Op: "orders: list by status", Err: err}
	}
	return orders, nil
}

// UpdateStatus applies a lifecycle transition, enforcing the transition
// table. Returns the updated order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uint, next models.Status) (models.Order, error) {
	var order models.Order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, id).Error; err != nil {
			return err
		}

		if err := order.Status.CanTransition(next); err != nil {
			return err
		}

		order.Status = next
		return tx.Model(&order).Update("status", next).Error
	})

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.Order{}, &NotFoundError{Entity: "order", ID: id}
	case errors.Is(err, models.ErrInvalidTransition):
		return models.Order{}, err
	case err != nil:
		return models.Order{}, &PersistenceError{Op: "orders: update status", Err: err}
	}
	return order, nil
}

// GetCustomer returns the aggregate row for userID.
func (r *OrderRepository) GetCustomer(ctx context.Context, userID int64) (models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Customer{}, &NotFoundError{Entity: "customer", ID: userID}
	}
	if err != nil {
		return models.Customer{}, &PersistenceError{Op: "customers: get", Err: err}
	}
	return customer, nil
}
