package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// transitions lists the allowed next states for each status.
// delivered and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ErrInvalidTransition is wrapped into the error returned by CanTransition.
var ErrInvalidTransition = fmt.Errorf("invalid status transition")

// ParseStatus validates a raw string as a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := transitions[status]; !ok {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return status, nil
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) error {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return nil
		}
	}
	return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, s, next)
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Delivery types. Pickup orders carry the fixed store address.
const (
	DeliveryPickup   = "pickup"
	DeliveryDelivery = "delivery"
)

// PickupAddress is stored as the delivery address on pickup orders.
const PickupAddress = "Recoger en tienda"

// Order is a confirmed purchase. Line items are snapshots: later catalogue
// edits never change what this order shows.
type Order struct {
	gorm.Model
	UserID          int64           `gorm:"not null;index"                 json:"user_id"`
	Username        string          `gorm:"size:255"                       json:"username"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE"    json:"items"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null"    json:"total"`
	Status          Status          `gorm:"size:32;not null;default:pending;index" json:"status"`
	DeliveryType    string          `gorm:"size:16;not null"               json:"delivery_type"`
	DeliveryAddress string          `gorm:"size:512"                       json:"delivery_address"`
	DeliveryTime    *time.Time      `json:"delivery_time,omitempty"`
	Phone           string          `gorm:"size:32"                        json:"phone"`
	Notes           string          `gorm:"type:text"                      json:"notes"`
}

// OrderItem is one snapshot line of an order.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey"                  json:"id"`
	OrderID     uint            `gorm:"not null;index"              json:"order_id"`
	ProductID   uint            `gorm:"not null"                    json:"product_id"`
	ProductName string          `gorm:"size:255;not null"           json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null"                    json:"quantity"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
}
