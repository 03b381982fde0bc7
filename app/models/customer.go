package models

import "time"

// Customer aggregates per-user ordering history. The row is upserted in the
// same transaction that creates an order, so TotalOrders and LastOrderAt
// never drift from the orders table.
type Customer struct {
	UserID      int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Username    string    `gorm:"size:255"                       json:"username"`
	TotalOrders int       `gorm:"not null;default:0"             json:"total_orders"`
	LastOrderAt time.Time `json:"last_order_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
