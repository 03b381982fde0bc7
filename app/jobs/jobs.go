// Package jobs holds the queued background work: admin notifications for
// new orders and the daily pending-order digest.
package jobs

import (
	"context"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/pkg/queue"
)

// OrderSource is the order read access jobs need. Implemented by
// repositories.OrderRepository.
type OrderSource interface {
	GetByID(ctx context.Context, id uint) (models.Order, error)
	ListByStatus(ctx context.Context, status models.Status) ([]models.Order, error)
}

// orders is injected once at boot; jobs are deserialized from the queue
// and cannot carry live dependencies in their payload.
var orders OrderSource

// Configure wires the order source. Call once at boot, before workers start.
func Configure(src OrderSource) { orders = src }

// RegisterAll makes every job type known to the queue so workers can
// deserialize them by name.
func RegisterAll() {
	queue.Register("jobs.NotifyAdminsJob", func() queue.Job { return &NotifyAdminsJob{} })
	queue.Register("jobs.DailyDigestJob", func() queue.Job { return &DailyDigestJob{} })
}
