package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/config"
	"github.com/shashiranjanraj/dulceria/pkg/logger"
	"github.com/shashiranjanraj/dulceria/pkg/metrics"
	"github.com/shashiranjanraj/dulceria/pkg/notification"
)

// DailyDigestJob summarizes the orders still waiting for confirmation and
// sends the list to every admin chat. Scheduled every morning; it can
// also be dispatched manually from the CLI.
type DailyDigestJob struct{}

func (j DailyDigestJob) Handle() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pending, err := orders.ListByStatus(ctx, models.StatusPending)
	if err != nil {
		return fmt.Errorf("daily digest: list pending orders: %w", err)
	}
	if len(pending) == 0 {
		logger.Info("daily digest: nothing pending, skipping")
		return nil
	}

	n := &digestNotification{orders: pending}
	for _, chatID := range config.AdminChatIDs() {
		if errs := notification.Send(notification.Recipient{ChatID: chatID}, n); len(errs) > 0 {
			metrics.NotificationsSent.WithLabelValues("failed").Inc()
			continue
		}
		metrics.NotificationsSent.WithLabelValues("sent").Inc()
	}
	return nil
}

type digestNotification struct {
	orders []models.Order
}

func (n *digestNotification) Via() []string { return []string{"telegram"} }

func (n *digestNotification) ToTelegram() notification.TelegramData {
	return notification.TelegramData{Text: renderDigest(n.orders)}
}

func renderDigest(pending []models.Order) string {
	var b strings.Builder
	total := decimal.Zero

	fmt.Fprintf(&b, "📋 Pedidos pendientes de confirmar: %d\n\n", len(pending))
	for _, order := range pending {
		fmt.Fprintf(&b, "#%d — %s — %s %s — %s\n",
			order.ID, displayName(order),
			config.Currency(), order.Total.StringFixed(2),
			order.CreatedAt.Format("02/01 15:04"))
		total = total.Add(order.Total)
	}
	fmt.Fprintf(&b, "\n💰 Total pendiente: %s %s", config.Currency(), total.StringFixed(2))

	return b.String()
}
