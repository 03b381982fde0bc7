package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/config"
	"github.com/shashiranjanraj/dulceria/pkg/logger"
	"github.com/shashiranjanraj/dulceria/pkg/metrics"
	"github.com/shashiranjanraj/dulceria/pkg/notification"
)

// NotifyAdminsJob tells every configured admin chat about a new order.
// Only the order id travels through the queue; the order is re-read at
// processing time so the text always reflects the persisted state.
type NotifyAdminsJob struct {
	OrderID uint `json:"order_id"`
}

func (j NotifyAdminsJob) Handle() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	order, err := orders.GetByID(ctx, j.OrderID)
	if err != nil {
		return fmt.Errorf("notify admins: load order %d: %w", j.OrderID, err)
	}

	n := &newOrderNotification{order: order}
	admins := config.AdminChatIDs()
	if len(admins) == 0 {
		logger.Warn("notify admins: no admin chat ids configured", "order_id", order.ID)
		return nil
	}

	// Per-admin isolation: one unreachable admin must not block the rest,
	// so failures are logged and counted but never returned.
	for _, chatID := range admins {
		if errs := notification.Send(notification.Recipient{ChatID: chatID}, n); len(errs) > 0 {
			metrics.NotificationsSent.WithLabelValues("failed").Inc()
			logger.Error("notify admins: delivery failed",
				"order_id", order.ID, "chat_id", chatID)
			continue
		}
		metrics.NotificationsSent.WithLabelValues("sent").Inc()
	}
	return nil
}

type newOrderNotification struct {
	order models.Order
}

func (n *newOrderNotification) Via() []string { return []string{"telegram"} }

func (n *newOrderNotification) ToTelegram() notification.TelegramData {
	return notification.TelegramData{Text: renderAdminOrder(n.order)}
}

// renderAdminOrder builds the Spanish admin alert for a new order.
func renderAdminOrder(order models.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🔔 NUEVO PEDIDO #%d\n\n", order.ID)
	fmt.Fprintf(&b, "👤 Cliente: %s (ID %d)\n", displayName(order), order.UserID)
	fmt.Fprintf(&b, "📞 Teléfono: %s\n\n", order.Phone)

	for _, item := range order.Items {
		fmt.Fprintf(&b, "• %s x%d — %s %s\n",
			item.ProductName, item.Quantity, config.Currency(), item.Subtotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\n💰 Total: %s %s\n", config.Currency(), order.Total.StringFixed(2))

	if order.DeliveryType == models.DeliveryDelivery {
		fmt.Fprintf(&b, "🚚 Entrega a domicilio: %s\n", order.DeliveryAddress)
	} else {
		fmt.Fprintf(&b, "🏪 %s\n", models.PickupAddress)
	}
	if order.Notes != "" {
		fmt.Fprintf(&b, "📝 Notas: %s\n", order.Notes)
	}
	fmt.Fprintf(&b, "\n🕐 %s", order.CreatedAt.Format("02/01/2006 15:04"))

	return b.String()
}

func displayName(order models.Order) string {
	if order.Username != "" {
		return "@" + order.Username
	}
	return "sin usuario"
}
