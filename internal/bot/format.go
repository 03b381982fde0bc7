package bot

import (
	"fmt"
	"strings"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/app/services"
	"github.com/shashiranjanraj/dulceria/config"
)

// Customer-facing Spanish texts.

func welcomeText(firstName string) string {
	name := firstName
	if name == "" {
		name = "hola"
	}
	return fmt.Sprintf(
		"¡Hola %s! 👋 Bienvenido a %s 🧁\n\n"+
			"Soy tu asistente de pedidos. Puedes explorar el menú, armar tu "+
			"carrito y confirmar tu pedido aquí mismo.\n\n"+
			"También puedes escribirme cualquier pregunta sobre nuestros productos.",
		name, config.ShopName())
}

func helpText() string {
	return fmt.Sprintf(
		"ℹ️ Así funciona tu pedido:\n\n"+
			"/menu — ver nuestro catálogo\n"+
			"/carrito — revisar tu carrito\n"+
			"/pedidos — tus pedidos recientes\n"+
			"/contacto — dirección y teléfono\n"+
			"/cancelar — cancelar el pedido en curso\n\n"+
			"Recuerda: los pedidos necesitan al menos %d horas de anticipación 🕐",
		config.MinPrepHours())
}

func contactText() string {
	return fmt.Sprintf(
		"📍 %s\n%s\n📞 %s",
		config.ShopName(), config.ShopAddress(), config.ShopPhone())
}

func productText(p models.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎂 %s\n\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", p.Description)
	}
	fmt.Fprintf(&b, "💰 %s %s\n", config.Currency(), p.Price.StringFixed(2))
	if p.Portions != "" {
		fmt.Fprintf(&b, "🍽 %s\n", p.Portions)
	}
	if p.Shape != "" {
		fmt.Fprintf(&b, "📐 Forma: %s\n", p.Shape)
	}
	fmt.Fprintf(&b, "🕐 Preparación: %d horas", p.PreparationHours)
	return b.String()
}

func cartText(summary services.CartSummary) string {
	if summary.Empty() {
		return "🛒 Tu carrito está vacío.\n\nUsa /menu para ver nuestros productos."
	}

	var b strings.Builder
	b.WriteString("🛒 Tu carrito:\n\n")
	for _, item := range summary.Items {
		fmt.Fprintf(&b, "• %s x%d — %s %s\n",
			item.Product.Name, item.Quantity, config.Currency(), item.Subtotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\n💰 Total: %s %s", config.Currency(), summary.Total.StringFixed(2))
	return b.String()
}

// confirmationText is the order review shown before final confirmation.
func confirmationText(data services.CheckoutData, summary services.CartSummary) string {
	var b strings.Builder
	b.WriteString("📋 Revisa tu pedido:\n\n")
	for _, item := range summary.Items {
		fmt.Fprintf(&b, "• %s x%d — %s %s\n",
			item.Product.Name, item.Quantity, config.Currency(), item.Subtotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\n💰 Total: %s %s\n\n", config.Currency(), summary.Total.StringFixed(2))

	if data.DeliveryType == models.DeliveryDelivery {
		fmt.Fprintf(&b, "🚚 Entrega a domicilio\n📍 %s\n", data.Address)
	} else {
		fmt.Fprintf(&b, "🏪 %s\n", models.PickupAddress)
	}
	fmt.Fprintf(&b, "📞 %s\n", data.Phone)
	if data.Notes != "" {
		fmt.Fprintf(&b, "📝 %s\n", data.Notes)
	}
	b.WriteString("\n¿Confirmas tu pedido?")
	return b.String()
}

func orderPlacedText(order models.Order) string {
	return fmt.Sprintf(
		"✅ ¡Pedido #%d confirmado!\n\n"+
			"Te avisaremos cuando esté listo. Recuerda que la preparación "+
			"toma al menos %d horas.\n\n¡Gracias por tu compra! 🧁",
		order.ID, config.MinPrepHours())
}

func ordersText(orders []models.Order) string {
	if len(orders) == 0 {
		return "Aún no tienes pedidos. Usa /menu para hacer el primero 🍰"
	}

	var b strings.Builder
	b.WriteString("📦 Tus pedidos recientes:\n\n")
	for _, order := range orders {
		fmt.Fprintf(&b, "#%d — %s — %s %s — %s\n",
			order.ID,
			order.CreatedAt.Format("02/01/2006"),
			config.Currency(), order.Total.StringFixed(2),
			statusLabel(order.Status))
	}
	return b.String()
}

// statusLabel maps lifecycle statuses to customer-facing Spanish.
func statusLabel(s models.Status) string {
	switch s {
	case models.StatusPending:
		return "⏳ pendiente"
	case models.StatusConfirmed:
		return "👍 confirmado"
	case models.StatusPreparing:
		return "👩‍🍳 en preparación"
	case models.StatusReady:
		return "🎉 listo"
	case models.StatusDelivered:
		return "✅ entregado"
	case models.StatusCancelled:
		return "❌ cancelado"
	}
	return string(s)
}
