package bot

import (
	"fmt"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/app/services"
	"github.com/shashiranjanraj/dulceria/config"
	"github.com/shashiranjanraj/dulceria/internal/telegram"
)

// Callback data prefixes. The full grammar:
//
//	view_menu | view_cart | view_help | clear_cart | checkout
//	cat_<category> | prod_<id> | add_<id>_<qty> | qty_<id>_<±1>
//	delivery_type_<pickup|delivery> | final_confirm | cancel_order
const (
	cbViewMenu     = "view_menu"
	cbViewCart     = "view_cart"
	cbViewHelp     = "view_help"
	cbClearCart    = "clear_cart"
	cbCheckout     = "checkout"
	cbFinalConfirm = "final_confirm"
	cbCancelOrder  = "cancel_order"

	cbCatPrefix      = "cat_"
	cbProdPrefix     = "prod_"
	cbAddPrefix      = "add_"
	cbQtyPrefix      = "qty_"
	cbDeliveryPrefix = "delivery_type_"
)

func mainKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		telegram.Row(telegram.Btn("🍰 Ver menú", cbViewMenu)),
		telegram.Row(
			telegram.Btn("🛒 Mi carrito", cbViewCart),
			telegram.Btn("ℹ️ Ayuda", cbViewHelp),
		),
	)
}

func categoriesKeyboard(categories []string) *telegram.InlineKeyboardMarkup {
	var rows [][]telegram.InlineKeyboardButton
	for _, c := range categories {
		rows = append(rows, telegram.Row(telegram.Btn("🎂 "+c, cbCatPrefix+c)))
	}
	rows = append(rows, telegram.Row(telegram.Btn("🛒 Mi carrito", cbViewCart)))
	return telegram.Keyboard(rows...)
}

func productsKeyboard(products []models.Product) *telegram.InlineKeyboardMarkup {
	var rows [][]telegram.InlineKeyboardButton
	for _, p := range products {
		label := fmt.Sprintf("%s — %s %s", p.Name, config.Currency(), p.Price.StringFixed(2))
		rows = append(rows, telegram.Row(telegram.Btn(label, fmt.Sprintf("%s%d", cbProdPrefix, p.ID))))
	}
	rows = append(rows, telegram.Row(telegram.Btn("⬅️ Categorías", cbViewMenu)))
	return telegram.Keyboard(rows...)
}

func productKeyboard(p models.Product) *telegram.InlineKeyboardMarkup {
	add := func(qty int) telegram.InlineKeyboardButton {
		return telegram.Btn(fmt.Sprintf("➕ %d", qty), fmt.Sprintf("%s%d_%d", cbAddPrefix, p.ID, qty))
	}
	return telegram.Keyboard(
		telegram.Row(add(1), add(2), add(3)),
		telegram.Row(
			telegram.Btn("⬅️ Volver", cbCatPrefix+p.Category),
			telegram.Btn("🛒 Mi carrito", cbViewCart),
		),
	)
}

func cartKeyboard(summary services.CartSummary) *telegram.InlineKeyboardMarkup {
	var rows [][]telegram.InlineKeyboardButton
	for _, item := range summary.Items {
		rows = append(rows, telegram.Row(
			telegram.Btn("➖", fmt.Sprintf("%s%d_-1", cbQtyPrefix, item.Product.ID)),
			telegram.Btn(fmt.Sprintf("%s x%d", item.Product.Name, item.Quantity), fmt.Sprintf("%s%d", cbProdPrefix, item.Product.ID)),
			telegram.Btn("➕", fmt.Sprintf("%s%d_1", cbQtyPrefix, item.Product.ID)),
		))
	}
	rows = append(rows,
		telegram.Row(telegram.Btn("✅ Hacer pedido", cbCheckout)),
		telegram.Row(
			telegram.Btn("🗑 Vaciar", cbClearCart),
			telegram.Btn("🍰 Seguir comprando", cbViewMenu),
		),
	)
	return telegram.Keyboard(rows...)
}

func deliveryKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		telegram.Row(telegram.Btn("🏪 Recoger en tienda", cbDeliveryPrefix+models.DeliveryPickup)),
		telegram.Row(telegram.Btn("🚚 Entrega a domicilio", cbDeliveryPrefix+models.DeliveryDelivery)),
		telegram.Row(telegram.Btn("❌ Cancelar", cbCancelOrder)),
	)
}

func confirmKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		telegram.Row(
			telegram.Btn("✅ Confirmar pedido", cbFinalConfirm),
			telegram.Btn("❌ Cancelar", cbCancelOrder),
		),
	)
}
