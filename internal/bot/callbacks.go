package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/dulceria/app/services"
	"github.com/shashiranjanraj/dulceria/internal/telegram"
	"github.com/shashiranjanraj/dulceria/pkg/logger"
	"github.com/shashiranjanraj/dulceria/pkg/storage"
)

func (b *Bot) handleCallback(ctx context.Context, cq *telegram.CallbackQuery) {
	if cq.Message == nil {
		b.answer(ctx, cq.ID, "")
		return
	}

	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID
	data := cq.Data

	switch {
	case data == cbViewMenu:
		b.answer(ctx, cq.ID, "")
		b.editMenu(ctx, chatID, msgID)

	case data == cbViewCart:
		b.answer(ctx, cq.ID, "")
		b.editCart(ctx, chatID, msgID, userID)

	case data == cbViewHelp:
		b.answer(ctx, cq.ID, "")
		b.send(ctx, chatID, helpText())

	case data == cbClearCart:
		b.cart.Clear(userID)
		b.answer(ctx, cq.ID, "Carrito vaciado")
		b.edit(ctx, chatID, msgID, "🛒 Tu carrito está vacío.\n\nUsa /menu para ver nuestros productos.", nil)

	case data == cbCheckout:
		b.startCheckout(ctx, cq, chatID, userID)

	case data == cbFinalConfirm:
		b.confirmOrder(ctx, cq, chatID, msgID, userID)

	case data == cbCancelOrder:
		b.checkout.Cancel(userID)
		b.answer(ctx, cq.ID, "")
		b.edit(ctx, chatID, msgID, "Pedido cancelado. Tu carrito sigue intacto 🛒", nil)

	case strings.HasPrefix(data, cbDeliveryPrefix):
		b.setDeliveryType(ctx, cq, chatID, userID, strings.TrimPrefix(data, cbDeliveryPrefix))

	case strings.HasPrefix(data, cbCatPrefix):
		b.answer(ctx, cq.ID, "")
		b.editCategory(ctx, chatID, msgID, strings.TrimPrefix(data, cbCatPrefix))

	case strings.HasPrefix(data, cbProdPrefix):
		b.answer(ctx, cq.ID, "")
		b.showProduct(ctx, chatID, msgID, strings.TrimPrefix(data, cbProdPrefix))

	case strings.HasPrefix(data, cbAddPrefix):
		b.addToCart(ctx, cq, userID, strings.TrimPrefix(data, cbAddPrefix))

	case strings.HasPrefix(data, cbQtyPrefix):
		b.adjustQuantity(ctx, cq, chatID, msgID, userID, strings.TrimPrefix(data, cbQtyPrefix))

	default:
		logger.WithCtx(ctx).Warn("bot: unknown callback", "data", data)
		b.answer(ctx, cq.ID, "")
	}
}

func (b *Bot) editMenu(ctx context.Context, chatID, msgID int64) {
	categories, err := b.products.Categories(ctx)
	if err != nil || len(categories) == 0 {
		b.edit(ctx, chatID, msgID, "Por ahora no tenemos productos disponibles 😔", nil)
		return
	}
	b.edit(ctx, chatID, msgID, "🍰 Nuestro menú — elige una categoría:", categoriesKeyboard(categories))
}

func (b *Bot) editCategory(ctx context.Context, chatID, msgID int64, category string) {
	products, err := b.products.ListByCategory(ctx, category)
	if err != nil {
		logger.WithCtx(ctx).Error("bot: list category failed", "category", category, "error", err)
		b.edit(ctx, chatID, msgID, "No pude cargar esta categoría, intenta de nuevo 🙏", nil)
		return
	}
	if len(products) == 0 {
		b.editMenu(ctx, chatID, msgID)
		return
	}
	b.edit(ctx, chatID, msgID, "🎂 "+category+" — elige un producto:", productsKeyboard(products))
}

// showProduct renders the product card. Products with an image get a new
// photo message; text-only products edit in place.
func (b *Bot) showProduct(ctx context.Context, chatID, msgID int64, rawID string) {
	id, err := parseID(rawID)
	if err != nil {
		return
	}

	product, err := b.products.GetByID(ctx, id)
	if err != nil {
		b.edit(ctx, chatID, msgID, "Ese producto ya no está disponible 😔", nil)
		return
	}

	if product.ImagePath != "" {
		if _, err := b.api.SendPhoto(ctx, telegram.SendPhotoParams{
			ChatID:      chatID,
			Photo:       storage.URL(product.ImagePath),
			Caption:     productText(product),
			ReplyMarkup: productKeyboard(product),
		}); err == nil {
			return
		}
		// Photo delivery failed (bad URL, oversized file); fall back to text.
		logger.WithCtx(ctx).Warn("bot: photo send failed, falling back to text",
			"product_id", product.ID)
	}
	b.edit(ctx, chatID, msgID, productText(product), productKeyboard(product))
}

// addToCart handles add_<id>_<qty>.
func (b *Bot) addToCart(ctx context.Context, cq *telegram.CallbackQuery, userID int64, payload string) {
	parts := strings.SplitN(payload, "_", 2)
	if len(parts) != 2 {
		b.answer(ctx, cq.ID, "")
		return
	}
	id, err := parseID(parts[0])
	if err != nil {
		b.answer(ctx, cq.ID, "")
		return
	}
	qty, err := strconv.Atoi(parts[1])
	if err != nil {
		b.answer(ctx, cq.ID, "")
		return
	}

	if err := b.cart.Add(ctx, userID, id, qty); err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			b.answer(ctx, cq.ID, "⚠️ "+verr.Message)
			return
		}
		logger.WithCtx(ctx).Error("bot: add to cart failed", "user_id", userID, "error", err)
		b.answer(ctx, cq.ID, "No pude agregar el producto, intenta de nuevo")
		return
	}
	b.answer(ctx, cq.ID, "✅ Agregado al carrito")
}

// adjustQuantity handles qty_<id>_<delta> and re-renders the cart.
func (b *Bot) adjustQuantity(ctx context.Context, cq *telegram.CallbackQuery, chatID, msgID, userID int64, payload string) {
	parts := strings.SplitN(payload, "_", 2)
	if len(parts) != 2 {
		b.answer(ctx, cq.ID, "")
		return
	}
	id, err := parseID(parts[0])
	if err != nil {
		b.answer(ctx, cq.ID, "")
		return
	}
	delta, err := strconv.Atoi(parts[1])
	if err != nil {
		b.answer(ctx, cq.ID, "")
		return
	}

	if err := b.cart.AdjustQuantity(userID, id, delta); err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			b.answer(ctx, cq.ID, "⚠️ "+verr.Message)
			return
		}
	}
	b.answer(ctx, cq.ID, "")
	b.editCart(ctx, chatID, msgID, userID)
}

func (b *Bot) editCart(ctx context.Context, chatID, msgID, userID int64) {
	summary, err := b.cart.Summary(ctx, userID)
	if err != nil {
		logger.WithCtx(ctx).Error("bot: cart summary failed", "user_id", userID, "error", err)
		b.edit(ctx, chatID, msgID, "No pude leer tu carrito, intenta de nuevo 🙏", nil)
		return
	}
	if summary.Empty() {
		b.edit(ctx, chatID, msgID, cartText(summary), nil)
		return
	}
	b.edit(ctx, chatID, msgID, cartText(summary), cartKeyboard(summary))
}

func (b *Bot) startCheckout(ctx context.Context, cq *telegram.CallbackQuery, chatID, userID int64) {
	if err := b.checkout.Start(userID); err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			b.answer(ctx, cq.ID, "⚠️ "+verr.Message)
			return
		}
		b.answer(ctx, cq.ID, "No pude iniciar el pedido, intenta de nuevo")
		return
	}
	b.answer(ctx, cq.ID, "")
	b.promptCheckoutStep(ctx, chatID, userID, services.StateDeliveryType)
}

func (b *Bot) setDeliveryType(ctx context.Context, cq *telegram.CallbackQuery, chatID, userID int64, deliveryType string) {
	if err := b.checkout.SetDeliveryType(userID, deliveryType); err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			b.answer(ctx, cq.ID, "⚠️ "+verr.Message)
			return
		}
		b.answer(ctx, cq.ID, "Intenta de nuevo")
		return
	}
	b.answer(ctx, cq.ID, "")
	b.promptCheckoutStep(ctx, chatID, userID, b.checkout.State(userID))
}

func (b *Bot) confirmOrder(ctx context.Context, cq *telegram.CallbackQuery, chatID, msgID, userID int64) {
	order, err := b.checkout.Confirm(ctx, userID, cq.From.Username)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			b.answer(ctx, cq.ID, "⚠️ "+verr.Message)
			return
		}
		logger.WithCtx(ctx).Error("bot: confirm failed", "user_id", userID, "error", err)
		b.answer(ctx, cq.ID, "No pude registrar tu pedido, intenta de nuevo 🙏")
		return
	}

	b.answer(ctx, cq.ID, "")
	b.edit(ctx, chatID, msgID, orderPlacedText(order), nil)
}

// ------------------- Edit/answer helpers -------------------

func (b *Bot) edit(ctx context.Context, chatID, msgID int64, text string, kb *telegram.InlineKeyboardMarkup) {
	err := b.api.EditMessageText(ctx, telegram.EditMessageParams{
		ChatID: chatID, MessageID: msgID, Text: text, ReplyMarkup: kb,
	})
	if err != nil {
		// Photo messages can't be edited to text; send instead.
		b.sendKb(ctx, chatID, text, kb)
	}
}

func (b *Bot) answer(ctx context.Context, callbackID, text string) {
	if err := b.api.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		logger.WithCtx(ctx).Warn("bot: answer callback failed", "error", err)
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}
