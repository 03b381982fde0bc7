package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/shashiranjanraj/dulceria/app/services"
	"github.com/shashiranjanraj/dulceria/internal/telegram"
	"github.com/shashiranjanraj/dulceria/pkg/logger"
)

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if cmd, ok := parseCommand(text); ok {
		b.handleCommand(ctx, chatID, userID, msg.From, cmd)
		return
	}

	// Free text goes to the checkout conversation when one is waiting for
	// an answer, otherwise to the assistant.
	if b.checkout.AwaitingText(userID) {
		b.handleCheckoutText(ctx, chatID, userID, text)
		return
	}
	if b.checkout.State(userID) == services.StateDeliveryType {
		b.sendKb(ctx, chatID, "Elige una opción con los botones 👇", deliveryKeyboard())
		return
	}

	reply := b.assistant.Ask(ctx, userID, text)
	b.send(ctx, chatID, reply.Text)
	switch reply.Action {
	case services.ActionMenu:
		b.sendMenu(ctx, chatID)
	case services.ActionCart:
		b.sendCart(ctx, chatID, userID)
	case services.ActionHelp:
		b.send(ctx, chatID, helpText())
	}
}

// parseCommand extracts the command name from "/cmd" or "/cmd@botname".
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	cmd := strings.Fields(text)[0]
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}
	return cmd, true
}

func (b *Bot) handleCommand(ctx context.Context, chatID, userID int64, from *telegram.User, cmd string) {
	switch cmd {
	case "/start":
		b.assistant.Reset(userID)
		b.sendKb(ctx, chatID, welcomeText(from.FirstName), mainKeyboard())

	case "/menu":
		b.sendMenu(ctx, chatID)

	case "/carrito":
		b.sendCart(ctx, chatID, userID)

	case "/pedidos":
		orders, err := b.orders.RecentForUser(ctx, userID, 5)
		if err != nil {
			logger.WithCtx(ctx).Error("bot: list orders failed", "user_id", userID, "error", err)
			b.send(ctx, chatID, "No pude consultar tus pedidos, intenta de nuevo en un momento 🙏")
			return
		}
		b.send(ctx, chatID, ordersText(orders))

	case "/ayuda":
		b.send(ctx, chatID, helpText())

	case "/contacto":
		b.send(ctx, chatID, contactText())

	case "/cancelar":
		if !b.checkout.InProgress(userID) {
			b.send(ctx, chatID, "No tienes ningún pedido en curso.")
			return
		}
		b.checkout.Cancel(userID)
		b.send(ctx, chatID, "Pedido cancelado. Tu carrito sigue intacto 🛒")

	default:
		b.send(ctx, chatID, "No conozco ese comando. Usa /ayuda para ver las opciones.")
	}
}

// handleCheckoutText feeds a free-text answer into the checkout state
// machine and asks the next question.
func (b *Bot) handleCheckoutText(ctx context.Context, chatID, userID int64, text string) {
	next, err := b.checkout.SubmitText(userID, text)

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		b.send(ctx, chatID, "⚠️ "+verr.Message)
		return
	}
	if err != nil {
		logger.WithCtx(ctx).Error("bot: checkout text failed", "user_id", userID, "error", err)
		b.send(ctx, chatID, "Algo salió mal, intenta de nuevo 🙏")
		return
	}

	b.promptCheckoutStep(ctx, chatID, userID, next)
}

// promptCheckoutStep sends the question for the given checkout state.
func (b *Bot) promptCheckoutStep(ctx context.Context, chatID, userID int64, state services.CheckoutState) {
	switch state {
	case services.StateDeliveryType:
		b.sendKb(ctx, chatID, "¿Cómo quieres recibir tu pedido?", deliveryKeyboard())

	case services.StateAddress:
		b.send(ctx, chatID, "📍 Escribe la dirección de entrega:")

	case services.StatePhone:
		b.send(ctx, chatID, "📞 Escribe tu número de teléfono:")

	case services.StateNotes:
		b.send(ctx, chatID, "📝 ¿Alguna nota para tu pedido? Escribe \"-\" si no tienes.")

	case services.StateConfirmation:
		summary, err := b.cart.Summary(ctx, userID)
		if err != nil {
			logger.WithCtx(ctx).Error("bot: cart summary failed", "user_id", userID, "error", err)
			b.send(ctx, chatID, "No pude leer tu carrito, intenta de nuevo 🙏")
			return
		}
		b.sendKb(ctx, chatID, confirmationText(b.checkout.Data(userID), summary), confirmKeyboard())
	}
}

// ------------------- Send helpers -------------------

func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if _, err := b.api.SendMessage(ctx, telegram.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		logger.WithCtx(ctx).Error("bot: send failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendKb(ctx context.Context, chatID int64, text string, kb *telegram.InlineKeyboardMarkup) {
	if _, err := b.api.SendMessage(ctx, telegram.SendMessageParams{
		ChatID: chatID, Text: text, ReplyMarkup: kb,
	}); err != nil {
		logger.WithCtx(ctx).Error("bot: send failed", "chat_id", chatID, "error", err)
	}
}

// sendMenu shows the category list.
func (b *Bot) sendMenu(ctx context.Context, chatID int64) {
	categories, err := b.products.Categories(ctx)
	if err != nil {
		logger.WithCtx(ctx).Error("bot: load categories failed", "error", err)
		b.send(ctx, chatID, "No pude cargar el menú, intenta de nuevo en un momento 🙏")
		return
	}
	if len(categories) == 0 {
		b.send(ctx, chatID, "Por ahora no tenemos productos disponibles 😔")
		return
	}
	b.sendKb(ctx, chatID, "🍰 Nuestro menú — elige una categoría:", categoriesKeyboard(categories))
}

// sendCart shows the cart with quantity buttons.
func (b *Bot) sendCart(ctx context.Context, chatID, userID int64) {
	summary, err := b.cart.Summary(ctx, userID)
	if err != nil {
		logger.WithCtx(ctx).Error("bot: cart summary failed", "user_id", userID, "error", err)
		b.send(ctx, chatID, "No pude leer tu carrito, intenta de nuevo 🙏")
		return
	}
	if summary.Empty() {
		b.send(ctx, chatID, cartText(summary))
		return
	}
	b.sendKb(ctx, chatID, cartText(summary), cartKeyboard(summary))
}
