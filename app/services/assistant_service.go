package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/config"
	"github.com/shashiranjanraj/dulceria/pkg/logger"
	"github.com/shashiranjanraj/dulceria/pkg/metrics"
)

// Action is a navigation command the assistant may embed in a reply so
// the bot can follow up with the matching keyboard.
type Action string

const (
	ActionNone Action = ""
	ActionMenu Action = "ver_menu"
	ActionCart Action = "ver_carrito"
	ActionHelp Action = "ver_ayuda"
)

// AssistantReply is the assistant's answer with the embedded action (if
// any) already extracted out of the text.
type AssistantReply struct {
	Text   string
	Action Action
}

// CatalogLister is the read-only catalogue view the assistant describes
// to the model. Implemented by repositories.ProductRepository.
type CatalogLister interface {
	ListAvailable(ctx context.Context) ([]models.Product, error)
}

var actionPattern = regexp.MustCompile(`\[ACCION:([a-z_]+)\]`)

const historyLimit = 20

// AssistantService answers free-form customer messages with a
// catalogue-aware model. History is per-user, in memory, and capped;
// when the model is unreachable it degrades to keyword intents so the
// bot always says something useful.
type AssistantService struct {
	generator Generator
	catalog   CatalogLister

	mu      sync.Mutex
	history map[int64][]ChatTurn
}

func NewAssistantService(generator Generator, catalog CatalogLister) *AssistantService {
	return &AssistantService{
		generator: generator,
		catalog:   catalog,
		history:   make(map[int64][]ChatTurn),
	}
}

// Ask answers one customer message. Errors from the model never reach
// the caller; they downgrade to a canned keyword-based reply.
func (s *AssistantService) Ask(ctx context.Context, userID int64, text string) AssistantReply {
	system := s.systemPrompt(ctx)
	turns := append(s.turns(userID), ChatTurn{Role: "user", Text: text})

	start := time.Now()
	raw, err := s.generator.Generate(ctx, system, turns)
	metrics.AssistantDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		logger.WithCtx(ctx).Warn("assistant call failed, using fallback",
			"user_id", userID, "error", err)
		return fallbackReply(text)
	}

	s.remember(userID, text, raw)
	return parseReply(raw)
}

// Reset drops the user's conversation history.
func (s *AssistantService) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, userID)
}

func (s *AssistantService) turns(userID int64) []ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.history[userID]
	out := make([]ChatTurn, len(history))
	copy(out, history)
	return out
}

func (s *AssistantService) remember(userID int64, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.history[userID],
		ChatTurn{Role: "user", Text: question},
		ChatTurn{Role: "model", Text: answer},
	)
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	s.history[userID] = history
}

// systemPrompt describes the shop and the live catalogue to the model.
// A catalogue read failure just yields a prompt without product lines.
func (s *AssistantService) systemPrompt(ctx context.Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Eres el asistente virtual de %s, una pastelería artesanal.\n", config.ShopName())
	fmt.Fprintf(&b, "Dirección: %s. Teléfono: %s.\n", config.ShopAddress(), config.ShopPhone())
	fmt.Fprintf(&b, "Los pedidos necesitan al menos %d horas de anticipación.\n\n", config.MinPrepHours())

	b.WriteString("Responde siempre en español, con calidez y de forma breve.\n")
	b.WriteString("Solo hablas de la pastelería y sus productos; rechaza otros temas con amabilidad.\n")
	b.WriteString("Cuando el cliente quiera ver el menú, termina tu respuesta con [ACCION:ver_menu].\n")
	b.WriteString("Cuando pregunte por su carrito, termina con [ACCION:ver_carrito].\n")
	b.WriteString("Cuando necesite ayuda con los comandos, termina con [ACCION:ver_ayuda].\n\n")

	products, err := s.catalog.ListAvailable(ctx)
	if err != nil {
		logger.WithCtx(ctx).Warn("assistant: catalogue unavailable for prompt", "error", err)
		return b.String()
	}

	b.WriteString("Catálogo actual:\n")
	for _, p := range products {
		fmt.Fprintf(&b, "- %s (%s): %s %s", p.Name, p.Category, config.Currency(), p.Price.StringFixed(2))
		if p.Portions != "" {
			fmt.Fprintf(&b, ", %s", p.Portions)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// parseReply pulls the first action tag out of the model text.
func parseReply(raw string) AssistantReply {
	reply := AssistantReply{Action: ActionNone}

	if m := actionPattern.FindStringSubmatch(raw); m != nil {
		switch Action(m[1]) {
		case ActionMenu, ActionCart, ActionHelp:
			reply.Action = Action(m[1])
		}
	}
	reply.Text = strings.TrimSpace(actionPattern.ReplaceAllString(raw, ""))
	return reply
}

// fallbackReply maps obvious keywords to canned answers when the model
// is down or unconfigured.
func fallbackReply(text string) AssistantReply {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, "menú", "menu", "catálogo", "catalogo", "productos", "torta", "pastel"):
		return AssistantReply{
			Text:   "¡Claro! Aquí tienes nuestro menú 🍰",
			Action: ActionMenu,
		}
	case containsAny(lower, "carrito", "carro", "pedido actual"):
		return AssistantReply{
			Text:   "Este es tu carrito actual:",
			Action: ActionCart,
		}
	case containsAny(lower, "ayuda", "comandos", "cómo", "como funciona"):
		return AssistantReply{
			Text:   "Con gusto te explico cómo hacer tu pedido:",
			Action: ActionHelp,
		}
	case containsAny(lower, "horario", "dirección", "direccion", "ubicación", "ubicacion", "teléfono", "telefono", "contacto"):
		return AssistantReply{
			Text: fmt.Sprintf("Nos encuentras en %s 📍\nTeléfono: %s", config.ShopAddress(), config.ShopPhone()),
		}
	}

	return AssistantReply{
		Text: "Disculpa, en este momento no puedo responder eso. " +
			"Usa /menu para ver nuestros productos o /ayuda para conocer los comandos.",
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
