// Package bot is the Telegram storefront: command handlers, inline
// keyboard navigation, and the guided checkout conversation.
package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shashiranjanraj/dulceria/app/repositories"
	"github.com/shashiranjanraj/dulceria/app/services"
	"github.com/shashiranjanraj/dulceria/internal/telegram"
	"github.com/shashiranjanraj/dulceria/pkg/logger"
	"github.com/shashiranjanraj/dulceria/pkg/metrics"
	"github.com/shashiranjanraj/dulceria/pkg/reqid"
	"github.com/shashiranjanraj/dulceria/pkg/workerpool"
)

const (
	pollTimeout      = 30 // seconds, server-side long-poll hold
	submitRetryDelay = 250 * time.Millisecond
)

// API is the Telegram surface the bot uses. Implemented by
// *telegram.Client; tests substitute a recorder.
type API interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]telegram.Update, error)
	SendMessage(ctx context.Context, p telegram.SendMessageParams) (telegram.Message, error)
	SendPhoto(ctx context.Context, p telegram.SendPhotoParams) (telegram.Message, error)
	EditMessageText(ctx context.Context, p telegram.EditMessageParams) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

// Bot routes updates to handlers. Updates from the same user are handled
// strictly in order; different users run concurrently on the pool.
type Bot struct {
	api       API
	products  *repositories.ProductRepository
	cart      *services.CartService
	checkout  *services.CheckoutService
	orders    *services.OrderService
	assistant *services.AssistantService
	pool      *workerpool.Pool

	mu        sync.Mutex
	mailboxes map[int64]*mailbox
}

// mailbox is one user's pending updates plus a flag marking whether a
// pool worker is currently draining it.
type mailbox struct {
	queue   []telegram.Update
	running bool
}

type Deps struct {
	API       API
	Products  *repositories.ProductRepository
	Cart      *services.CartService
	Checkout  *services.CheckoutService
	Orders    *services.OrderService
	Assistant *services.AssistantService
	Pool      *workerpool.Pool
}

func New(d Deps) *Bot {
	return &Bot{
		api:       d.API,
		products:  d.Products,
		cart:      d.Cart,
		checkout:  d.Checkout,
		orders:    d.Orders,
		assistant: d.Assistant,
		pool:      d.Pool,
		mailboxes: make(map[int64]*mailbox),
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	logger.Info("bot: starting long poll")

	var offset int64
	for {
		select {
		case <-ctx.Done():
			logger.Info("bot: stopping")
			return
		default:
		}

		updates, err := b.api.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("bot: poll failed", "error", err)
			time.Sleep(3 * time.Second)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			b.Enqueue(upd)
		}
	}
}

// Enqueue hands one update to the per-user mailbox. Exposed so tests can
// feed updates without a poll loop.
func (b *Bot) Enqueue(upd telegram.Update) {
	userID, ok := updateUser(upd)
	if !ok {
		return
	}

	b.mu.Lock()
	mb, exists := b.mailboxes[userID]
	if !exists {
		mb = &mailbox{}
		b.mailboxes[userID] = mb
	}
	mb.queue = append(mb.queue, upd)

	if !mb.running && b.submitDrain(userID) {
		mb.running = true
	}
	b.mu.Unlock()
}

// submitDrain hands the user's mailbox to the pool. On saturation it
// schedules a retry so a queued update can't stall until the user's next
// message. Caller must hold b.mu.
func (b *Bot) submitDrain(userID int64) bool {
	err := b.pool.Submit(func() { b.drain(userID) })
	if err == nil {
		return true
	}
	if errors.Is(err, workerpool.ErrPoolClosed) {
		logger.Warn("bot: pool closed, dropping queued updates", "user_id", userID)
		return false
	}

	logger.Warn("bot: pool rejected drain, retrying", "user_id", userID, "error", err)
	time.AfterFunc(submitRetryDelay, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		mb := b.mailboxes[userID]
		if mb == nil || mb.running || len(mb.queue) == 0 {
			return
		}
		if b.submitDrain(userID) {
			mb.running = true
		}
	})
	return false
}

// drain handles the user's queued updates one at a time until empty.
func (b *Bot) drain(userID int64) {
	for {
		b.mu.Lock()
		mb := b.mailboxes[userID]
		if len(mb.queue) == 0 {
			mb.running = false
			b.mu.Unlock()
			return
		}
		upd := mb.queue[0]
		mb.queue = mb.queue[1:]
		b.mu.Unlock()

		b.handle(upd)
	}
}

func (b *Bot) handle(upd telegram.Update) {
	id := reqid.New()
	ctx := reqid.WithValue(context.Background(), id)
	ctx = logger.InjectLogger(ctx, logger.L.With("request_id", id))
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	switch {
	case upd.CallbackQuery != nil:
		metrics.BotUpdates.WithLabelValues("callback").Inc()
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		metrics.BotUpdates.WithLabelValues("message").Inc()
		b.handleMessage(ctx, upd.Message)
	}
}

// updateUser extracts the acting user id; updates without one (channel
// posts, service messages) are ignored.
func updateUser(upd telegram.Update) (int64, bool) {
	switch {
	case upd.CallbackQuery != nil:
		return upd.CallbackQuery.From.ID, true
	case upd.Message != nil && upd.Message.From != nil:
		return upd.Message.From.ID, true
	}
	return 0, false
}
