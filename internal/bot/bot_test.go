package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/app/repositories"
	"github.com/shashiranjanraj/dulceria/app/services"
	"github.com/shashiranjanraj/dulceria/internal/telegram"
	"github.com/shashiranjanraj/dulceria/pkg/event"
	"github.com/shashiranjanraj/dulceria/pkg/workerpool"
)

type fakeAPI struct {
	mu      sync.Mutex
	sent    []telegram.SendMessageParams
	edits   []telegram.EditMessageParams
	photos  []telegram.SendPhotoParams
	answers []string
}

func (f *fakeAPI) GetUpdates(context.Context, int64, int) ([]telegram.Update, error) {
	return nil, nil
}

func (f *fakeAPI) SendMessage(_ context.Context, p telegram.SendMessageParams) (telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p)
	return telegram.Message{MessageID: int64(len(f.sent))}, nil
}

func (f *fakeAPI) SendPhoto(_ context.Context, p telegram.SendPhotoParams) (telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, p)
	return telegram.Message{}, nil
}

func (f *fakeAPI) EditMessageText(_ context.Context, p telegram.EditMessageParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, p)
	return nil
}

func (f *fakeAPI) AnswerCallbackQuery(_ context.Context, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeAPI) lastSent(t *testing.T) telegram.SendMessageParams {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func (f *fakeAPI) lastAnswer(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.answers)
	return f.answers[len(f.answers)-1]
}

func (f *fakeAPI) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string, []services.ChatTurn) (string, error) {
	return "", fmt.Errorf("assistant disabled in tests")
}

func newTestBot(t *testing.T) (*Bot, *fakeAPI, *gorm.DB) {
	t.Helper()
	event.Flush()
	t.Cleanup(event.Flush)

	dsn := fmt.Sprintf("file:bot_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.Order{}, &models.OrderItem{}, &models.Customer{},
	))

	products := []models.Product{
		{Code: "torta-choco", Name: "Torta de Chocolate", Price: decimal.RequireFromString("28.00"), Category: "Tortas", PreparationHours: 48, Available: true},
		{Code: "pie-limon", Name: "Pie de Limón", Price: decimal.RequireFromString("18.00"), Category: "Postres", PreparationHours: 24, Available: true},
	}
	for i := range products {
		require.NoError(t, db.Create(&products[i]).Error)
	}

	productRepo := repositories.NewProductRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	cart := services.NewCartService(productRepo)
	orders := services.NewOrderService(cart, orderRepo)
	checkout := services.NewCheckoutService(cart, orders)
	assistant := services.NewAssistantService(stubGenerator{}, productRepo)

	api := &fakeAPI{}
	pool := workerpool.New(4)
	t.Cleanup(pool.Shutdown)

	b := New(Deps{
		API:       api,
		Products:  productRepo,
		Cart:      cart,
		Checkout:  checkout,
		Orders:    orders,
		Assistant: assistant,
		Pool:      pool,
	})
	return b, api, db
}

func message(userID int64, text string) telegram.Update {
	return telegram.Update{Message: &telegram.Message{
		From: &telegram.User{ID: userID, FirstName: "María", Username: "maria"},
		Chat: telegram.Chat{ID: userID},
		Text: text,
	}}
}

func callback(userID int64, data string) telegram.Update {
	return telegram.Update{CallbackQuery: &telegram.CallbackQuery{
		ID:   "cb",
		From: telegram.User{ID: userID, Username: "maria"},
		Message: &telegram.Message{
			MessageID: 1,
			Chat:      telegram.Chat{ID: userID},
		},
		Data: data,
	}}
}

func TestStartCommand(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handle(message(10, "/start"))

	sent := api.lastSent(t)
	assert.Contains(t, sent.Text, "María")
	require.NotNil(t, sent.ReplyMarkup)
	assert.Equal(t, "🍰 Ver menú", sent.ReplyMarkup.InlineKeyboard[0][0].Text)
}

func TestMenuCommandListsCategories(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handle(message(10, "/menu"))

	sent := api.lastSent(t)
	require.NotNil(t, sent.ReplyMarkup)

	var labels []string
	for _, row := range sent.ReplyMarkup.InlineKeyboard {
		for _, btn := range row {
			labels = append(labels, btn.Data)
		}
	}
	assert.Contains(t, labels, "cat_Tortas")
	assert.Contains(t, labels, "cat_Postres")
}

func TestAddToCartCallback(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handle(callback(10, "add_1_2"))
	assert.Contains(t, api.lastAnswer(t), "Agregado")

	lines := b.cart.Lines(10)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	// Unknown product is a friendly toast, not a crash.
	b.handle(callback(10, "add_999_1"))
	assert.Contains(t, api.lastAnswer(t), "no existe")
}

func TestCartCommandWhenEmpty(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handle(message(10, "/carrito"))
	assert.Contains(t, api.lastSent(t).Text, "vacío")
}

func TestFullCheckoutConversation(t *testing.T) {
	b, api, db := newTestBot(t)

	b.handle(callback(10, "add_1_1"))
	b.handle(callback(10, "checkout"))
	assert.Contains(t, api.lastSent(t).Text, "¿Cómo quieres recibir tu pedido?")

	b.handle(callback(10, "delivery_type_pickup"))
	assert.Contains(t, api.lastSent(t).Text, "teléfono")

	b.handle(message(10, "0991234567"))
	assert.Contains(t, api.lastSent(t).Text, "nota")

	b.handle(message(10, "-"))
	review := api.lastSent(t)
	assert.Contains(t, review.Text, "Torta de Chocolate")
	assert.Contains(t, review.Text, "Recoger en tienda")
	require.NotNil(t, review.ReplyMarkup)

	b.handle(callback(10, "final_confirm"))

	var order models.Order
	require.NoError(t, db.Preload("Items").First(&order).Error)
	assert.Equal(t, int64(10), order.UserID)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PickupAddress, order.DeliveryAddress)
	require.Len(t, order.Items, 1)

	assert.True(t, b.cart.IsEmpty(10))
}

func TestCheckoutRejectsBadPhone(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handle(callback(10, "add_1_1"))
	b.handle(callback(10, "checkout"))
	b.handle(callback(10, "delivery_type_pickup"))

	b.handle(message(10, "no tengo"))
	assert.Contains(t, api.lastSent(t).Text, "teléfono no es válido")
}

func TestCancelCommand(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handle(callback(10, "add_1_1"))
	b.handle(callback(10, "checkout"))
	b.handle(message(10, "/cancelar"))

	assert.Contains(t, api.lastSent(t).Text, "cancelado")
	assert.False(t, b.cart.IsEmpty(10))
}

func TestAssistantFallbackRepliesToFreeText(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handle(message(10, "quiero ver el menú por favor"))

	// Fallback intent answers first, then sends the menu keyboard.
	api.mu.Lock()
	texts := make([]string, 0, len(api.sent))
	for _, p := range api.sent {
		texts = append(texts, p.Text)
	}
	api.mu.Unlock()

	joined := strings.Join(texts, "\n")
	assert.Contains(t, joined, "menú")
	last := api.lastSent(t)
	require.NotNil(t, last.ReplyMarkup)
}

func TestEnqueueProcessesUpdates(t *testing.T) {
	b, api, _ := newTestBot(t)

	for i := 0; i < 3; i++ {
		b.Enqueue(message(10, "/ayuda"))
	}

	require.Eventually(t, func() bool {
		return api.sentCount() == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEnqueueRetriesAfterPoolSaturation(t *testing.T) {
	b, api, _ := newTestBot(t)

	pool := workerpool.New(1)
	t.Cleanup(pool.Shutdown)
	b.pool = pool

	// Occupy the single worker and fill the task buffer so the drain
	// submission is rejected.
	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.Submit(func() { close(started); <-release }))
	<-started
	require.NoError(t, pool.Submit(func() { <-release }))
	require.NoError(t, pool.Submit(func() { <-release }))
	require.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolFull)

	b.Enqueue(message(10, "/ayuda"))
	assert.Zero(t, api.sentCount())

	// Once capacity frees up the queued update must be handled without
	// the user sending anything else.
	close(release)
	require.Eventually(t, func() bool {
		return api.sentCount() == 1
	}, 3*time.Second, 20*time.Millisecond)
}
