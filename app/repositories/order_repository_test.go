package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashiranjanraj/dulceria/app/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.Order{}, &models.OrderItem{},
		&models.Customer{}, &models.Admin{},
	))
	return db
}

func sampleOrder(userID int64) *models.Order {
	price := decimal.RequireFromString("28.00")
	return &models.Order{
		UserID:       userID,
		Username:     "maria",
		Total:        price,
		DeliveryType: models.DeliveryPickup,
		Phone:        "0991234567",
		Items: []models.OrderItem{{
			ProductID:   1,
			ProductName: "Torta de Chocolate",
			UnitPrice:   price,
			Quantity:    1,
			Subtotal:    price,
		}},
	}
}

func TestCreateDefaultsStatusAndUpsertsCustomer(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	order := sampleOrder(10)
	require.NoError(t, repo.Create(ctx, order))
	assert.Equal(t, models.StatusPending, order.Status)
	assert.NotZero(t, order.ID)

	customer, err := repo.GetCustomer(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, customer.TotalOrders)
	assert.Equal(t, "maria", customer.Username)

	// Second order increments the aggregate.
	require.NoError(t, repo.Create(ctx, sampleOrder(10)))
	customer, err = repo.GetCustomer(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, customer.TotalOrders)
}

func TestCreateRollsBackCustomerOnFailure(t *testing.T) {
	db := testDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleOrder(10)))
	customer, err := repo.GetCustomer(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, customer.TotalOrders)

	// Break line-item persistence so the next create fails mid-transaction.
	require.NoError(t, db.Migrator().DropTable(&models.OrderItem{}))

	err = repo.Create(ctx, sampleOrder(10))
	require.Error(t, err)
	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)

	// The whole transaction rolled back: no orphan order row and the
	// customer aggregate kept its old count.
	var count int64
	require.NoError(t, db.Model(&models.Order{}).Where("user_id = ?", 10).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	customer, err = repo.GetCustomer(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, customer.TotalOrders)
}

func TestGetByIDPreloadsItems(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	order := sampleOrder(10)
	require.NoError(t, repo.Create(ctx, order))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Torta de Chocolate", got.Items[0].ProductName)
	assert.Equal(t, "28.00", got.Total.StringFixed(2))

	var nf *NotFoundError
	_, err = repo.GetByID(ctx, 999)
	assert.ErrorAs(t, err, &nf)
}

func TestListRecentByUser(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		order := sampleOrder(10)
		require.NoError(t, repo.Create(ctx, order))
		// Space out created_at so ordering is deterministic.
		repo.db.Model(order).Update("created_at", time.Now().Add(time.Duration(i)*time.Minute))
	}
	require.NoError(t, repo.Create(ctx, sampleOrder(20)))

	orders, err := repo.ListRecentByUser(ctx, 10, 5)
	require.NoError(t, err)
	require.Len(t, orders, 5)
	for _, o := range orders {
		assert.Equal(t, int64(10), o.UserID)
	}
	// Newest first.
	assert.True(t, orders[0].CreatedAt.After(orders[4].CreatedAt))
}

func TestListPaginatesAndFilters(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Create(ctx, sampleOrder(10)))
	}
	confirmed := sampleOrder(10)
	require.NoError(t, repo.Create(ctx, confirmed))
	_, err := repo.UpdateStatus(ctx, confirmed.ID, models.StatusConfirmed)
	require.NoError(t, err)

	orders, p, err := repo.List(ctx, 1, 3, "")
	require.NoError(t, err)
	assert.Len(t, orders, 3)
	assert.Equal(t, int64(5), p.Total)
	assert.Equal(t, 2, p.TotalPages)

	orders, p, err = repo.List(ctx, 1, 10, models.StatusConfirmed)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, int64(1), p.Total)
}

func TestUpdateStatusEnforcesTransitions(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	order := sampleOrder(10)
	require.NoError(t, repo.Create(ctx, order))

	got, err := repo.UpdateStatus(ctx, order.ID, models.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	_, err = repo.UpdateStatus(ctx, order.ID, models.StatusDelivered)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	// The failed transition left the row untouched.
	got, err = repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	var nf *NotFoundError
	_, err = repo.UpdateStatus(ctx, 999, models.StatusConfirmed)
	assert.ErrorAs(t, err, &nf)
}

func TestGetCustomerNotFound(t *testing.T) {
	repo := NewOrderRepository(testDB(t))

	var nf *NotFoundError
	_, err := repo.GetCustomer(context.Background(), 123)
	assert.True(t, errors.As(err, &nf))
}
