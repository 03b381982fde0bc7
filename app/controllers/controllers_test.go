package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashiranjanraj/dulceria/app/controllers"
	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/app/repositories"
	"github.com/shashiranjanraj/dulceria/app/routes"
	"github.com/shashiranjanraj/dulceria/app/services"
	"github.com/shashiranjanraj/dulceria/pkg/auth"
	"github.com/shashiranjanraj/dulceria/pkg/event"
	"github.com/shashiranjanraj/dulceria/pkg/router"
	"github.com/shashiranjanraj/dulceria/pkg/ws"
)

type apiFixture struct {
	handler http.Handler
	db      *gorm.DB
	token   string
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()
	event.Flush()
	t.Cleanup(event.Flush)

	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.Order{}, &models.OrderItem{},
		&models.Customer{}, &models.Admin{},
	))

	hash, err := auth.HashPassword("super-secreto")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Admin{
		Name: "Admin", Email: "admin@lavinadulce.ec", Password: hash,
	}).Error)

	productRepo := repositories.NewProductRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	adminRepo := repositories.NewAdminRepository(db)
	cart := services.NewCartService(productRepo)
	orderSvc := services.NewOrderService(cart, orderRepo)

	graphqlCtl, err := controllers.NewGraphQLController(productRepo, orderSvc)
	require.NoError(t, err)

	r := router.New()
	routes.Register(r, routes.Controllers{
		Auth:     controllers.NewAuthController(adminRepo),
		Products: controllers.NewProductController(productRepo),
		Orders:   controllers.NewOrderController(orderSvc, orderRepo),
		GraphQL:  graphqlCtl,
		OrderHub: ws.NewHub(),
	})

	f := &apiFixture{handler: r.Handler(), db: db}
	f.token = f.login(t, "admin@lavinadulce.ec", "super-secreto")
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Token)
	return body.Data.Token
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "admin@lavinadulce.ec", "password": "contraseña-mala",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "admin@lavinadulce.ec", "password": "corta",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(t, http.MethodGet, "/api/admin/products", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/admin/me", nil, f.token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProductCRUD(t *testing.T) {
	f := setupAPI(t)

	create := map[string]interface{}{
		"code":              "torta-choco",
		"name":              "Torta de Chocolate",
		"price":             "28.00",
		"category":          "Tortas",
		"preparation_hours": 48,
	}
	rec := f.do(t, http.MethodPost, "/api/admin/products", create, f.token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data models.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.Data.ID
	require.NotZero(t, id)

	// Validation failures come back field-keyed.
	rec = f.do(t, http.MethodPost, "/api/admin/products", map[string]interface{}{
		"code": "x y", "name": "ab", "price": "mucho", "category": "",
	}, f.token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	create["name"] = "Torta de Chocolate Premium"
	create["price"] = "34.00"
	rec = f.do(t, http.MethodPut, fmt.Sprintf("/api/admin/products/%d", id), create, f.token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/admin/products/%d", id), nil, f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Premium")

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/products/%d", id), nil, f.token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/admin/products/%d", id), nil, f.token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderStatusEndpoint(t *testing.T) {
	f := setupAPI(t)

	order := models.Order{
		UserID: 10, Username: "maria",
		Total:        decimal.RequireFromString("28.00"),
		Status:       models.StatusPending,
		DeliveryType: models.DeliveryPickup,
	}
	require.NoError(t, f.db.Create(&order).Error)

	path := fmt.Sprintf("/api/admin/orders/%d/status", order.ID)

	rec := f.do(t, http.MethodPut, path, map[string]string{"status": "confirmed"}, f.token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"confirmed"`)

	// Illegal jump is a validation error, not a 500.
	rec = f.do(t, http.MethodPut, path, map[string]string{"status": "delivered"}, f.token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPut, path, map[string]string{"status": "shipped"}, f.token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGraphQLQuery(t *testing.T) {
	f := setupAPI(t)

	require.NoError(t, f.db.Create(&models.Product{
		Code: "pie-limon", Name: "Pie de Limón",
		Price: decimal.RequireFromString("18.00"), Category: "Postres",
		PreparationHours: 24, Available: true,
	}).Error)

	rec := f.do(t, http.MethodPost, "/api/admin/graphql", map[string]string{
		"query": `{ products { name price } categories }`,
	}, f.token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Pie de Limón")
	assert.Contains(t, rec.Body.String(), "18.00")
}

func TestHealthEndpoint(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
