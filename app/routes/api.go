// Package routes declares the HTTP surface: public health and login,
// JWT-protected admin endpoints, the metrics scrape, and the live order
// feed websocket.
package routes

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/dulceria/app/controllers"
	"github.com/shashiranjanraj/dulceria/pkg/metrics"
	"github.com/shashiranjanraj/dulceria/pkg/middleware"
	"github.com/shashiranjanraj/dulceria/pkg/reqid"
	"github.com/shashiranjanraj/dulceria/pkg/response"
	"github.com/shashiranjanraj/dulceria/pkg/router"
	"github.com/shashiranjanraj/dulceria/pkg/ws"
)

// Controllers groups everything Register needs.
type Controllers struct {
	Auth     *controllers.AuthController
	Products *controllers.ProductController
	Orders   *controllers.OrderController
	GraphQL  *controllers.GraphQLController
	OrderHub *ws.Hub
}

// Register mounts all routes on r.
func Register(r *router.Router, c Controllers) {
	r.Use(middleware.Recovery, reqid.Middleware(), middleware.Logger, metrics.Middleware())
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))

	r.Get("/health", "health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", "metrics", metrics.Handler())

	api := r.Group("/api")

	// Login is rate limited; everything else in the admin group carries a
	// valid token already.
	api.Post("/auth/login", "auth.login", c.Auth.Login, middleware.RateLimit(20, time.Minute))
	api.Post("/auth/refresh", "auth.refresh", c.Auth.Refresh, middleware.RateLimit(30, time.Minute))

	admin := api.Group("/admin", middleware.Auth)
	admin.Get("/me", "admin.me", c.Auth.Me)

	admin.Get("/products", "products.index", c.Products.Index)
	admin.Post("/products", "products.store", c.Products.Store)
	admin.Get("/products/{id}", "products.show", c.Products.Show)
	admin.Put("/products/{id}", "products.update", c.Products.Update)
	admin.Delete("/products/{id}", "products.destroy", c.Products.Destroy)
	admin.Post("/products/{id}/image", "products.image", c.Products.UploadImage)

	admin.Get("/orders", "orders.index", c.Orders.Index)
	admin.Get("/orders/{id}", "orders.show", c.Orders.Show)
	admin.Put("/orders/{id}/status", "orders.status", c.Orders.UpdateStatus)
	admin.Get("/customers/{id}", "customers.show", c.Orders.Customer)

	admin.Post("/graphql", "admin.graphql", c.GraphQL.Query)

	// Live order feed: new orders and status changes are pushed as JSON.
	admin.Handle("/orders/feed", "orders.feed", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.Upgrade(w, r, c.OrderHub)
	}))
}
