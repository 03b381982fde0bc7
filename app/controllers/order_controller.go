package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/app/repositories"
	"github.com/shashiranjanraj/dulceria/app/services"
	"github.com/shashiranjanraj/dulceria/pkg/response"
)

type OrderController struct {
	orders    *services.OrderService
	customers *repositories.OrderRepository
}

func NewOrderController(orders *services.OrderService, repo *repositories.OrderRepository) *OrderController {
	return &OrderController{orders: orders, customers: repo}
}

// Index returns a page of orders, optionally filtered by ?status=.
func (c *OrderController) Index(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	var status models.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			response.ValidationError(w, map[string]string{"status": "unknown status"})
			return
		}
		status = parsed
	}

	orders, p, err := c.orders.List(r.Context(), page, perPage, status)
	if err != nil {
		writeRepoError(w, r, err, "could not list orders")
		return
	}
	response.Paginated(w, orders, p)
}

// Show returns one order with its items.
func (c *OrderController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := c.orders.Get(r.Context(), id)
	if err != nil {
		writeRepoError(w, r, err, "could not load order")
		return
	}
	response.Success(w, order)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves an order along its lifecycle. Illegal transitions
// come back as 422 with the allowed reason in the message.
func (c *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	next, err := models.ParseStatus(req.Status)
	if err != nil {
		response.ValidationError(w, map[string]string{"status": "unknown status"})
		return
	}

	order, err := c.orders.UpdateStatus(r.Context(), id, next)
	if errors.Is(err, models.ErrInvalidTransition) {
		response.ValidationError(w, map[string]string{"status": err.Error()})
		return
	}
	if err != nil {
		writeRepoError(w, r, err, "could not update order status")
		return
	}
	response.Success(w, order)
}

// Customer returns the aggregate for one Telegram customer.
func (c *OrderController) Customer(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := c.customers.GetCustomer(r.Context(), userID)
	if err != nil {
		writeRepoError(w, r, err, "could not load customer")
		return
	}
	response.Success(w, customer)
}
