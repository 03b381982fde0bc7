package services

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/shashiranjanraj/dulceria/app/models"
)

// CheckoutState is one step of the guided checkout conversation.
type CheckoutState string

const (
	StateIdle         CheckoutState = "idle"
	StateDeliveryType CheckoutState = "awaiting_delivery_type"
	StateAddress      CheckoutState = "awaiting_address"
	StatePhone        CheckoutState = "awaiting_phone"
	StateNotes        CheckoutState = "awaiting_notes"
	StateConfirmation CheckoutState = "awaiting_confirmation"
)

// CheckoutData is everything collected during a checkout conversation.
type CheckoutData struct {
	DeliveryType string
	Address      string
	Phone        string
	Notes        string
}

// checkoutSession is the per-user conversation state.
type checkoutSession struct {
	state CheckoutState
	data  CheckoutData
}

// OrderPlacer converts a cart plus checkout data into a persisted order.
// Implemented by OrderService.
type OrderPlacer interface {
	Place(ctx context.Context, userID int64, username string, data CheckoutData) (models.Order, error)
}

var phonePattern = regexp.MustCompile(`^\+?[\d\s()\-]{7,20}$`)

// CheckoutService drives the multi-turn checkout state machine. Sessions
// are in-memory only; a restart drops in-progress checkouts but never
// orders, which are created atomically at the confirmation step.
type CheckoutService struct {
	cart   *CartService
	orders OrderPlacer

	mu       sync.Mutex
	sessions map[int64]*checkoutSession
	locks    map[int64]*sync.Mutex
}

func NewCheckoutService(cart *CartService, orders OrderPlacer) *CheckoutService {
	return &CheckoutService{
		cart:     cart,
		orders:   orders,
		sessions: make(map[int64]*checkoutSession),
		locks:    make(map[int64]*sync.Mutex),
	}
}

func (s *CheckoutService) lockFor(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

func (s *CheckoutService) session(userID int64) *checkoutSession {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &checkoutSession{state: StateIdle}
		s.sessions[userID] = sess
	}
	return sess
}

// State returns the user's current checkout step.
func (s *CheckoutService) State(userID int64) CheckoutState {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	return s.session(userID).state
}

// Data returns a copy of what the checkout has collected so far.
func (s *CheckoutService) Data(userID int64) CheckoutData {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	return s.session(userID).data
}

// Start begins a checkout. The cart must not be empty; an in-progress
// checkout is restarted from the first question.
func (s *CheckoutService) Start(userID int64) error {
	if s.cart.IsEmpty(userID) {
		return validationErr("cart", "tu carrito está vacío")
	}

	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	sess := s.session(userID)
	sess.state = StateDeliveryType
	sess.data = CheckoutData{}
	return nil
}

// SetDeliveryType answers the first question. Pickup orders skip the
// address question and get the fixed store address.
func (s *CheckoutService) SetDeliveryType(userID int64, deliveryType string) error {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	sess := s.session(userID)
	if sess.state != StateDeliveryType {
		return validationErr("state", "no hay un pedido en curso")
	}

	switch deliveryType {
	case models.DeliveryPickup:
		sess.data.DeliveryType = models.DeliveryPickup
		sess.data.Address = models.PickupAddress
		sess.state = StatePhone
	case models.DeliveryDelivery:
		sess.data.DeliveryType = models.DeliveryDelivery
		sess.state = StateAddress
	default:
		return validationErr("delivery_type", "tipo de entrega desconocido")
	}
	return nil
}

// SubmitText feeds one free-text answer into the state machine and
// returns the next state. Only the Awaiting* text states accept input.
func (s *CheckoutService) SubmitText(userID int64, text string) (CheckoutState, error) {
	text = strings.TrimSpace(text)

	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	sess := s.session(userID)

	switch sess.state {
	case StateAddress:
		if len([]rune(text)) < 5 {
			return sess.state, validationErr("address", "la dirección es demasiado corta")
		}
		sess.data.Address = text
		sess.state = StatePhone

	case StatePhone:
		if !phonePattern.MatchString(text) {
			return sess.state, validationErr("phone", "el número de teléfono no es válido")
		}
		sess.data.Phone = text
		sess.state = StateNotes

	case StateNotes:
		// "-" means no notes, matching the prompt the bot sends.
		if text == "-" {
			text = ""
		}
		sess.data.Notes = text
		sess.state = StateConfirmation

	default:
		return sess.state, validationErr("state", "no estoy esperando una respuesta")
	}

	return sess.state, nil
}

// Confirm places the order. On success the session resets to idle and the
// cart is cleared (by OrderService). On failure the session stays at the
// confirmation step so the user can retry.
func (s *CheckoutService) Confirm(ctx context.Context, userID int64, username string) (models.Order, error) {
	lock := s.lockFor(userID)
	lock.Lock()
	if s.session(userID).state != StateConfirmation {
		lock.Unlock()
		return models.Order{}, validationErr("state", "no hay un pedido listo para confirmar")
	}
	data := s.session(userID).data
	lock.Unlock()

	// Order creation does I/O; never hold the session lock across it.
	order, err := s.orders.Place(ctx, userID, username, data)
	if err != nil {
		return models.Order{}, err
	}

	lock.Lock()
	sess := s.session(userID)
	sess.state = StateIdle
	sess.data = CheckoutData{}
	lock.Unlock()

	return order, nil
}

// Cancel aborts the checkout and returns to idle. The cart is preserved:
// cancelling the questions is not the same as emptying the cart.
func (s *CheckoutService) Cancel(userID int64) {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	sess := s.session(userID)
	sess.state = StateIdle
	sess.data = CheckoutData{}
}

// InProgress reports whether the user is anywhere in the checkout flow.
func (s *CheckoutService) InProgress(userID int64) bool {
	return s.State(userID) != StateIdle
}

// AwaitingText reports whether the current state consumes free text.
func (s *CheckoutService) AwaitingText(userID int64) bool {
	switch s.State(userID) {
	case StateAddress, StatePhone, StateNotes:
		return true
	}
	return false
}
