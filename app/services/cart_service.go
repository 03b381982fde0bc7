package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/app/repositories"
	"github.com/shashiranjanraj/dulceria/pkg/metrics"
)

// Catalog is the read-only product view the cart validates against.
// Implemented by repositories.ProductRepository.
type Catalog interface {
	GetByID(ctx context.Context, id uint) (models.Product, error)
}

// CartLine is one product line in a user's cart.
type CartLine struct {
	ProductID uint
	Quantity  int
}

// CartItem is a resolved cart line with current catalogue data.
type CartItem struct {
	Product  models.Product
	Quantity int
	Subtotal decimal.Decimal
}

// CartSummary is the rendered view of a cart.
type CartSummary struct {
	Items []CartItem
	Total decimal.Decimal
}

// Empty reports whether the summary has no lines.
func (s CartSummary) Empty() bool { return len(s.Items) == 0 }

// CartService keeps per-user in-memory carts. Carts do not survive a
// restart; only confirmed orders are persisted.
//
// Concurrency: every operation takes the user's keyed lock, so two updates
// for the same user can never interleave even if the caller isn't the
// serialized bot dispatcher. Catalogue reads happen outside the lock.
type CartService struct {
	catalog Catalog

	mu    sync.Mutex
	carts map[int64][]CartLine
	locks map[int64]*sync.Mutex
}

func NewCartService(catalog Catalog) *CartService {
	return &CartService{
		catalog: catalog,
		carts:   make(map[int64][]CartLine),
		locks:   make(map[int64]*sync.Mutex),
	}
}

// lockFor returns the mutex dedicated to userID, creating it on first use.
func (s *CartService) lockFor(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// Add puts quantity units of productID into the user's cart. Adding a
// product already in the cart increases its quantity.
func (s *CartService) Add(ctx context.Context, userID int64, productID uint, quantity int) error {
	if quantity < 1 {
		return validationErr("quantity", "la cantidad debe ser al menos 1")
	}

	product, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		// Only a genuine miss means the product doesn't exist; an
		// infrastructure failure stays retryable for the caller.
		var nf *repositories.NotFoundError
		if errors.As(err, &nf) {
			return validationErr("product", "el producto no existe")
		}
		return fmt.Errorf("cart: lookup product %d: %w", productID, err)
	}
	if !product.Available {
		return validationErr("product", "%s no está disponible por el momento", product.Name)
	}

	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity += quantity
			metrics.CartOps.WithLabelValues("add").Inc()
			return nil
		}
	}
	s.carts[userID] = append(lines, CartLine{ProductID: productID, Quantity: quantity})
	metrics.CartOps.WithLabelValues("add").Inc()
	return nil
}

// Remove deletes the product line from the cart. Removing a product that
// is not in the cart succeeds without doing anything.
func (s *CartService) Remove(userID int64, productID uint) error {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	s.removeLocked(userID, productID)
	return nil
}

func (s *CartService) removeLocked(userID int64, productID uint) {
	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			s.carts[userID] = append(lines[:i], lines[i+1:]...)
			metrics.CartOps.WithLabelValues("remove").Inc()
			return
		}
	}
}

// SetQuantity sets the line quantity. A quantity of zero or less removes
// the line, which succeeds even when the line is absent.
func (s *CartService) SetQuantity(userID int64, productID uint, quantity int) error {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	if quantity <= 0 {
		s.removeLocked(userID, productID)
		return nil
	}

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity = quantity
			metrics.CartOps.WithLabelValues("set_quantity").Inc()
			return nil
		}
	}
	return validationErr("product", "el producto no está en tu carrito")
}

// AdjustQuantity changes the line quantity by delta (the ± buttons on the
// cart keyboard). Dropping to zero removes the line. Unlike Remove, a
// missing line is an error here: a ± press always targets a rendered line,
// so absence means the user is tapping a stale cart message.
func (s *CartService) AdjustQuantity(userID int64, productID uint, delta int) error {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			next := lines[i].Quantity + delta
			if next <= 0 {
				s.removeLocked(userID, productID)
				return nil
			}
			lines[i].Quantity = next
			metrics.CartOps.WithLabelValues("set_quantity").Inc()
			return nil
		}
	}
	return validationErr("product", "el producto no está en tu carrito")
}

// Clear empties the user's cart.
func (s *CartService) Clear(userID int64) {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	delete(s.carts, userID)
	metrics.CartOps.WithLabelValues("clear").Inc()
}

// Lines returns a copy of the raw cart lines.
func (s *CartService) Lines(userID int64) []CartLine {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	lines := s.carts[userID]
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}

// IsEmpty reports whether the user's cart has no lines.
func (s *CartService) IsEmpty(userID int64) bool {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	return len(s.carts[userID]) == 0
}

// Summary resolves the cart against the catalogue and computes exact
// subtotals and the total. Lines whose product has vanished from the
// catalogue are skipped rather than failing the whole summary.
func (s *CartService) Summary(ctx context.Context, userID int64) (CartSummary, error) {
	lines := s.Lines(userID) // copy; catalogue lookups happen unlocked

	summary := CartSummary{Total: decimal.Zero}
	for _, line := range lines {
		product, err := s.catalog.GetByID(ctx, line.ProductID)
		if err != nil {
			continue
		}

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		summary.Items = append(summary.Items, CartItem{
			Product:  product,
			Quantity: line.Quantity,
			Subtotal: subtotal,
		})
		summary.Total = summary.Total.Add(subtotal)
	}
	return summary, nil
}
