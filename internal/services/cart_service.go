package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/example/vitecommerce/internal/apperror"
	"github.com/example/vitecommerce/internal/logging"
	"github.com/example/vitecommerce/internal/metrics"
	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/repository"
)

var errLineNotFound = errors.New("line not found")

// CartService maintains one cart per user. Quantities always replace the
// stored quantity; a quantity of zero removes the line.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

// UpsertItem sets the quantity of productID in the user's cart, creating the
// cart on first use.
func (s *CartService) UpsertItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, apperror.InvalidInput("Quantity must not be negative")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, storeError(err, "Product not found")
	}

	cart, err := s.carts.Mutate(ctx, userID, true, func(cart *models.Cart) error {
		cart.SetQuantity(product.ID, quantity, product.Price)
		return nil
	})
	if err != nil {
		return nil, storeError(err, "Cart not found")
	}

	s.record("upsert", userID, cart)
	return cart, nil
}

// UpdateItem changes the quantity of a line that is already in the cart.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, apperror.InvalidInput("Quantity must not be negative")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, storeError(err, "Product not found")
	}

	cart, err := s.carts.Mutate(ctx, userID, false, func(cart *models.Cart) error {
		if cart.Line(product.ID) < 0 {
			return errLineNotFound
		}
		cart.SetQuantity(product.ID, quantity, product.Price)
		return nil
	})
	if errors.Is(err, errLineNotFound) {
		return nil, apperror.NotFound("Item not found in cart")
	}
	if err != nil {
		return nil, storeError(err, "Cart not found")
	}

	s.record("update", userID, cart)
	return cart, nil
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "Cart not found")
	}
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error) {
	cart, err := s.carts.Mutate(ctx, userID, false, func(cart *models.Cart) error {
		if !cart.RemoveLine(productID) {
			return errLineNotFound
		}
		return nil
	})
	if errors.Is(err, errLineNotFound) {
		return nil, apperror.NotFound("Item not found in cart")
	}
	if err != nil {
		return nil, storeError(err, "Cart not found")
	}

	s.record("remove", userID, cart)
	return cart, nil
}

func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.carts.Mutate(ctx, userID, false, func(cart *models.Cart) error {
		cart.Clear()
		return nil
	})
	if err != nil {
		return storeError(err, "Cart not found")
	}

	s.record("clear", userID, cart)
	return nil
}

func (s *CartService) record(op string, userID uuid.UUID, cart *models.Cart) {
	metrics.CartMutations.WithLabelValues(op).Inc()
	logging.Debug().
		Str("operation", op).
		Str("user_id", userID.String()).
		Int("lines", len(cart.Items)).
		Float64("total", cart.TotalAmount).
		Msg("cart updated")
}
