package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/vitecommerce/internal/apperror"
	"github.com/example/vitecommerce/internal/services"
)

// CartHandler exposes the current user's cart.
type CartHandler struct {
	carts *services.CartService
}

func NewCartHandler(carts *services.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

func (r cartItemRequest) parse() (uuid.UUID, int, error) {
	if r.ProductID == "" || r.Quantity == nil {
		return uuid.Nil, 0, apperror.InvalidInput("Product ID and quantity are required")
	}
	id, err := uuid.Parse(r.ProductID)
	if err != nil {
		return uuid.Nil, 0, apperror.InvalidInput("Invalid productId")
	}
	return id, *r.Quantity, nil
}

// Upsert sets the quantity of a product in the cart.
func (h *CartHandler) Upsert(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req cartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.InvalidInput("invalid request body")
	}
	productID, quantity, err := req.parse()
	if err != nil {
		return err
	}

	cart, err := h.carts.UpsertItem(c.UserContext(), user.ID, productID, quantity)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", cart)
}

func (h *CartHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	cart, err := h.carts.GetCart(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", cart)
}

// UpdateItem changes the quantity of a line already in the cart.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req cartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.InvalidInput("invalid request body")
	}
	productID, quantity, err := req.parse()
	if err != nil {
		return err
	}

	cart, err := h.carts.UpdateItem(c.UserContext(), user.ID, productID, quantity)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", cart)
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	productID, err := paramID(c, "productId")
	if err != nil {
		return err
	}

	cart, err := h.carts.RemoveItem(c.UserContext(), user.ID, productID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", cart)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.carts.ClearCart(c.UserContext(), user.ID); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Cart cleared", nil)
}
