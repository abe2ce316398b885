package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/vitecommerce/internal/apperror"
	"github.com/example/vitecommerce/internal/services"
)

// AddressHandler exposes the current user's address book.
type AddressHandler struct {
	addresses *services.AddressService
}

func NewAddressHandler(addresses *services.AddressService) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

func (h *AddressHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req services.AddressInput
	if err := c.BodyParser(&req); err != nil {
		return apperror.InvalidInput("invalid request body")
	}

	address, err := h.addresses.Create(c.UserContext(), user.ID, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Address created successfully", address)
}

func (h *AddressHandler) ListMine(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	addresses, err := h.addresses.ListMine(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", addresses)
}

func (h *AddressHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "addressId")
	if err != nil {
		return err
	}

	var req services.AddressInput
	if err := c.BodyParser(&req); err != nil {
		return apperror.InvalidInput("invalid request body")
	}

	address, err := h.addresses.Update(c.UserContext(), user.ID, id, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Address updated successfully", address)
}

func (h *AddressHandler) SetDefault(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "addressId")
	if err != nil {
		return err
	}

	address, err := h.addresses.SetDefault(c.UserContext(), user.ID, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Default address set successfully", address)
}

func (h *AddressHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "addressId")
	if err != nil {
		return err
	}

	if err := h.addresses.Delete(c.UserContext(), user.ID, id); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Address deleted successfully", nil)
}

// ListAll returns every stored address. Admin only.
func (h *AddressHandler) ListAll(c *fiber.Ctx) error {
	addresses, err := h.addresses.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", addresses)
}
