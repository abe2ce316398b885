package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/vitecommerce/internal/services"
	"github.com/example/vitecommerce/internal/utils"
)

// UserHandler manages user profile endpoints.
type UserHandler struct {
	users        *services.UserService
	secureCookie bool
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *services.UserService, secureCookie bool) *UserHandler {
	return &UserHandler{users: users, secureCookie: secureCookie}
}

// ListUsers returns every user, paginated. Admin only.
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c, 20)

	users, total, err := h.users.List(c.UserContext(), pg.Offset, pg.Limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "All users",
		"data":    users,
		"pagination": fiber.Map{
			"total":       total,
			"totalPages":  pg.TotalPages(total),
			"currentPage": pg.Page,
			"limit":       pg.Limit,
		},
	})
}

// UpdateProfile updates the current user's contact details and image.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	in := services.ProfileInput{
		Username: formString(c, "username"),
		Email:    formString(c, "email"),
		Phone:    formString(c, "phone"),
	}
	image, err := formImage(c, "image")
	if err != nil {
		return err
	}

	updated, err := h.users.UpdateProfile(c.UserContext(), user.ID, in, image)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "User updated successfully", updated)
}

// DeleteAccount removes the current user and ends the session.
func (h *UserHandler) DeleteAccount(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), user.ID); err != nil {
		return err
	}

	clearSessionCookies(c, h.secureCookie)
	return respond(c, fiber.StatusOK, "User deleted successfully", nil)
}
