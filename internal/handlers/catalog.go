package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/vitecommerce/internal/services"
)

// CatalogHandler manages product categories.
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "All categories", categories)
}

func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	category, err := h.catalog.GetCategory(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Detail category", category)
}

// CreateCategory accepts a multipart form with name and an optional image.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	image, err := formImage(c, "image")
	if err != nil {
		return err
	}

	category, err := h.catalog.CreateCategory(c.UserContext(), c.FormValue("name"), image)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Category created successfully", category)
}

func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	image, err := formImage(c, "image")
	if err != nil {
		return err
	}

	category, err := h.catalog.UpdateCategory(c.UserContext(), id, formString(c, "name"), image)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Category updated successfully", category)
}

func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Category deleted successfully", nil)
}
