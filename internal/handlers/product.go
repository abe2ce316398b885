package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/vitecommerce/internal/apperror"
	"github.com/example/vitecommerce/internal/services"
	"github.com/example/vitecommerce/internal/utils"
)

const defaultProductLimit = 10

// ProductHandler manages product CRUD.
type ProductHandler struct {
	catalog *services.CatalogService
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(catalog *services.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// ListProducts returns paginated products filtered by name and category.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c, defaultProductLimit)

	page, err := h.catalog.ListProducts(c.UserContext(), services.ProductQuery{
		Page:     pg.Page,
		Limit:    pg.Limit,
		Name:     c.Query("name"),
		Category: strings.TrimSpace(c.Query("category")),
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Products fetched successfully",
		"data":    page.Products,
		"pagination": fiber.Map{
			"totalProduct": page.Total,
			"totalPages":   page.TotalPages,
			"currentPage":  page.Page,
			"limit":        page.Limit,
		},
	})
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Product found", product)
}

// CreateProduct accepts a multipart form with up to five files under image
// and the variant types as JSON under type.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	in := services.ProductInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
	}

	var err error
	if v := c.FormValue("price"); v != "" {
		if in.Price, err = strconv.ParseFloat(v, 64); err != nil {
			return apperror.InvalidInput("price must be a number")
		}
	}
	if v := c.FormValue("stock"); v != "" {
		if in.Stock, err = strconv.Atoi(v); err != nil {
			return apperror.InvalidInput("stock must be a whole number")
		}
	}
	if in.VariantTypes, err = services.ParseVariantTypes([]byte(c.FormValue("type"))); err != nil {
		return err
	}

	images, err := formImages(c, "image")
	if err != nil {
		return err
	}

	product, err := h.catalog.CreateProduct(c.UserContext(), in, images)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Product successfully created", product)
}

// UpdateProduct applies the submitted fields; new images are appended.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	patch := services.ProductPatch{
		Name:        formString(c, "name"),
		Description: formString(c, "description"),
		Category:    formString(c, "category"),
	}
	if v := formString(c, "price"); v != nil {
		price, err := strconv.ParseFloat(*v, 64)
		if err != nil {
			return apperror.InvalidInput("price must be a number")
		}
		patch.Price = &price
	}
	if v := formString(c, "stock"); v != nil {
		stock, err := strconv.Atoi(*v)
		if err != nil {
			return apperror.InvalidInput("stock must be a whole number")
		}
		patch.Stock = &stock
	}
	if v := formString(c, "type"); v != nil {
		if patch.VariantTypes, err = services.ParseVariantTypes([]byte(*v)); err != nil {
			return err
		}
	}

	images, err := formImages(c, "image")
	if err != nil {
		return err
	}

	product, err := h.catalog.UpdateProduct(c.UserContext(), id, patch, images)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Product updated successfully", product)
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteProduct(c.UserContext(), id); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Product deleted successfully", nil)
}

// RegisterProductRoutes attaches product routes. Writes pass through guard.
func (h *ProductHandler) RegisterProductRoutes(router fiber.Router, guard ...fiber.Handler) {
	router.Get("/", h.ListProducts)
	router.Get("/:id", h.GetProduct)
	router.Post("/", append(guard, h.CreateProduct)...)
	router.Put("/:id", append(guard, h.UpdateProduct)...)
	router.Delete("/:id", append(guard, h.DeleteProduct)...)
}
