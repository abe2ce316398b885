package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/example/vitecommerce/internal/apperror"
	"github.com/example/vitecommerce/internal/logging"
	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/repository"
	"github.com/example/vitecommerce/internal/storage"
	"github.com/example/vitecommerce/internal/validation"
)

const (
	maxProductImages    = 5
	defaultProductLimit = 10
)

// Upload is an image received with a request.
type Upload struct {
	Filename string
	Data     []byte
}

// CatalogService manages categories and products together with their
// images in object storage.
type CatalogService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	images     storage.Store
}

func NewCatalogService(categories repository.CategoryRepository, products repository.ProductRepository, images storage.Store) *CatalogService {
	return &CatalogService{categories: categories, products: products, images: images}
}

// CreateCategory stores a category. The image, if any, is uploaded first
// and removed again when the record cannot be written.
func (s *CatalogService) CreateCategory(ctx context.Context, name string, image *Upload) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.InvalidInput("Category name is required")
	}
	if err := s.ensureCategoryNameFree(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name}
	if image != nil {
		url, err := s.upload(ctx, "categories", *image)
		if err != nil {
			return nil, err
		}
		category.Image = url
	}

	if err := s.categories.Create(ctx, category); err != nil {
		s.discard(ctx, category.Image)
		return nil, duplicateAs(err, "Category name is already taken")
	}
	return category, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, storeError(err, "Category not found")
	}
	return categories, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Category not found")
	}
	return category, nil
}

// UpdateCategory renames the category and/or replaces its image. The old
// image is deleted only after the new one is stored.
func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name *string, image *Upload) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Category not found")
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperror.InvalidInput("Category name is required")
		}
		if trimmed != category.Name {
			if err := s.ensureCategoryNameFree(ctx, trimmed, id); err != nil {
				return nil, err
			}
		}
		category.Name = trimmed
	}

	oldImage := category.Image
	if image != nil {
		url, err := s.upload(ctx, "categories", *image)
		if err != nil {
			return nil, err
		}
		category.Image = url
	}

	if err := s.categories.Save(ctx, category); err != nil {
		if category.Image != oldImage {
			s.discard(ctx, category.Image)
		}
		return nil, duplicateAs(err, "Category name is already taken")
	}

	if category.Image != oldImage {
		s.discard(ctx, oldImage)
	}
	return category, nil
}

// DeleteCategory removes an unused category and its image.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "Category not found")
	}

	_, inUse, err := s.products.List(ctx, repository.ProductFilter{CategoryID: &id, Limit: 1})
	if err != nil {
		return storeError(err, "Category not found")
	}
	if inUse > 0 {
		return apperror.Conflict("Category still has products")
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return storeError(err, "Category not found")
	}
	s.discard(ctx, category.Image)
	return nil
}

// ProductInput is the payload of a product creation.
type ProductInput struct {
	Name         string  `form:"name" validate:"required,max=200"`
	Description  string  `form:"description" validate:"required"`
	Price        float64 `form:"price" validate:"gt=0"`
	Stock        int     `form:"stock" validate:"gte=0"`
	Category     string  `form:"category" validate:"required"`
	VariantTypes models.VariantTypes
}

// ProductPatch carries a partial product update; nil fields are unchanged.
type ProductPatch struct {
	Name         *string
	Description  *string
	Price        *float64
	Stock        *int
	Category     *string
	VariantTypes models.VariantTypes
}

func (p ProductPatch) empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Stock == nil && p.Category == nil && p.VariantTypes == nil
}

// ProductQuery holds the list filters of a product listing.
type ProductQuery struct {
	Page     int
	Limit    int
	Name     string
	Category string
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products   []models.Product `json:"products"`
	Total      int64            `json:"totalProduct"`
	TotalPages int              `json:"totalPages"`
	Page       int              `json:"currentPage"`
	Limit      int              `json:"limit"`
}

// CreateProduct stores a product with between one and five images.
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput, images []Upload) (*models.Product, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, apperror.InvalidInput("Product image is required")
	}
	if len(images) > maxProductImages {
		return nil, apperror.InvalidInput(fmt.Sprintf("A product can have at most %d images", maxProductImages))
	}

	variants, err := in.VariantTypes.Normalize()
	if err != nil {
		return nil, apperror.InvalidInput(err.Error())
	}

	category, err := s.resolveCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}

	urls, err := s.uploadAll(ctx, images)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Price:        in.Price,
		Stock:        in.Stock,
		Images:       urls,
		CategoryID:   category.ID,
		VariantTypes: variants,
	}
	if err := s.products.Create(ctx, product); err != nil {
		s.discard(ctx, urls...)
		return nil, duplicateAs(err, "Product name is already taken")
	}

	product.Category = &models.Category{BaseModel: category.BaseModel, Name: category.Name}
	return product, nil
}

// ListProducts returns one page of products. Requesting a page past the
// last one is NotFound.
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultProductLimit
	}

	filter := repository.ProductFilter{
		Name:   strings.TrimSpace(q.Name),
		Offset: (q.Page - 1) * q.Limit,
		Limit:  q.Limit,
	}

	if q.Category != "" {
		if id, err := uuid.Parse(q.Category); err == nil {
			filter.CategoryID = &id
		} else {
			category, err := s.categories.FindByName(ctx, q.Category, true)
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperror.NotFound(fmt.Sprintf("Category with name '%s' not found.", q.Category))
			}
			if err != nil {
				return nil, storeError(err, "Category not found")
			}
			filter.CategoryID = &category.ID
		}
	}

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "No products found")
	}

	page := &ProductPage{Products: products, Total: total, Page: q.Page, Limit: q.Limit}
	page.TotalPages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	if q.Page > page.TotalPages {
		return nil, apperror.NotFound("This page does not exist.")
	}
	return page, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Product not found")
	}
	return product, nil
}

// UpdateProduct applies a partial update. New images are appended and
// variant types are merged by key.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch, images []Upload) (*models.Product, error) {
	if patch.empty() && len(images) == 0 {
		return nil, apperror.InvalidInput("At least one field (name, description, price, stock, type, category or image) must be provided to update")
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Product not found")
	}

	if len(product.Images)+len(images) > maxProductImages {
		return nil, apperror.InvalidInput(fmt.Sprintf("A product can have at most %d images", maxProductImages))
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperror.InvalidInput("Product name is required")
		}
		product.Name = name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		if *patch.Price <= 0 {
			return nil, apperror.InvalidInput("Price must be greater than 0")
		}
		product.Price = *patch.Price
	}
	if patch.Stock != nil {
		if *patch.Stock < 0 {
			return nil, apperror.InvalidInput("Stock must not be negative")
		}
		product.Stock = *patch.Stock
	}
	if patch.Category != nil {
		category, err := s.resolveCategory(ctx, *patch.Category)
		if err != nil {
			return nil, err
		}
		product.CategoryID = category.ID
		product.Category = &models.Category{BaseModel: category.BaseModel, Name: category.Name}
	}
	if patch.VariantTypes != nil {
		variants, err := patch.VariantTypes.Normalize()
		if err != nil {
			return nil, apperror.InvalidInput(err.Error())
		}
		product.VariantTypes = product.VariantTypes.Merge(variants)
	}

	urls, err := s.uploadAll(ctx, images)
	if err != nil {
		return nil, err
	}
	product.Images = append(product.Images, urls...)

	if err := s.products.Save(ctx, product); err != nil {
		s.discard(ctx, urls...)
		return nil, duplicateAs(err, "Product name is already taken")
	}
	return product, nil
}

// DeleteProduct removes the product, its cart lines and its images.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "Product not found")
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return storeError(err, "Product not found")
	}
	s.discard(ctx, product.Images...)
	return nil
}

// ParseVariantTypes accepts a JSON array of variant types, a single object,
// or either of those encoded as a JSON string.
func ParseVariantTypes(raw []byte) (models.VariantTypes, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	var out models.VariantTypes
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, invalidVariantFormat(err)
		}
	case '{':
		var single models.VariantType
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, invalidVariantFormat(err)
		}
		out = models.VariantTypes{single}
	case '"':
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, invalidVariantFormat(err)
		}
		return ParseVariantTypes([]byte(inner))
	default:
		return nil, invalidVariantFormat(errors.New("expected JSON string, object, or array"))
	}

	normalized, err := out.Normalize()
	if err != nil {
		return nil, apperror.InvalidInput(err.Error())
	}
	return normalized, nil
}

func invalidVariantFormat(err error) error {
	return apperror.InvalidInput("Failed to parse type. Ensure it is a valid JSON string, object, or array. Error: " + err.Error())
}

// resolveCategory finds a category by ID or exact name.
func (s *CatalogService) resolveCategory(ctx context.Context, ref string) (*models.Category, error) {
	ref = strings.TrimSpace(ref)
	var (
		category *models.Category
		err      error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		category, err = s.categories.FindByID(ctx, id)
	} else {
		category, err = s.categories.FindByName(ctx, ref, false)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.InvalidInput("Category not found")
	}
	if err != nil {
		return nil, storeError(err, "Category not found")
	}
	return category, nil
}

func (s *CatalogService) ensureCategoryNameFree(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.categories.FindByName(ctx, name, false)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return storeError(err, "Category not found")
	case existing.ID != self:
		return apperror.Conflict("Category name is already taken")
	}
	return nil
}

func (s *CatalogService) upload(ctx context.Context, folder string, image Upload) (string, error) {
	if image.Filename != "" && !storage.AllowedExtension(image.Filename) {
		return "", apperror.InvalidInput(storage.ErrUnsupportedType.Error())
	}
	url, err := s.images.Upload(ctx, folder, uuid.NewString(), image.Data)
	if errors.Is(err, storage.ErrUnsupportedType) {
		return "", apperror.InvalidInput(err.Error())
	}
	if err != nil {
		return "", apperror.Internal("Failed to upload image", err)
	}
	return url, nil
}

// uploadAll stores every image or none of them.
func (s *CatalogService) uploadAll(ctx context.Context, images []Upload) ([]string, error) {
	urls := make([]string, 0, len(images))
	for _, image := range images {
		url, err := s.upload(ctx, "products", image)
		if err != nil {
			s.discard(ctx, urls...)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// discard deletes stored images, logging failures.
func (s *CatalogService) discard(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.images.Delete(ctx, url); err != nil {
			logging.Warn().Err(err).Str("url", url).Msg("failed to delete image")
		}
	}
}

func duplicateAs(err error, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperror.Wrap(apperror.KindConflict, message, err)
	}
	return storeError(err, message)
}
