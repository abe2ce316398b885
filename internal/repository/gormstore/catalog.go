package gormstore

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/repository"
)

// CategoryStore persists categories.
type CategoryStore struct {
	db *gorm.DB
}

func NewCategoryStore(db *gorm.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

var _ repository.CategoryRepository = (*CategoryStore)(nil)

func (s *CategoryStore) Create(ctx context.Context, category *models.Category) error {
	return translate(s.db.WithContext(ctx).Create(category).Error)
}

func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).Order("name asc").Find(&categories).Error
	return categories, err
}

func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (s *CategoryStore) FindByName(ctx context.Context, name string, fuzzy bool) (*models.Category, error) {
	query := s.db.WithContext(ctx)
	if fuzzy {
		query = query.Where("name ILIKE ?", "%"+name+"%").Order("name asc")
	} else {
		query = query.Where("name = ?", name)
	}

	var category models.Category
	if err := query.First(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (s *CategoryStore) Save(ctx context.Context, category *models.Category) error {
	return translate(s.db.WithContext(ctx).Omit("Products").Save(category).Error)
}

func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ProductStore persists products.
type ProductStore struct {
	db *gorm.DB
}

func NewProductStore(db *gorm.DB) *ProductStore {
	return &ProductStore{db: db}
}

var _ repository.ProductRepository = (*ProductStore)(nil)

func (s *ProductStore) Create(ctx context.Context, product *models.Product) error {
	return translate(s.db.WithContext(ctx).Omit("Category").Create(product).Error)
}

func (s *ProductStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Preload("Category", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (s *ProductStore) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})
	if filter.Name != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	if err := query.
		Preload("Category", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("created_at desc").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *ProductStore) Save(ctx context.Context, product *models.Product) error {
	return translate(s.db.WithContext(ctx).Omit("Category").Save(product).Error)
}

func (s *ProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cartIDs []uuid.UUID
		if err := tx.Model(&models.CartItem{}).Where("product_id = ?", id).
			Distinct().Pluck("cart_id", &cartIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		// Carts that held the product must keep total = sum of remaining lines.
		if len(cartIDs) > 0 {
			if err := tx.Exec(`UPDATE carts SET total_amount = COALESCE(
				(SELECT SUM(total_price) FROM cart_items WHERE cart_items.cart_id = carts.id), 0),
				updated_at = NOW() WHERE id IN ?`, cartIDs).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}
