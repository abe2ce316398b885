package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/repository"
)

// CartStore persists carts and their lines.
type CartStore struct {
	db *gorm.DB
}

func NewCartStore(db *gorm.DB) *CartStore {
	return &CartStore{db: db}
}

var _ repository.CartRepository = (*CartStore)(nil)

func (s *CartStore) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "price") }).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, translate(err)
	}
	return &cart, nil
}

func (s *CartStore) Mutate(ctx context.Context, userID uuid.UUID, create bool, fn func(cart *models.Cart) error) (*models.Cart, error) {
	var cart models.Cart

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if create {
			// Concurrent first adds race on the unique user_id index; the
			// loser simply locks the winner's row below.
			err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
				Create(&models.Cart{UserID: userID}).Error
			if err != nil {
				return err
			}
		}

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&cart).Error
		if err != nil {
			return translate(err)
		}

		if err := tx.Where("cart_id = ?", cart.ID).Order("position asc").Find(&cart.Items).Error; err != nil {
			return err
		}

		if err := fn(&cart); err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		for i := range cart.Items {
			cart.Items[i].CartID = cart.ID
		}
		if len(cart.Items) > 0 {
			if err := tx.Omit(clause.Associations).Create(&cart.Items).Error; err != nil {
				return err
			}
		}

		cart.UpdatedAt = time.Now()
		return tx.Model(&models.Cart{}).Where("id = ?", cart.ID).Updates(map[string]interface{}{
			"total_amount": cart.TotalAmount,
			"updated_at":   cart.UpdatedAt,
		}).Error
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &cart, nil
}
