package gormstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/repository"
)

// UserStore persists users.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

var _ repository.UserRepository = (*UserStore)(nil)

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error
	return total, err
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *UserStore) FindByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return s.first(ctx, "refresh_token = ?", token)
}

func (s *UserStore) first(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *UserStore) FindConflict(ctx context.Context, username, email, phone string, exclude uuid.UUID) (string, error) {
	checks := []struct {
		column string
		value  string
	}{
		{"username", username},
		{"email", email},
		{"phone", phone},
	}

	for _, check := range checks {
		if check.value == "" {
			continue
		}
		var count int64
		err := s.db.WithContext(ctx).Model(&models.User{}).
			Where(check.column+" = ? AND id <> ?", check.value, exclude).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count > 0 {
			return check.column, nil
		}
	}
	return "", nil
}

func (s *UserStore) SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	var value interface{}
	if token != nil {
		value = *token
	}
	return s.update(ctx, id, map[string]interface{}{"refresh_token": value})
}

func (s *UserStore) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.update(ctx, id, map[string]interface{}{
		"is_verified":       true,
		"email_verified_at": at,
	})
}

func (s *UserStore) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return s.update(ctx, id, map[string]interface{}{"password_hash": hash})
}

func (s *UserStore) Update(ctx context.Context, id uuid.UUID, update repository.UserUpdate) error {
	updates := map[string]interface{}{}
	if update.Username != nil {
		updates["username"] = *update.Username
	}
	if update.Email != nil {
		updates["email"] = *update.Email
	}
	if update.Phone != nil {
		updates["phone"] = *update.Phone
	}
	if update.Image != nil {
		updates["image"] = *update.Image
	}
	if len(updates) == 0 {
		return nil
	}
	return s.update(ctx, id, updates)
}

func (s *UserStore) update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *UserStore) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at asc").
		Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartIDs := tx.Model(&models.Cart{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("cart_id IN (?)", cartIDs).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Cart{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Address{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.OTP{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}
