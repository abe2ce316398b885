package gormstore

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/repository"
)

// AddressStore persists user addresses.
type AddressStore struct {
	db *gorm.DB
}

func NewAddressStore(db *gorm.DB) *AddressStore {
	return &AddressStore{db: db}
}

var _ repository.AddressRepository = (*AddressStore)(nil)

func (s *AddressStore) Create(ctx context.Context, address *models.Address) error {
	return translate(s.db.WithContext(ctx).Create(address).Error)
}

func (s *AddressStore) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Address{}).Where("user_id = ?", userID).Count(&total).Error
	return total, err
}

func (s *AddressStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := s.db.WithContext(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &address, nil
}

func (s *AddressStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var addresses []models.Address
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("is_default desc, created_at asc").Find(&addresses).Error
	return addresses, err
}

func (s *AddressStore) ListAll(ctx context.Context) ([]models.Address, error) {
	var addresses []models.Address
	err := s.db.WithContext(ctx).Order("created_at asc").Find(&addresses).Error
	return addresses, err
}

// editableColumns excludes is_default, which only SetDefault may change.
var editableColumns = []string{
	"detail", "sub_district", "district", "city", "province",
	"country", "postal_code", "longitude", "latitude", "updated_at",
}

func (s *AddressStore) Save(ctx context.Context, address *models.Address) error {
	res := s.db.WithContext(ctx).Model(address).Select(editableColumns).Updates(address)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *AddressStore) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []models.Address
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("user_id = ?", userID).Find(&owned).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Address{}).
			Where("user_id = ? AND is_default = ? AND id <> ?", userID, true, id).
			Update("is_default", false).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Address{}).
			Where("id = ? AND user_id = ?", id, userID).
			Update("is_default", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (s *AddressStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Address{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
