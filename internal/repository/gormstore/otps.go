package gormstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/repository"
)

// OTPStore persists one verification code per user. Records older than
// the retention window are purged whenever the table is touched.
type OTPStore struct {
	db        *gorm.DB
	retention time.Duration
	now       func() time.Time
}

func NewOTPStore(db *gorm.DB, retention time.Duration) *OTPStore {
	return &OTPStore{db: db, retention: retention, now: time.Now}
}

var _ repository.OTPRepository = (*OTPStore)(nil)

func (s *OTPStore) purge(tx *gorm.DB) error {
	return tx.Where("issued_at < ?", s.now().Add(-s.retention)).Delete(&models.OTP{}).Error
}

func (s *OTPStore) Upsert(ctx context.Context, otp *models.OTP) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.purge(tx); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "issued_at", "valid_until", "updated_at"}),
		}).Create(otp).Error
	})
}

func (s *OTPStore) Take(ctx context.Context, userID uuid.UUID, code string) (*models.OTP, error) {
	var taken []models.OTP
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.purge(tx); err != nil {
			return err
		}
		return tx.Clauses(clause.Returning{}).
			Where("user_id = ? AND code = ?", userID, code).
			Delete(&taken).Error
	})
	if err != nil {
		return nil, err
	}
	if len(taken) == 0 {
		return nil, repository.ErrNotFound
	}
	return &taken[0], nil
}

func (s *OTPStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.OTP{}).Error
}
