// Package redisstore keeps verification codes in Redis, relying on key TTL
// for passive expiry.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/repository"
)

// OTPStore stores one code per user under otp:<user id>.
type OTPStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewOTPStore(client *redis.Client, retention time.Duration) *OTPStore {
	return &OTPStore{client: client, retention: retention}
}

var _ repository.OTPRepository = (*OTPStore)(nil)

type otpRecord struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code"`
	IssuedAt   time.Time `json:"issued_at"`
	ValidUntil time.Time `json:"valid_until"`
}

func key(userID uuid.UUID) string {
	return fmt.Sprintf("otp:%s", userID)
}

func (s *OTPStore) Upsert(ctx context.Context, otp *models.OTP) error {
	if otp.ID == uuid.Nil {
		otp.ID = uuid.New()
	}
	data, err := json.Marshal(otpRecord{
		ID:         otp.ID,
		Code:       otp.Code,
		IssuedAt:   otp.IssuedAt,
		ValidUntil: otp.ValidUntil,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal otp: %w", err)
	}
	return s.client.Set(ctx, key(otp.UserID), data, s.retention).Err()
}

// Take compares and deletes under WATCH, so a code replaced by a concurrent
// Upsert is never consumed.
func (s *OTPStore) Take(ctx context.Context, userID uuid.UUID, code string) (*models.OTP, error) {
	var rec otpRecord
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key(userID)).Bytes()
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal otp: %w", err)
		}
		if rec.Code != code {
			return repository.ErrNotFound
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key(userID))
			return nil
		})
		return err
	}, key(userID))

	switch {
	case errors.Is(err, redis.Nil), errors.Is(err, redis.TxFailedErr):
		return nil, repository.ErrNotFound
	case err != nil:
		return nil, err
	}

	otp := &models.OTP{
		UserID:     userID,
		Code:       rec.Code,
		IssuedAt:   rec.IssuedAt,
		ValidUntil: rec.ValidUntil,
	}
	otp.ID = rec.ID
	return otp, nil
}

func (s *OTPStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.client.Del(ctx, key(userID)).Err()
}
