package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/vitecommerce/internal/apperror"
	"github.com/example/vitecommerce/internal/logging"
	"github.com/example/vitecommerce/internal/mailer"
	"github.com/example/vitecommerce/internal/metrics"
	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/repository"
	"github.com/example/vitecommerce/internal/utils"
)

const otpLength = 6

// OTPService issues and checks email verification codes.
type OTPService struct {
	otps   repository.OTPRepository
	users  repository.UserRepository
	mailer mailer.Mailer
	ttl    time.Duration
	now    func() time.Time
}

func NewOTPService(otps repository.OTPRepository, users repository.UserRepository, m mailer.Mailer, ttl time.Duration) *OTPService {
	return &OTPService{otps: otps, users: users, mailer: m, ttl: ttl, now: time.Now}
}

// Issue replaces the user's code with a new one and emails it.
func (s *OTPService) Issue(ctx context.Context, user *models.User) error {
	otp, err := s.create(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := s.send(ctx, user, otp, mailer.OTPRegenerated); err != nil {
		return apperror.Internal("Failed to send OTP code, please try again", err)
	}
	return nil
}

// Verify consumes code and marks the user verified. A code can be used at
// most once and only strictly before its expiry instant.
func (s *OTPService) Verify(ctx context.Context, userID uuid.UUID, code string) error {
	now := s.now()

	otp, err := s.otps.Take(ctx, userID, code)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.OTPVerifications.WithLabelValues("rejected").Inc()
		return apperror.InvalidInput("OTP Code not found or wrong")
	}
	if err != nil {
		return storeError(err, "OTP Code not found or wrong")
	}

	if !otp.ValidAt(now) {
		metrics.OTPVerifications.WithLabelValues("expired").Inc()
		return apperror.InvalidInput("OTP Code has expired")
	}

	if err := s.users.MarkVerified(ctx, userID, now); err != nil {
		return storeError(err, "User not found")
	}

	metrics.OTPVerifications.WithLabelValues("verified").Inc()
	logging.Info().Str("user_id", userID.String()).Msg("account verified")
	return nil
}

func (s *OTPService) create(ctx context.Context, userID uuid.UUID) (*models.OTP, error) {
	code, err := utils.GenerateNumericCode(otpLength)
	if err != nil {
		return nil, apperror.Internal("failed to generate OTP code", err)
	}

	now := s.now()
	otp := &models.OTP{
		UserID:     userID,
		Code:       code,
		IssuedAt:   now,
		ValidUntil: now.Add(s.ttl),
	}
	if err := s.otps.Upsert(ctx, otp); err != nil {
		return nil, storeError(err, "User not found")
	}

	metrics.OTPIssued.Inc()
	return otp, nil
}

func (s *OTPService) send(ctx context.Context, user *models.User, otp *models.OTP, purpose mailer.OTPPurpose) error {
	msg, err := mailer.OTPMessage(purpose, user.Email, user.Username, otp.Code, s.ttl)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}
