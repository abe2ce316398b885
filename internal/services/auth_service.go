package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/example/vitecommerce/internal/apperror"
	"github.com/example/vitecommerce/internal/logging"
	"github.com/example/vitecommerce/internal/mailer"
	"github.com/example/vitecommerce/internal/metrics"
	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/repository"
	"github.com/example/vitecommerce/internal/utils"
	"github.com/example/vitecommerce/internal/validation"
)

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Phone    string `json:"phone" validate:"required,min=6,max=20"`
}

// AuthResult is returned by every operation that opens a session.
type AuthResult struct {
	User         *models.User
	Tokens       utils.TokenPair
	OTPDelivered bool
}

// AuthService manages accounts and their token sessions.
type AuthService struct {
	users  repository.UserRepository
	otp    *OTPService
	tokens *utils.TokenIssuer
}

func NewAuthService(users repository.UserRepository, otp *OTPService, tokens *utils.TokenIssuer) *AuthService {
	return &AuthService{users: users, otp: otp, tokens: tokens}
}

// Register creates the account, opens a session and emails a verification
// code. The very first account becomes the administrator. A failed email
// leaves the account in place and is reported through OTPDelivered.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	field, err := s.users.FindConflict(ctx, in.Username, in.Email, in.Phone, uuid.Nil)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	if field != "" {
		return nil, apperror.Conflict(conflictMessage(field))
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	role := models.RoleUser
	if count == 0 {
		role = models.RoleAdmin
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Wrap(apperror.KindConflict, conflictMessage(""), err)
		}
		return nil, storeError(err, "User not found")
	}
	metrics.Registrations.Inc()

	delivered := true
	otp, err := s.otp.create(ctx, user.ID)
	if err != nil {
		logging.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to store registration OTP")
		delivered = false
	} else if err := s.otp.send(ctx, user, otp, mailer.OTPRegistration); err != nil {
		logging.Warn().Err(err).Str("user_id", user.ID.String()).Msg("registration OTP email not delivered")
		delivered = false
	}

	result, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	result.OTPDelivered = delivered

	logging.Info().Str("user_id", user.ID.String()).Str("role", role).Msg("user registered")
	return result, nil
}

// Login checks the credentials and rotates the session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" {
		return nil, apperror.InvalidInput("Email is required")
	}
	if password == "" {
		return nil, apperror.InvalidInput("Password is required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		metrics.Logins.WithLabelValues("failure").Inc()
		return nil, unauthorizedOnMissing(err, "Invalid email or password")
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		metrics.Logins.WithLabelValues("failure").Inc()
		return nil, apperror.Unauthorized("Invalid email or password")
	}

	result, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	metrics.Logins.WithLabelValues("success").Inc()
	return result, nil
}

// Logout forgets the stored refresh token so it cannot be exchanged again.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.SetRefreshToken(ctx, userID, nil); err != nil {
		return storeError(err, "User not found")
	}
	return nil
}

// Refresh exchanges a stored, valid refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, token string) (*AuthResult, error) {
	if token == "" {
		return nil, apperror.Unauthorized("Refresh token is unavailable")
	}

	user, err := s.users.FindByRefreshToken(ctx, token)
	if err != nil {
		return nil, unauthorizedOnMissing(err, "Invalid refresh token")
	}

	userID, err := s.tokens.ParseRefresh(token)
	if err != nil || userID != user.ID {
		return nil, apperror.Unauthorized("Invalid refresh token")
	}

	return s.openSession(ctx, user)
}

// Authenticate resolves an access token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.ParseAccess(token)
	if err != nil {
		return nil, apperror.Unauthorized("Not authorized, invalid token")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, unauthorizedOnMissing(err, "Not authorized, user not found")
	}
	return user, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, unauthorizedOnMissing(err, "User not found")
	}
	return user, nil
}

// RequireVerified rejects accounts that have not completed OTP verification.
func RequireVerified(user *models.User) error {
	if user == nil || !user.Verified() {
		return apperror.Unauthorized("Please verification first")
	}
	return nil
}

// UpdatePassword replaces the password after checking the current one and
// ends every session of the user.
func (s *AuthService) UpdatePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if current == "" || next == "" {
		return apperror.InvalidInput("Current and new password are required")
	}
	if len(next) < 6 {
		return apperror.InvalidInput("Password must be at least 6 characters")
	}
	if len(next) > utils.MaxPasswordBytes {
		return apperror.InvalidInput("Password must be at most 72 characters")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return storeError(err, "User not found")
	}
	if !utils.CheckPassword(user.PasswordHash, current) {
		return apperror.Unauthorized("Current password is incorrect")
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return apperror.Internal("failed to hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return storeError(err, "User not found")
	}
	if err := s.users.SetRefreshToken(ctx, userID, nil); err != nil {
		return storeError(err, "User not found")
	}
	return nil
}

func (s *AuthService) openSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, apperror.Internal("failed to issue tokens", err)
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, storeError(err, "User not found")
	}
	user.RefreshToken = &pair.RefreshToken
	return &AuthResult{User: user, Tokens: pair, OTPDelivered: true}, nil
}

func unauthorizedOnMissing(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.Unauthorized(message)
	}
	return storeError(err, message)
}
