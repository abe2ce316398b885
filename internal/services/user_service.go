package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/example/vitecommerce/internal/apperror"
	"github.com/example/vitecommerce/internal/logging"
	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/repository"
	"github.com/example/vitecommerce/internal/storage"
	"github.com/example/vitecommerce/internal/validation"
)

// ProfileInput carries profile changes; nil fields are unchanged.
type ProfileInput struct {
	Username *string `form:"username" validate:"omitempty,min=3,max=50"`
	Email    *string `form:"email" validate:"omitempty,email"`
	Phone    *string `form:"phone" validate:"omitempty,min=6,max=20"`
}

// UserService manages user profiles.
type UserService struct {
	users  repository.UserRepository
	otps   repository.OTPRepository
	images storage.Store
}

func NewUserService(users repository.UserRepository, otps repository.OTPRepository, images storage.Store) *UserService {
	return &UserService{users: users, otps: otps, images: images}
}

// List returns a page of users and the total count.
func (s *UserService) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	users, total, err := s.users.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, storeError(err, "Users not found")
	}
	return users, total, nil
}

// UpdateProfile changes the user's contact details and optionally the
// profile image. Username, email and phone stay unique across users.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput, image *Upload) (*models.User, error) {
	trim(in.Username)
	trim(in.Email)
	trim(in.Phone)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "User not found")
	}

	field, err := s.users.FindConflict(ctx, deref(in.Username), deref(in.Email), deref(in.Phone), userID)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	if field != "" {
		return nil, apperror.Conflict(conflictMessage(field))
	}

	update := repository.UserUpdate{Username: in.Username, Email: in.Email, Phone: in.Phone}
	oldImage := user.Image
	if image != nil {
		if image.Filename != "" && !storage.AllowedExtension(image.Filename) {
			return nil, apperror.InvalidInput(storage.ErrUnsupportedType.Error())
		}
		url, err := s.images.Upload(ctx, "users", userID.String()+"-"+uuid.NewString()[:8], image.Data)
		if err != nil {
			if errors.Is(err, storage.ErrUnsupportedType) {
				return nil, apperror.InvalidInput(err.Error())
			}
			return nil, apperror.Internal("Error uploading image", err)
		}
		update.Image = &url
	}

	if err := s.users.Update(ctx, userID, update); err != nil {
		if update.Image != nil {
			s.deleteImage(ctx, *update.Image)
		}
		return nil, duplicateAs(err, conflictMessage(""))
	}
	if update.Image != nil && oldImage != "" {
		s.deleteImage(ctx, oldImage)
	}

	return s.users.FindByID(ctx, userID)
}

// Delete removes the user's account and everything it owns.
func (s *UserService) Delete(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return storeError(err, "User not found")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return storeError(err, "User not found")
	}
	// codes held outside PostgreSQL are not covered by the cascade
	if err := s.otps.Delete(ctx, userID); err != nil {
		logging.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to delete otp")
	}
	if user.Image != "" {
		s.deleteImage(ctx, user.Image)
	}
	logging.Info().Str("user_id", userID.String()).Msg("user deleted")
	return nil
}

func (s *UserService) deleteImage(ctx context.Context, url string) {
	if err := s.images.Delete(ctx, url); err != nil {
		logging.Warn().Err(err).Str("url", url).Msg("failed to delete image")
	}
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
