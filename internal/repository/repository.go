// Package repository declares the persistence contracts used by services.
// Implementations live in gormstore (PostgreSQL) and redisstore.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/vitecommerce/internal/models"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

// UserUpdate carries optional profile changes; nil fields are left alone.
type UserUpdate struct {
	Username *string
	Email    *string
	Phone    *string
	Image    *string
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Count(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByRefreshToken(ctx context.Context, token string) (*models.User, error)
	// FindConflict returns the name of the first of username, email or phone
	// already used by a user other than exclude, or "" when all are free.
	FindConflict(ctx context.Context, username, email, phone string, exclude uuid.UUID) (string, error)
	SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error
	MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	Update(ctx context.Context, id uuid.UUID, update UserUpdate) error
	List(ctx context.Context, offset, limit int) ([]models.User, int64, error)
	// Delete removes the user together with the records it owns.
	Delete(ctx context.Context, id uuid.UUID) error
}

type OTPRepository interface {
	// Upsert replaces any code previously stored for otp.UserID.
	Upsert(ctx context.Context, otp *models.OTP) error
	// Take atomically removes and returns the record matching userID and
	// code. It returns ErrNotFound when nothing matches.
	Take(ctx context.Context, userID uuid.UUID, code string) (*models.OTP, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

type CartRepository interface {
	// FindByUser loads the cart with its lines ordered by position and each
	// line's product preloaded.
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	// Mutate loads the user's cart under a row lock, applies fn and persists
	// the result in the same transaction. When no cart exists it is created
	// if create is set, otherwise ErrNotFound is returned.
	Mutate(ctx context.Context, userID uuid.UUID, create bool, fn func(cart *models.Cart) error) (*models.Cart, error)
}

type AddressRepository interface {
	Create(ctx context.Context, address *models.Address) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	ListAll(ctx context.Context) ([]models.Address, error)
	// Save writes the editable fields. The default flag is left untouched.
	Save(ctx context.Context, address *models.Address) error
	// SetDefault clears the user's current default and flags id in one
	// transaction.
	SetDefault(ctx context.Context, userID, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Name       string
	CategoryID *uuid.UUID
	Offset     int
	Limit      int
}

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	// FindByName matches exactly, or case-insensitively by substring when
	// fuzzy is set.
	FindByName(ctx context.Context, name string, fuzzy bool) (*models.Category, error)
	Save(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	Save(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}
