package models

import (
	"time"

	"github.com/google/uuid"
)

// Role values a user may hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered customer or administrator.
type User struct {
	BaseModel
	Username        string     `gorm:"uniqueIndex;not null" json:"username"`
	Email           string     `gorm:"uniqueIndex;not null" json:"email"`
	Phone           string     `gorm:"uniqueIndex;not null" json:"phone"`
	Image           string     `json:"image"`
	PasswordHash    string     `gorm:"not null" json:"-"`
	Role            string     `gorm:"not null;default:user" json:"role"`
	IsVerified      bool       `json:"is_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	RefreshToken    *string    `gorm:"index" json:"-"`
	Addresses       []Address  `json:"addresses,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Verified reports whether the account completed OTP email verification.
func (u *User) Verified() bool {
	return u.IsVerified && u.EmailVerifiedAt != nil
}

// OTP keeps the single live verification code of a user.
type OTP struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Code       string    `gorm:"not null" json:"-"`
	IssuedAt   time.Time `gorm:"index" json:"issued_at"`
	ValidUntil time.Time `json:"valid_until"`
}

// ValidAt reports whether the code is still usable at the given instant.
// The expiry instant itself is already invalid.
func (o *OTP) ValidAt(now time.Time) bool {
	return now.Before(o.ValidUntil)
}
