package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/vitecommerce/internal/apperror"
	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/services"
)

const (
	userContextKey = "currentUser"

	// AccessCookie and RefreshCookie carry the session tokens.
	AccessCookie  = "jwt"
	RefreshCookie = "refreshToken"
)

// Authenticator resolves an access token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware validates the access token from the jwt cookie or a Bearer
// header and loads the authenticated user into context.
func AuthMiddleware(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(AccessCookie)
		if token == "" {
			authHeader := c.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				token = strings.TrimSpace(parts[1])
			}
		}
		if token == "" {
			return apperror.Unauthorized("Not authorized, no token")
		}

		user, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(userContextKey, user)
		return c.Next()
	}
}

// RequireAdmin lets only administrators through. It must follow AuthMiddleware.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetCurrentUser(c)
		if !ok {
			return apperror.Unauthorized("Not authorized, no token")
		}
		if !user.IsAdmin() {
			return apperror.Forbidden("Not authorized as admin")
		}
		return c.Next()
	}
}

// RequireVerified lets only accounts with a verified email through.
func RequireVerified() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, _ := GetCurrentUser(c)
		if err := services.RequireVerified(user); err != nil {
			return err
		}
		return c.Next()
	}
}

// GetCurrentUser extracts the authenticated user from context.
func GetCurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(userContextKey).(*models.User)
	return user, ok && user != nil
}
