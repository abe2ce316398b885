package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/vitecommerce/internal/apperror"
	"github.com/example/vitecommerce/internal/middleware"
	"github.com/example/vitecommerce/internal/services"
	"github.com/example/vitecommerce/internal/utils"
	"github.com/example/vitecommerce/internal/validation"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	auth         *services.AuthService
	otp          *services.OTPService
	secureCookie bool
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService, otp *services.OTPService, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, otp: otp, secureCookie: secureCookie}
}

// Register creates a new user account and opens its session.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return apperror.InvalidInput("invalid request body")
	}

	res, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	h.setSession(c, res.Tokens)
	message := "Register success, please check your email for the OTP code"
	if !res.OTPDelivered {
		message = "Register success, but the OTP email could not be sent; request a new code"
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":      true,
		"message":      message,
		"data":         res.User,
		"otpDelivered": res.OTPDelivered,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an existing user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.InvalidInput("invalid request body")
	}

	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setSession(c, res.Tokens)
	return respond(c, fiber.StatusOK, "Login success", res.User)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), user.ID); err != nil {
		return err
	}

	h.clearSession(c)
	return respond(c, fiber.StatusOK, "Logout Success", nil)
}

func (h *AuthHandler) CurrentUser(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	fresh, err := h.auth.CurrentUser(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", fresh)
}

// GenerateOTP sends a new verification code to the current user.
func (h *AuthHandler) GenerateOTP(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.otp.Issue(c.UserContext(), user); err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Generate OTP Code success please check your email", nil)
}

type verifyRequest struct {
	OTP string `json:"otp" validate:"required,len=6,numeric_code"`
}

// Verify checks the submitted OTP code.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.InvalidInput("invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return err
	}

	if err := h.otp.Verify(c.UserContext(), user.ID, req.OTP); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Verification account success", nil)
}

// RefreshToken rotates the session using the refresh cookie.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	res, err := h.auth.Refresh(c.UserContext(), c.Cookies(middleware.RefreshCookie))
	if err != nil {
		return err
	}

	h.setSession(c, res.Tokens)
	return respond(c, fiber.StatusOK, "Token refreshed", res.User)
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.InvalidInput("invalid request body")
	}

	if err := h.auth.UpdatePassword(c.UserContext(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	h.clearSession(c)
	return respond(c, fiber.StatusOK, "Password updated, please login again", nil)
}

func (h *AuthHandler) setSession(c *fiber.Ctx, pair utils.TokenPair) {
	c.Cookie(sessionCookie(middleware.AccessCookie, pair.AccessToken, pair.AccessExpiresAt, h.secureCookie))
	c.Cookie(sessionCookie(middleware.RefreshCookie, pair.RefreshToken, pair.RefreshExpiresAt, h.secureCookie))
}

func (h *AuthHandler) clearSession(c *fiber.Ctx) {
	clearSessionCookies(c, h.secureCookie)
}

func clearSessionCookies(c *fiber.Ctx, secure bool) {
	expired := time.Unix(0, 0)
	c.Cookie(sessionCookie(middleware.AccessCookie, "", expired, secure))
	c.Cookie(sessionCookie(middleware.RefreshCookie, "", expired, secure))
}

func sessionCookie(name, value string, expires time.Time, secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}
