package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type jwtCustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenPair is an access token together with the refresh token that renews it.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// TokenIssuer signs and parses access and refresh tokens. Both kinds use
// HS256 with distinct secrets.
type TokenIssuer struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

func (ti *TokenIssuer) now() time.Time {
	if ti.Now != nil {
		return ti.Now()
	}
	return time.Now()
}

// IssuePair creates a fresh access/refresh pair for userID. Every refresh
// token carries a unique ID so consecutive rotations never collide.
func (ti *TokenIssuer) IssuePair(userID uuid.UUID) (TokenPair, error) {
	now := ti.now()

	accessExp := now.Add(ti.AccessTTL)
	access, err := GenerateToken(ti.AccessSecret, userID, now, accessExp, "")
	if err != nil {
		return TokenPair{}, err
	}

	refreshExp := now.Add(ti.RefreshTTL)
	refresh, err := GenerateToken(ti.RefreshSecret, userID, now, refreshExp, uuid.NewString())
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ParseAccess validates an access token and returns its user ID.
func (ti *TokenIssuer) ParseAccess(token string) (uuid.UUID, error) {
	return ParseToken(ti.AccessSecret, token, ti.now)
}

// ParseRefresh validates a refresh token and returns its user ID.
func (ti *TokenIssuer) ParseRefresh(token string) (uuid.UUID, error) {
	return ParseToken(ti.RefreshSecret, token, ti.now)
}

// GenerateToken creates a signed JWT for the provided user ID.
func GenerateToken(secret string, userID uuid.UUID, issuedAt, expiresAt time.Time, id string) (string, error) {
	claims := &jwtCustomClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and returns the embedded user ID.
func ParseToken(secret, tokenString string, now func() time.Time) (uuid.UUID, error) {
	if tokenString == "" {
		return uuid.Nil, errors.New("empty token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if now != nil {
		opts = append(opts, jwt.WithTimeFunc(now))
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return uuid.Nil, err
	}

	if claims, ok := token.Claims.(*jwtCustomClaims); ok && token.Valid {
		return uuid.Parse(claims.UserID)
	}

	return uuid.Nil, jwt.ErrTokenInvalidClaims
}
