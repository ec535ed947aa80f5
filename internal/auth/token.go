package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/royals-sales/royals/internal/shared"
)

// Claims is the JWT payload carried by bearer tokens.
type Claims struct {
	UserID   int64       `json:"id"`
	Username string      `json:"username"`
	Role     shared.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies bearer tokens. The algorithm is pinned
// to HS256; tokens signed with anything else are rejected.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager constructs a TokenManager with the given secret and TTL.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given user.
func (m *TokenManager) Issue(userID int64, username string, role shared.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a signed token and returns its claims.
func (m *TokenManager) Verify(signed string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(signed, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnauthorized, err)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role", shared.ErrUnauthorized)
	}
	return &claims, nil
}

// TTL exposes the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}
