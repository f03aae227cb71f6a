// Package auth covers the hub's two identity concerns: the Discord OAuth
// login flow and the session JWTs it issues.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"clanhub.gg/clanhub/internal/domain"
)

const tokenIssuer = "clanhub"

// Claims is the session token payload. The discord id travels alongside the
// document id so the developer check never needs a profile read.
type Claims struct {
	UserID    string `json:"user_id"`
	DiscordID string `json:"discord_id"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates session JWTs.
type TokenManager struct {
	signingKey []byte
	expiry     time.Duration

	now func() time.Time
}

// NewTokenManager creates a token manager with the given HS256 key.
func NewTokenManager(signingKey []byte, expiry time.Duration) *TokenManager {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &TokenManager{
		signingKey: signingKey,
		expiry:     expiry,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Issue signs a session token for the user.
func (m *TokenManager) Issue(user *domain.User) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.expiry)

	claims := Claims{
		UserID:    user.ID,
		DiscordID: user.DiscordID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates a session token and returns its claims. Expiry surfaces
// as jwt.ErrTokenExpired for the middleware to map.
func (m *TokenManager) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
