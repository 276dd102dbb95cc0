package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/movievault/backend/internal/models"
)

// ErrInvalidToken indicates the presented token failed signature, shape, or
// expiry checks. Callers must treat every verification failure identically.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the payload embedded in issued bearer tokens. Subject carries the
// user id; email and name ride along so clients can render a profile without
// an extra round trip.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies HMAC-signed bearer tokens. Tokens are stateless:
// nothing is persisted server-side and logout is purely a client concern.
type Issuer struct {
	secret  []byte
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewIssuer constructs an Issuer signing with the provided secret. Tokens
// expire after ttl.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if secret == "" {
		panic("auth: token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for the provided user.
func (i *Issuer) Issue(user models.User) (string, error) {
	if user.ID == "" {
		return "", errors.New("auth: user id must be provided")
	}

	now := i.now()
	claims := Claims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a presented token, returning its claims.
// Any failure, including an unexpected signing method, maps to ErrInvalidToken.
func (i *Issuer) Verify(tokenString string) (Claims, error) {
	if tokenString == "" {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

func (i *Issuer) now() time.Time {
	if i.nowFunc != nil {
		return i.nowFunc()
	}
	return time.Now().UTC()
}
