// Package auth issues and validates the signed bearer tokens handed to clients.
package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"todo-api/internal/config"
	"todo-api/internal/models"
)

var (
	ErrNoKey        = errors.New("token signing key is not configured")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the claims carried by a bearer token. Subject holds the user's email.
type Claims struct {
	UniqueName string `json:"unique_name"`
	NameID     string `json:"nameid"`
	jwt.RegisteredClaims
}

// Issuer signs and validates HS256 tokens.
type Issuer struct {
	key      []byte
	issuer   string
	audience string
	timeout  time.Duration
	grace    time.Duration
	now      func() time.Time
}

// NewIssuer builds an Issuer from the token configuration.
func NewIssuer(cfg config.TokenConfig) (*Issuer, error) {
	if cfg.Key == "" {
		return nil, ErrNoKey
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Issuer{
		key:      []byte(cfg.Key),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		timeout:  timeout,
		grace:    cfg.RefreshGrace,
		now:      time.Now,
	}, nil
}

// SetClock overrides the time source.
func (i *Issuer) SetClock(now func() time.Time) {
	i.now = now
}

// Timeout is the lifetime of an issued token.
func (i *Issuer) Timeout() time.Duration {
	return i.timeout
}

// Issue signs a token for u and returns it with its expiry.
func (i *Issuer) Issue(u *models.User) (string, time.Time, error) {
	now := i.now()
	claims := Claims{
		UniqueName: u.Username,
		NameID:     u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.timeout)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

func (i *Issuer) keyFunc(*jwt.Token) (interface{}, error) {
	return i.key, nil
}

// Parse fully validates a bearer token, lifetime included.
func (i *Issuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return claims, nil
}

// ParseIgnoringLifetime validates signature, issuer and audience but not expiry, so an
// expired token can still be exchanged during the refresh grace window.
func (i *Issuer) ParseIgnoringLifetime(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Issuer != i.issuer || !slices.Contains(claims.Audience, i.audience) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// PastGrace reports whether the token expired longer ago than the refresh grace window.
func (i *Issuer) PastGrace(c *Claims) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return c.ExpiresAt.Add(i.grace).Before(i.now())
}

// NewRefreshToken returns a fresh opaque refresh token.
func NewRefreshToken() string {
	return uuid.NewString()
}
