// Package jwtmw mints and verifies the operator tokens that guard write endpoints.
package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written to and required in every token.
const Issuer = "psx_backend"

// ErrEmptySecret is returned when a token is requested without a signing secret.
var ErrEmptySecret = errors.New("jwt secret is empty")

// Generator defines the interface for JWT token generation.
type Generator interface {
	// GenerateToken creates a signed token for the named operator.
	GenerateToken(subject string) (string, error)
}

type generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

var _ Generator = (*generator)(nil)

// NewGenerator creates a generator with the provided secret and expiration duration.
func NewGenerator(secret string, expiration time.Duration) *generator {
	return &generator{secret: []byte(secret), expiration: expiration, now: time.Now}
}

// GenerateToken creates an HS256 token with registered claims.
func (g *generator) GenerateToken(subject string) (string, error) {
	if len(g.secret) == 0 {
		return "", ErrEmptySecret
	}
	now := g.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.expiration)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
