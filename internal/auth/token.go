package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "portfolio"

// Claims is the payload of the session cookie.
type Claims struct {
	jwt.RegisteredClaims
}

// SessionID is the server-side session the token refers to.
func (c *Claims) SessionID() string { return c.ID }

// AdminID is the authenticated admin.
func (c *Claims) AdminID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Signer issues and verifies HS256 session tokens.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer. The secret must not be empty.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is empty")
	}
	return &Signer{secret: secret}, nil
}

// RandomSecret returns a 32 byte hex secret for development use.
func RandomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Sign returns a token for the session.
func (s *Signer) Sign(sessionID string, adminID int64, issuedAt, expiresAt time.Time) (string, error) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        sessionID,
		Subject:   strconv.FormatInt(adminID, 10),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Parse verifies token and returns its claims. now is used for expiry checks.
func (s *Signer) Parse(token string, now time.Time) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.ID == "" {
		return nil, errors.New("parse token: missing session id")
	}
	return claims, nil
}
