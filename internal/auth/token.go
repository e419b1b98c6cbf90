// Package auth issues and verifies the two credential classes: short-lived
// access tokens and rotating refresh tokens carrying a per-user rotation
// version.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

type Issuer struct {
	secret   []byte
	issuer   string
	audience string
}

func NewIssuer(secret []byte, issuer, audience string) *Issuer {
	return &Issuer{secret: secret, issuer: issuer, audience: audience}
}

type AccessClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims carries the rotation version: a refresh token is only
// accepted while Ver matches the user's current token_version.
type RefreshClaims struct {
	Ver int `json:"ver"`
	jwt.RegisteredClaims
}

func (i *Issuer) IssueAccess(userID, name, role, jti string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Name: name,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return token, nil
}

func (i *Issuer) IssueRefresh(userID string, version int, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		Ver: version,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID,
			// random jti so two tokens minted in the same second never collide
			ID:        randomJTI(),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return token, nil
}

func (i *Issuer) ParseAccess(token string) (AccessClaims, error) {
	var claims AccessClaims
	if err := i.parse(token, &claims); err != nil {
		return AccessClaims{}, err
	}
	if claims.Subject == "" || claims.ID == "" {
		return AccessClaims{}, ErrInvalidToken
	}
	return claims, nil
}

func (i *Issuer) ParseRefresh(token string) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := i.parse(token, &claims); err != nil {
		return RefreshClaims{}, err
	}
	if claims.Subject == "" {
		return RefreshClaims{}, ErrInvalidToken
	}
	return claims, nil
}

func (i *Issuer) parse(token string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}

func randomJTI() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// HashToken returns the hex SHA-256 of a token; refresh tokens are stored
// hashed, never verbatim.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return fmt.Sprintf("%x", sum)
}
