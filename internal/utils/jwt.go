package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// AuthenticatedUser is the identity resolved from a bearer token. The core
// only needs the caller's id and role to gate transitions.
type AuthenticatedUser struct {
	ID    string   `json:"sub"`
	Email string   `json:"email"`
	Role  string   `json:"role"`
	Aud   []string `json:"aud"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *AuthenticatedUser) IsAdmin() bool {
	return u.Role == "admin"
}

type userClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JwtAuthenticator validates and issues HS256 bearer tokens.
type JwtAuthenticator struct {
	signingKey []byte
	expiration time.Duration
}

func NewJwtAuthenticator(signingKey string, expiration time.Duration) *JwtAuthenticator {
	return &JwtAuthenticator{
		signingKey: []byte(signingKey),
		expiration: expiration,
	}
}

// GenerateToken creates a signed token carrying the user's id, email and role.
func (a *JwtAuthenticator) GenerateToken(userID, email, role string) (string, error) {
	if len(a.signingKey) == 0 {
		return "", errors.New("signing key not configured")
	}

	claims := userClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.signingKey)
}

// ValidateToken parses and verifies a token, returning the authenticated user.
func (a *JwtAuthenticator) ValidateToken(tokenString string) (*AuthenticatedUser, error) {
	if len(a.signingKey) == 0 {
		return nil, errors.New("signing key not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &userClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*userClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	aud := make([]string, len(claims.Audience))
	copy(aud, claims.Audience)

	return &AuthenticatedUser{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  claims.Role,
		Aud:   aud,
	}, nil
}
