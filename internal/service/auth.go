// Package service provides the business logic layer (use cases): payment
// assembly, balances, student listings, school years and administration.
package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// AuthService validates the access tokens issued by the school backend.
type AuthService struct {
	jwtSecret []byte
	logger    *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(jwtSecret string, logger *zap.Logger) *AuthService {
	return &AuthService{jwtSecret: []byte(jwtSecret), logger: logger}
}

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Sub     string   `json:"sub"`
	Role    string   `json:"role"`
	Schools []string `json:"schools,omitempty"`
	Type    string   `json:"type"`
	jwt.RegisteredClaims
}

// ValidateAccessToken parses an HS256 access token into a principal.
func (s *AuthService) ValidateAccessToken(tokenString string) (*domain.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "invalid token type"}
	}
	if claims.Sub == "" {
		return nil, &domain.ErrUnauthorized{Message: "token has no subject"}
	}

	return &domain.Principal{
		UserID:  claims.Sub,
		Role:    domain.Role(claims.Role),
		Schools: claims.Schools,
		Token:   tokenString,
	}, nil
}

// SignAccessToken issues a token in the backend's format. The BFA never
// issues tokens to clients; this serves tests and local tooling.
func (s *AuthService) SignAccessToken(userID string, role domain.Role, schools []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Sub:     userID,
		Role:    string(role),
		Schools: schools,
		Type:    "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "school-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
