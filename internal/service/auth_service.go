package service

import (
	"context"
	"fmt"
	"time"

	"quizquest/internal/config"
	"quizquest/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTypeAccess = "access"

// Claims are the JWT claims this service issues and validates.
type Claims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// AuthService validates the bearer tokens the upstream identity provider
// issues. The engine trusts the user id inside; it performs no
// authentication beyond signature and expiry checks.
type AuthService interface {
	ValidateJWT(ctx context.Context, tokenString string) (*Claims, error)
	GenerateAccessToken(userID string) (string, error)
}

type authService struct {
	cfg config.JWTConfig
}

// NewAuthService creates an AuthService with the configured HS256 secret.
func NewAuthService(cfg config.JWTConfig) AuthService {
	return &authService{cfg: cfg}
}

func (s *authService) ValidateJWT(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, domain.NewUnauthorizedError("invalid token: " + err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.NewUnauthorizedError("invalid token claims")
	}
	if claims.UserID == "" {
		return nil, domain.NewUnauthorizedError("token carries no user id")
	}
	return claims, nil
}

func (s *authService) GenerateAccessToken(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    userID,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessExpiry)),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}
