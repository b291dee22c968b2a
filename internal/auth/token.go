// Package auth validates access tokens issued by the portal's authentication service.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the learner identity carried by an access token
type Claims struct {
	UserID int
	// Email is optional; certificate notifications are only sent when it is present
	Email string
}

// TokenValidator validates HS256 access tokens. It can also mint them,
// which is used by tests and local tooling.
type TokenValidator struct {
	secret      string
	tokenExpiry time.Duration
}

// NewTokenValidator creates a new token validator
func NewTokenValidator(secret string, tokenExpiry time.Duration) *TokenValidator {
	return &TokenValidator{
		secret:      secret,
		tokenExpiry: tokenExpiry,
	}
}

// GenerateAccessToken creates an access token for userID, with email when it is not empty
func (tv *TokenValidator) GenerateAccessToken(userID int, email string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(tv.tokenExpiry).Unix(),
		"iat":     time.Now().Unix(),
		"type":    "access",
	}
	if email != "" {
		claims["email"] = email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tv.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// ValidateAccessToken validates an access token and returns its claims
func (tv *TokenValidator) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tv.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "access" {
		return nil, fmt.Errorf("token is not an access token")
	}

	// JWT claims decode numbers as float64
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, fmt.Errorf("user_id not found in token")
	}

	email, _ := claims["email"].(string)

	return &Claims{UserID: int(userID), Email: email}, nil
}
