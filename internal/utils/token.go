package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brigada-mx/brigada-api/internal/models"
)

// IssueAccessToken signs an HMAC bearer token carrying the user's identity
// and role claims.
func IssueAccessToken(secret string, user models.User, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret must not be empty")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", user.ID),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
