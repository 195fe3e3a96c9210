package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/appforge/appforge-go/internal/model"
)

var (
	// ErrInvalidToken covers bad signatures, wrong issuer/audience and
	// malformed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken means the token was well-formed and correctly signed
	// but its expiration instant has passed. Callers treat both errors as
	// unauthenticated; the split exists for logging.
	ErrExpiredToken = errors.New("expired token")
)

// Claims are the JWT claims carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string     `json:"user_id"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
}

// GenerateToken creates a signed HS256 token for the given identity.
func GenerateToken(userID, email string, role model.Role, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "appforge",
			Audience:  jwt.ClaimStrings{"appforge-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
		Email:  email,
		Role:   role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and validates a token string, returning the claims
// if valid. Expired tokens fail with ErrExpiredToken, everything else with
// ErrInvalidToken.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithIssuer("appforge"), jwt.WithAudience("appforge-api"))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
