package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/creatorcircle/xpengine/config"
)

// ServiceClaims are the JWT claims carried by service-to-service
// tokens. Caller names the upstream service invoking the XP API.
type ServiceClaims struct {
	Caller string `json:"caller"`
	jwt.RegisteredClaims
}

// GenerateServiceToken issues a JWT for an internal caller.
func GenerateServiceToken(caller string, duration time.Duration) (string, error) {
	cfg := config.Get()

	claims := ServiceClaims{
		Caller: caller,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseServiceToken validates a JWT and returns its claims.
func ParseServiceToken(tokenStr string) (*ServiceClaims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*ServiceClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
