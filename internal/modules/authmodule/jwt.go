package authmodule

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mverge/camwatch/internal/config"
	"github.com/mverge/camwatch/internal/logger"
)

// Claims carries the authenticated identity inside the session token.
type Claims struct {
	UserID   uint   `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

var (
	secretOnce sync.Once
	secret     []byte
)

// signingSecret returns the configured JWT secret, generating an ephemeral
// one when none is configured. An ephemeral secret invalidates all sessions
// on restart, which is acceptable for development setups.
func signingSecret() []byte {
	secretOnce.Do(func() {
		if s := config.Get().Auth.JWTSecret; s != "" {
			secret = []byte(s)
			return
		}
		buf := make([]byte, 32)
		rand.Read(buf)
		secret = []byte(hex.EncodeToString(buf))
		logger.Warn("no JWT secret configured, generated an ephemeral one; sessions will not survive restart")
	})
	return secret
}

// generateToken signs a session token for the user.
func generateToken(userID uint, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.Get().Auth.GetTokenLifetime())),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingSecret())
}

// parseToken validates a session token and returns its claims.
func parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return signingSecret(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
