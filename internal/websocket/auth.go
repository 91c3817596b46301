package websocket

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/middleware"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// Actor is the resolved identity behind a connection. IsAgent marks support
// staff; it decides which side of a chat the connection speaks for.
type Actor struct {
	ID      string
	IsAgent bool
}

type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// AuthenticatorFunc resolves the acting user for an upgrade request. It fails
// before any room membership exists.
type AuthenticatorFunc func(r *http.Request) (*Actor, error)

func JWTWebSocketAuth(publicKey *rsa.PublicKey, redis *redis.Client) AuthenticatorFunc {
	return func(r *http.Request) (*Actor, error) {
		fp, ok := r.Context().Value(middleware.FingerprintKey).(string)
		if !ok || fp == "" {
			return nil, &AuthError{Message: "missing device fingerprint"}
		}

		token := getTokenFromRequest(r)

		claims, err := utils.ParseAndVerifySign(token, publicKey)
		if err != nil {
			// Cookies can't be refreshed during a ws handshake. The client
			// must refresh over HTTP first, then reconnect.
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, &AuthError{Message: "token expired, please refresh and reconnect"}
			}
			return nil, &AuthError{Message: "invalid token"}
		}

		sessionKey := fmt.Sprintf("session:%s:%s", claims.Sub, fp)
		ctx := context.Background()

		exists, err := redis.Exists(ctx, sessionKey).Result()
		if err != nil || exists == 0 {
			return nil, &AuthError{Message: "session not found or revoked"}
		}

		return &Actor{ID: claims.Sub, IsAgent: claims.IsAgent}, nil
	}
}

func getTokenFromRequest(r *http.Request) string {
	// Option 1: Authorization header
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// Option 2: Query parameter
	token := r.URL.Query().Get("token")
	if token != "" {
		return token
	}

	// Option 3: Cookie
	cookie, err := r.Cookie("access_token")
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}
