package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt"

	"github.com/npezzotti/go-hangout/internal/types"
)

// The session token is minted by the external auth service and arrives as a
// cookie. Its claims identify the connected user; validation happens here,
// before the websocket upgrade and the presence handler.
const (
	tokenCookieKey = "token"
	usernameClaim  = "username"
	emailClaim     = "email"
)

type contextKey string

const sessionUserKey contextKey = "session-user"

func SessionUser(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(sessionUserKey).(types.User)
	return user, ok
}

func WithSessionUser(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, sessionUserKey, user)
}

func (s *HangoutApp) extractUserFromToken(tokenString string) (types.User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return types.User{}, fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid {
		return types.User{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return types.User{}, fmt.Errorf("invalid token claims")
	}

	username, ok := claims[usernameClaim].(string)
	if !ok || username == "" {
		return types.User{}, fmt.Errorf("invalid username claim")
	}

	email, _ := claims[emailClaim].(string)

	return types.User{Username: username, Email: email}, nil
}

func (s *HangoutApp) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenCookie, err := r.Cookie(tokenCookieKey)
		if err != nil {
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		user, err := s.extractUserFromToken(tokenCookie.Value)
		if err != nil {
			s.log.Printf("failed to extract user from token: %v", err)
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		ctx := WithSessionUser(r.Context(), user)
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")

		next(w, r.WithContext(ctx))
	}
}
