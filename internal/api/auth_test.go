package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npezzotti/go-hangout/internal/testutil"
	"github.com/npezzotti/go-hangout/internal/types"
)

var testSigningKey = []byte("test-signing-key")

func signedToken(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err, "failed to sign test token")
	return token
}

func sessionToken(t *testing.T, username, email string) string {
	return signedToken(t, testSigningKey, jwt.MapClaims{
		usernameClaim: username,
		emailClaim:    email,
		"exp":         time.Now().Add(time.Hour).Unix(),
	})
}

func TestExtractUserFromToken(t *testing.T) {
	s := &HangoutApp{log: testutil.TestLogger(t), signingKey: testSigningKey}

	t.Run("valid token", func(t *testing.T) {
		user, err := s.extractUserFromToken(sessionToken(t, "alice", "alice@example.com"))
		assert.NoError(t, err)
		assert.Equal(t, types.User{Username: "alice", Email: "alice@example.com"}, user)
	})

	t.Run("wrong key", func(t *testing.T) {
		token := signedToken(t, []byte("other-key"), jwt.MapClaims{usernameClaim: "alice"})
		_, err := s.extractUserFromToken(token)
		assert.Error(t, err, "expected a token signed with another key to be rejected")
	})

	t.Run("missing username claim", func(t *testing.T) {
		token := signedToken(t, testSigningKey, jwt.MapClaims{emailClaim: "alice@example.com"})
		_, err := s.extractUserFromToken(token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signedToken(t, testSigningKey, jwt.MapClaims{
			usernameClaim: "alice",
			"exp":         time.Now().Add(-time.Hour).Unix(),
		})
		_, err := s.extractUserFromToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := s.extractUserFromToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestAuthMiddleware(t *testing.T) {
	s := &HangoutApp{log: testutil.TestLogger(t), signingKey: testSigningKey}

	var gotUser types.User
	var called bool
	handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotUser, _ = SessionUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("no cookie", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/api/hangouts", nil)
		rr := httptest.NewRecorder()

		handler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called, "expected handler not to run without a token")
	})

	t.Run("invalid token", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/api/hangouts", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: "bogus"})
		rr := httptest.NewRecorder()

		handler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})

	t.Run("valid token", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/api/hangouts", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: sessionToken(t, "alice", "alice@example.com")})
		rr := httptest.NewRecorder()

		handler(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, called, "expected handler to run with a valid token")
		assert.Equal(t, "alice", gotUser.Username, "expected session user in context")
	})
}
