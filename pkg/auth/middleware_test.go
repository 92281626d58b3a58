package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret string, subject string) string {
	t.Helper()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "farmer@example.com",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authedRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/predictions", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestRequireAuth_ValidToken(t *testing.T) {
	userID := uuid.New()
	m := NewMiddleware(testSecret, true, zap.NewNop())

	var gotUserID uuid.UUID
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		id, err := UserIDFromContext(r.Context())
		require.NoError(t, err)
		gotUserID = id
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	handler(w, authedRequest(signedToken(t, testSecret, userID.String())))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, gotUserID)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	m := NewMiddleware(testSecret, true, zap.NewNop())
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	w := httptest.NewRecorder()
	handler(w, authedRequest(""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	m := NewMiddleware(testSecret, true, zap.NewNop())
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	w := httptest.NewRecorder()
	handler(w, authedRequest(signedToken(t, "other-secret", uuid.New().String())))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_NotBearer(t *testing.T) {
	m := NewMiddleware(testSecret, true, zap.NewNop())
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	r := httptest.NewRequest(http.MethodGet, "/api/predictions", nil)
	r.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	handler(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	m := NewMiddleware(testSecret, true, zap.NewNop())
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	w := httptest.NewRecorder()
	handler(w, authedRequest(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_MissingSubject(t *testing.T) {
	m := NewMiddleware(testSecret, true, zap.NewNop())
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	w := httptest.NewRecorder()
	handler(w, authedRequest(signedToken(t, testSecret, "")))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_VerificationDisabled(t *testing.T) {
	// Local development mode accepts tokens signed with any key.
	userID := uuid.New()
	m := NewMiddleware("", false, zap.NewNop())

	called := false
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
		id, err := UserIDFromContext(r.Context())
		require.NoError(t, err)
		assert.Equal(t, userID, id)
	})

	w := httptest.NewRecorder()
	handler(w, authedRequest(signedToken(t, "whatever", userID.String())))
	assert.True(t, called)
}

func TestUserIDFromContext_NoClaims(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := UserIDFromContext(r.Context())
	assert.Error(t, err)
}
