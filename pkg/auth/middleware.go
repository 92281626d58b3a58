package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Middleware provides HTTP authentication middleware.
type Middleware struct {
	secret             []byte
	enableVerification bool
	logger             *zap.Logger
}

// NewMiddleware creates auth middleware. When enableVerification is false
// (local development), tokens are parsed without signature validation.
func NewMiddleware(secret string, enableVerification bool, logger *zap.Logger) *Middleware {
	return &Middleware{
		secret:             []byte(secret),
		enableVerification: enableVerification,
		logger:             logger,
	}
}

// RequireAuth validates the bearer token and requires a user id subject.
// Sets claims in context for downstream handlers.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.validateRequest(r)
		if err != nil {
			m.logger.Debug("Rejected request", zap.String("path", r.URL.Path), zap.Error(err))
			m.unauthorized(w, "Authentication required")
			return
		}

		if claims.Subject == "" {
			m.unauthorized(w, "Missing user id in token")
			return
		}

		next(w, r.WithContext(SetClaims(r.Context(), claims)))
	}
}

func (m *Middleware) validateRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, fmt.Errorf("missing Authorization header")
	}
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, fmt.Errorf("Authorization header is not a bearer token")
	}

	claims := &Claims{}
	if !m.enableVerification {
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
		return claims, nil
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
