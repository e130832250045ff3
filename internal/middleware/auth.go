// Package middleware provides HTTP middleware for the submission service.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/portal-umkm/submission-service/internal/errors"
	"github.com/portal-umkm/submission-service/internal/httputil"
	"github.com/portal-umkm/submission-service/internal/logging"
)

// Claims are the bearer token claims asserted by the external identity
// service. The token carries at minimum the user id and role.
type Claims struct {
	UserID int64  `json:"id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies the bearer credential on every request before any
// data operation runs. It is stateless; each request is independently
// authenticated.
type AuthMiddleware struct {
	secret    []byte
	logger    *logging.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates an authentication middleware validating HMAC
// signed tokens with the given secret.
func NewAuthMiddleware(secret []byte, logger *logging.Logger, skipPaths []string) *AuthMiddleware {
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}

	return &AuthMiddleware{
		secret:    secret,
		logger:    logger,
		skipPaths: skip,
	}
}

// Handler returns the middleware handler. A missing credential yields 401;
// a malformed, expired or badly signed one yields 403.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondError(w, r, errors.Unauthenticated("missing Authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			m.respondError(w, r, errors.Unauthenticated("invalid Authorization header format"))
			return
		}

		claims, err := m.validateToken(parts[1])
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Warn("token validation failed")
			m.respondError(w, r, err)
			return
		}

		ctx := logging.WithUserID(r.Context(), claims.UserID)
		if claims.Role != "" {
			ctx = logging.WithRole(ctx, claims.Role)
		}

		m.logger.WithContext(ctx).Debug("authentication successful")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validateToken validates a JWT token and returns its claims.
func (m *AuthMiddleware) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.InvalidCredential(nil).WithDetails("method", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.InvalidCredential(err)
	}
	if !token.Valid {
		return nil, errors.InvalidCredential(nil)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.InvalidCredential(nil).WithDetails("reason", "invalid claims type")
	}
	if claims.UserID == 0 {
		return nil, errors.InvalidCredential(nil).WithDetails("reason", "missing user id")
	}

	return claims, nil
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.WriteServiceError(w, r, err)

	serviceErr := errors.GetServiceError(err)
	status := http.StatusInternalServerError
	if serviceErr != nil {
		status = serviceErr.HTTPStatus
	}
	m.logger.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": status,
	}).Warn("authentication failed")
}

// GetUserID extracts the authenticated user id from context.
func GetUserID(ctx context.Context) int64 {
	return logging.GetUserID(ctx)
}

// GetUserRole extracts the authenticated role from context.
func GetUserRole(ctx context.Context) string {
	return logging.GetRole(ctx)
}
