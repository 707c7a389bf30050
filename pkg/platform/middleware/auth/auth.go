package auth

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	dErrors "squadlink/pkg/domain-errors"
	"squadlink/pkg/platform/audit"
	"squadlink/pkg/platform/httputil"
	request "squadlink/pkg/platform/middleware/request"
	"squadlink/pkg/requestcontext"
)

// Roles carried in the token's role claim.
const (
	RoleAdmin    = "admin"
	RoleProducer = "producer"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	Subject string
	Role    string
}

type contextKeyRole struct{}

// GetRole retrieves the authenticated role from the context
func GetRole(ctx context.Context) string {
	role, ok := ctx.Value(contextKeyRole{}).(string)
	if !ok {
		return ""
	}
	return role
}

// actorTypeFor maps a token role onto the audit actor type.
func actorTypeFor(role string) (audit.ActorType, bool) {
	switch role {
	case RoleAdmin:
		return audit.ActorHuman, true
	case RoleProducer:
		return audit.ActorWebhook, true
	default:
		return "", false
	}
}

// RequireAuth validates the bearer token and records the caller as the
// audit actor for everything the request changes.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			actorType, ok := actorTypeFor(claims.Role)
			if !ok || claims.Subject == "" {
				logger.WarnContext(ctx, "unauthorized access - unknown role",
					"role", claims.Role,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			ctx = context.WithValue(ctx, contextKeyRole{}, claims.Role)
			ctx = requestcontext.WithActor(ctx, actorType, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated callers whose role is not listed.
// It must run after RequireAuth.
func RequireRole(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := GetRole(ctx)
			if !slices.Contains(roles, role) {
				logger.WarnContext(ctx, "forbidden - role not allowed",
					"role", role,
					"path", r.URL.Path,
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "role not allowed"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
