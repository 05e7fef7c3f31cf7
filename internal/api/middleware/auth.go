package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"lending-engine/internal/config"
	"lending-engine/internal/domain/loan"
)

// Actor is the authenticated caller as placed on the request context.
type Actor struct {
	Username string
	Role     loan.Role
}

type contextKey string

const actorContextKey contextKey = "actor"

// ActorFromContext returns the caller extracted by AuthMiddleware.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(Actor)
	return actor, ok
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

func AuthMiddleware(cfg config.AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		// With auth disabled every request acts as an admin. Meant for
		// local development only.
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := WithActor(r.Context(), Actor{Username: "dev", Role: loan.RoleAdmin})
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := validateJWT(r, cfg.JWTSecret, logger)
			if !ok {
				http.Error(w, `{"error":{"message":"Unauthorized"}}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func validateJWT(r *http.Request, secret string, logger *slog.Logger) (Actor, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		logger.Warn("AuthMiddleware: Missing Authorization header")
		return Actor{}, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		logger.Warn("AuthMiddleware: Invalid Authorization header format")
		return Actor{}, false
	}
	tokenString := parts[1]

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			logger.Warn("AuthMiddleware: Unexpected signing method")
			return nil, http.ErrAbortHandler
		}
		return []byte(secret), nil
	})

	if err != nil || !token.Valid {
		logger.Warn("AuthMiddleware: Invalid token", "error", err)
		return Actor{}, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		logger.Warn("AuthMiddleware: Unexpected claims type")
		return Actor{}, false
	}

	username, _ := claims["username"].(string)
	roleClaim, _ := claims["role"].(string)
	role, err := loan.ParseRole(roleClaim)
	if err != nil {
		logger.Warn("AuthMiddleware: Token carries unknown role", "role", roleClaim)
		return Actor{}, false
	}

	logger.Debug("AuthMiddleware: Authenticated request", "username", username, "role", role)
	return Actor{Username: username, Role: role}, true
}
