package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/MartinusAaD/maad-makes-orders/internal/adapter/logger"
	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
)

type contextKey string

const actorKey contextKey = "actor"

// AuthMiddleware decodes the identity headers set by the authentication
// collaborator at the edge. Absent headers mean an anonymous caller; this
// engine never issues or verifies tokens itself.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := interfaces.Actor{
			UserID:  r.Header.Get("X-User-Id"),
			Email:   r.Header.Get("X-User-Email"),
			IsAdmin: r.Header.Get("X-Is-Admin") == "true",
		}
		if raw := r.Header.Get("X-Customer-Number"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				actor.CustomerNumber = &n
			}
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFrom returns the caller identity; the zero Actor is anonymous.
func ActorFrom(ctx context.Context) interfaces.Actor {
	actor, _ := ctx.Value(actorKey).(interfaces.Actor)
	return actor
}

func LoggingMiddleware(logger logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.NewString()

			logger.Debug("http_request", fmt.Sprintf("%s %s", r.Method, r.URL.Path), requestID, map[string]interface{}{
				"method": r.Method,
				"path":   r.URL.Path,
			})

			next.ServeHTTP(w, r)

			duration := time.Since(start)
			logger.Debug("http_response", "Request completed", requestID, map[string]interface{}{
				"duration_ms": duration.Milliseconds(),
			})
		})
	}
}

func RecoveryMiddleware(logger logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic_recovered", "Panic recovered", "", nil, fmt.Errorf("%v", err))
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
