package ports

import (
	"log/slog"
	"net/http"

	"github.com/Amund211/disparos/internal/logging"
	"github.com/Amund211/disparos/internal/ratelimiting"
	"github.com/Amund211/disparos/internal/reporting"
)

func NewRateLimitMiddleware(rateLimiter ratelimiting.RequestRateLimiter, onLimitExceeded http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !rateLimiter.Consume(r) {
				onLimitExceeded(w, r)
				return
			}

			next(w, r)
		}
	}
}

// NewSessionMiddleware rejects requests for which isAuthenticated is false
func NewSessionMiddleware(isAuthenticated func(*http.Request) bool) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !isAuthenticated(r) {
				ctx := r.Context()
				logging.FromContext(ctx).InfoContext(ctx, "Rejected unauthenticated request", slog.Int("statusCode", http.StatusUnauthorized))
				writeError(ctx, w, http.StatusUnauthorized, causeUnauthorized)
				return
			}

			next(w, r)
		}
	}
}

func ComposeMiddlewares(middlewares ...func(http.HandlerFunc) http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	if len(middlewares) == 1 {
		return middlewares[0]
	}
	first := middlewares[0]
	rest := ComposeMiddlewares(middlewares[1:]...)
	return func(h http.HandlerFunc) http.HandlerFunc {
		return first(rest(h))
	}
}

// Middlewares holds what every handler is wrapped with
type Middlewares struct {
	AllowedOrigins   *AllowedOrigins
	IsAuthenticated  func(*http.Request) bool
	RootLogger       *slog.Logger
	SentryMiddleware func(http.HandlerFunc) http.HandlerFunc
}

func (m Middlewares) public(portName string, extra ...func(http.HandlerFunc) http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	middlewares := []func(http.HandlerFunc) http.HandlerFunc{
		buildMetricsMiddleware(portName),
		logging.NewRequestLoggerMiddleware(m.RootLogger),
		m.SentryMiddleware,
		reporting.NewAddMetaMiddleware(portName),
		BuildCORSMiddleware(m.AllowedOrigins),
	}
	return ComposeMiddlewares(append(middlewares, extra...)...)
}

func (m Middlewares) authenticated(portName string) func(http.HandlerFunc) http.HandlerFunc {
	return m.public(portName, NewSessionMiddleware(m.IsAuthenticated))
}
