package ports

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// AllowedOrigins is the set of browser origins the dashboard frontend is
// served from. Origins are matched exactly.
type AllowedOrigins struct {
	origins []string
}

func NewAllowedOrigins(origins ...string) (*AllowedOrigins, error) {
	for _, origin := range origins {
		if !strings.HasPrefix(origin, "https://") && !strings.HasPrefix(origin, "http://") {
			return nil, fmt.Errorf("origin %s should start with a scheme", origin)
		}
		if strings.HasSuffix(origin, "/") {
			return nil, fmt.Errorf("origin %s should not end with a slash", origin)
		}
	}
	return &AllowedOrigins{
		origins: origins,
	}, nil
}

func (allowed *AllowedOrigins) Matches(origin string) bool {
	if origin == "" {
		return false
	}
	return slices.Contains(allowed.origins, origin)
}

func BuildCORSMiddleware(allowedOrigins *AllowedOrigins) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if allowedOrigins.Matches(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")

				if r.Method == http.MethodOptions {
					w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Correlation-Id")
					w.Header().Set("Access-Control-Max-Age", "600")
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}

			next(w, r)
		}
	}
}

func BuildCORSHandler(allowedOrigins *AllowedOrigins) http.HandlerFunc {
	return BuildCORSMiddleware(allowedOrigins)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}
