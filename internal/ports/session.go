package ports

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Amund211/disparos/internal/logging"
	"github.com/Amund211/disparos/internal/ratelimiting"
)

const (
	SessionCookieName = "disparos_session"
	sessionValue      = "authenticated"
	sessionMaxAge     = 7 * 24 * time.Hour
)

// SessionSigner issues and verifies the session cookie. The cookie carries a
// fixed value and its HMAC-SHA256 under the shared session secret.
type SessionSigner struct {
	secret []byte
	secure bool
}

func NewSessionSigner(secret string, secure bool) *SessionSigner {
	return &SessionSigner{secret: []byte(secret), secure: secure}
}

func (s *SessionSigner) sign(value string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(value))
	return value + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (s *SessionSigner) verify(signed string) bool {
	value, _, ok := strings.Cut(signed, ".")
	if !ok || value != sessionValue {
		return false
	}
	return hmac.Equal([]byte(s.sign(value)), []byte(signed))
}

// IsAuthenticated reports whether the request carries a valid session cookie
func (s *SessionSigner) IsAuthenticated(r *http.Request) bool {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return false
	}
	return s.verify(cookie.Value)
}

func (s *SessionSigner) sessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.sign(sessionValue),
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (s *SessionSigner) clearedCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func passwordMatches(given, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(expected)) == 1
}

func MakeLoginHandler(
	signer *SessionSigner,
	adminPassword string,
	middlewares Middlewares,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		12*time.Second,
		ratelimiting.BurstSize(5),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)

	onLimitExceeded := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logging.FromContext(ctx).InfoContext(ctx, "Rate limit exceeded",
			slog.Int("statusCode", http.StatusTooManyRequests),
			slog.String("key", ipRateLimiter.KeyFor(r)),
		)
		writeError(ctx, w, http.StatusTooManyRequests, causeRateLimited)
	}

	middleware := middlewares.public(
		"login",
		NewRateLimitMiddleware(ipRateLimiter, onLimitExceeded),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		request := struct {
			Password string `json:"password"`
		}{}
		if err := decodeJSONBody(w, r, &request); err != nil {
			writeError(ctx, w, http.StatusBadRequest, causeInvalidBody)
			return
		}

		if !passwordMatches(request.Password, adminPassword) {
			logging.FromContext(ctx).InfoContext(ctx, "Login rejected", slog.Int("statusCode", http.StatusUnauthorized))
			writeError(ctx, w, http.StatusUnauthorized, "Senha incorreta")
			return
		}

		http.SetCookie(w, signer.sessionCookie())
		logging.FromContext(ctx).InfoContext(ctx, "Login accepted")
		writeJSON(ctx, w, http.StatusOK, map[string]bool{"success": true})
	}

	return middleware(handler)
}

func MakeLogoutHandler(signer *SessionSigner, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.public("logout")

	handler := func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, signer.clearedCookie())
		writeJSON(r.Context(), w, http.StatusOK, map[string]bool{"success": true})
	}

	return middleware(handler)
}
