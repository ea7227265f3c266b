package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// CookieName is the admin session cookie.
const CookieName = "portfolio_session"

type contextKey int

const adminKey contextKey = iota

// AdminFromContext returns the admin set by Middleware.
func AdminFromContext(ctx context.Context) (*AdminInfo, bool) {
	a, ok := ctx.Value(adminKey).(*AdminInfo)
	return a, ok
}

// AdminInfo is the authenticated admin without credentials.
type AdminInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// TokenFromRequest reads the session cookie.
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// SetSessionCookie writes the session cookie.
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
}

// Middleware rejects requests without a live admin session with 401.
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, err := svc.Authenticate(r.Context(), TokenFromRequest(r))
			if err != nil {
				if !errors.Is(err, ErrUnauthorized) {
					slog.Error("Session lookup failed", "error", err)
				}
				writeUnauthorized(w)
				return
			}

			info := &AdminInfo{ID: admin.ID, Username: admin.Username}
			ctx := context.WithValue(r.Context(), adminKey, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
}
