// Package middleware provides HTTP middleware for the portfolio API.
package middleware

import "net/http"

// CORS returns middleware that handles CORS headers. Credentials are only
// allowed for explicitly listed origins.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed, explicit := matchOrigin(allowedOrigins, origin)
			if origin != "" && allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Add("Vary", "Origin")
				if explicit {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func matchOrigin(allowedOrigins []string, origin string) (allowed, explicit bool) {
	for _, o := range allowedOrigins {
		if o == origin && o != "" {
			return true, true
		}
		if o == "*" {
			allowed = true
		}
	}
	return allowed, false
}

// Origins returns the CORS allow list for the configured frontend. Development
// also accepts any origin without credentials.
func Origins(frontendURL string, dev bool) []string {
	var origins []string
	if frontendURL != "" {
		origins = append(origins, frontendURL)
	}
	if dev {
		origins = append(origins, "*")
	}
	return origins
}
