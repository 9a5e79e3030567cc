package middleware

import (
	"datalingua/internal/config"
	"net/http"
)

// CORS sets the configured cross-origin headers and answers preflight requests
func CORS(cfg config.HTTPConfig) func(http.Handler) http.Handler {
	origins := orDefault(cfg.CORSOrigins, "*")
	methods := orDefault(cfg.CORSMethods, "GET, POST, PUT, DELETE, OPTIONS")
	headers := orDefault(cfg.CORSHeaders, "Content-Type, Authorization")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origins)
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
