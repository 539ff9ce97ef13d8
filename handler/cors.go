package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// NewCORS rejects requests whose Origin is not in allowedOrigins and adds the
// CORS response headers for the rest. Requests without an Origin header pass.
func NewCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[normalizeOrigin(o)] = struct{}{}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{requestIDHeader},
	})

	return func(next http.Handler) http.Handler {
		wrapped := c.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			origin := req.Header.Get("Origin")
			if origin != "" {
				if _, ok := allowed[normalizeOrigin(origin)]; !ok {
					logAndReturnError(w, req, http.StatusForbidden, ErrorResponse{Error: msgOriginNotAllowed},
						fmt.Errorf("origin %q is not allowed", origin))
					return
				}
			}
			wrapped.ServeHTTP(w, req)
		})
	}
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimSuffix(origin, "/"))
}
