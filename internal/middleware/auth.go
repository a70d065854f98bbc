package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"canopy/internal/auth"
	"canopy/internal/httputil"
)

// publicPaths skip authentication
var publicPaths = map[string]struct{}{
	"/health": {},
}

// AuthMiddleware resolves the user of each request from its bearer token.
// EventSource cannot set headers, so an access_token query parameter is
// accepted as well. When devUserID is set, requests without any token act as
// that user; verifier may then be nil.
func AuthMiddleware(verifier auth.JWTVerifier, devUserID string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				if devUserID != "" {
					next.ServeHTTP(w, httputil.WithUserID(r, devUserID))
					return
				}
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if verifier == nil {
				httputil.RespondError(w, http.StatusUnauthorized, "token verification is not configured")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("authentication failed", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, claims.GetUserID()))
		})
	}
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}
