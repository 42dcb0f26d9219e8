package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"tourvisto/internal/session"
)

// SessionAuth attaches the request's session to the context. It never
// rejects a request; RequireIdentity decides what needs a signed-in user.
func SessionAuth(resolver session.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, token := resolver.Resolve(r)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s, token)))
		})
	}
}

// RequireIdentity resolves the current user and redirects page requests
// to signInPath when nobody is signed in. JSON requests get a 401. A
// provider failure is answered with 502, not treated as signed out.
func RequireIdentity(signInPath string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := SessionFromContext(r.Context()).CurrentIdentity(r.Context())
			if err != nil {
				logger.Error("resolve identity failed", "request_id", RequestID(r.Context()), "error", err)
				if wantsJSON(r) {
					WriteError(w, http.StatusBadGateway, CodeAuthUnavailable, "sign-in service unavailable")
					return
				}
				http.Error(w, "Sign-in service is unavailable. Please try again.", http.StatusBadGateway)
				return
			}
			if id == nil || id.ID == "" {
				if wantsJSON(r) {
					WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "sign in required")
					return
				}
				http.Redirect(w, r, signInPath+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
