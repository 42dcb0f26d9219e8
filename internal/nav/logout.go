package nav

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"tourvisto/internal/api"
)

type LogoutHandler struct {
	CookieName string
	SignInPath string
	// FallbackPath is used when the referrer is missing or off-site.
	FallbackPath string
	Secure       bool
	Logger       *slog.Logger
}

// ServeHTTP ends the provider session. A failed logout is only logged and
// the user is sent back to the page they came from.
func (h LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := api.SessionFromContext(r.Context())
	if err := s.Logout(r.Context()); err != nil {
		h.Logger.Error("Logout failed", "request_id", api.RequestID(r.Context()), "error", err)
		http.Redirect(w, r, h.back(r), http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.SignInPath, http.StatusSeeOther)
}

func (h LogoutHandler) back(r *http.Request) string {
	fallback := h.FallbackPath
	if fallback == "" {
		fallback = "/dashboard"
	}
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") {
		return fallback
	}
	if ref.Host != "" && ref.Host != r.Host {
		return fallback
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
