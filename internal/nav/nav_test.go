package nav

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tourvisto/internal/api"
	"tourvisto/internal/session"
)

func TestLoadSidebar_Default(t *testing.T) {
	s, err := LoadSidebar("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var hrefs []string
	for _, it := range s.Items {
		hrefs = append(hrefs, it.Href)
	}
	if strings.Join(hrefs, ",") != "/dashboard,/all-users,/trips" {
		t.Fatalf("hrefs = %v", hrefs)
	}
}

func TestParseSidebar_Invalid(t *testing.T) {
	for _, raw := range []string{
		"items: []",
		"items:\n  - id: 1\n    href: dashboard\n    label: Dashboard",
		"items:\n  - id: 1\n    href: /x",
		"items: [",
	} {
		if _, err := ParseSidebar([]byte(raw)); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestRender_Active(t *testing.T) {
	s, _ := LoadSidebar("")
	tests := []struct {
		path string
		want string
	}{
		{"/dashboard", "Dashboard"},
		{"/trips", "AI Trips"},
		{"/trips/create", "AI Trips"},
		{"/tripsx", ""},
		{"/all-users/42", "All Users"},
	}
	for _, tt := range tests {
		v := s.Render(tt.path, nil)
		var active []string
		for _, it := range v.Items {
			if it.Active {
				active = append(active, it.Label)
			}
		}
		if strings.Join(active, ",") != tt.want {
			t.Errorf("Render(%q) active = %v, want %q", tt.path, active, tt.want)
		}
	}
}

func TestRender_Footer(t *testing.T) {
	s, _ := LoadSidebar("")

	v := s.Render("/", &session.Identity{Name: "Ada", Email: "ada@example.com"})
	if v.Footer.ImageURL != DefaultAvatar || v.Footer.Name != "Ada" {
		t.Fatalf("footer = %+v", v.Footer)
	}
	v = s.Render("/", &session.Identity{Name: "Ada", ImageURL: "https://img/ada.png"})
	if v.Footer.ImageURL != "https://img/ada.png" {
		t.Fatalf("footer image = %q", v.Footer.ImageURL)
	}
	if v = s.Render("/", nil); v.Footer.ImageURL != DefaultAvatar || v.Footer.Name != "" {
		t.Fatalf("anonymous footer = %+v", v.Footer)
	}
}

type stubSession struct {
	err    error
	called bool
}

func (s *stubSession) CurrentIdentity(context.Context) (*session.Identity, error) { return nil, nil }

func (s *stubSession) Logout(context.Context) error {
	s.called = true
	return s.err
}

func TestLogout(t *testing.T) {
	var logs bytes.Buffer
	h := LogoutHandler{
		CookieName: "sess",
		SignInPath: "/sign-in",
		Logger:     slog.New(slog.NewTextHandler(&logs, nil)),
	}

	t.Run("success", func(t *testing.T) {
		s := &stubSession{}
		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req = req.WithContext(api.WithSession(req.Context(), s, "tok"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if !s.called || rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/sign-in" {
			t.Fatalf("called=%v status=%d location=%q", s.called, rec.Code, rec.Header().Get("Location"))
		}
		if c := rec.Result().Cookies(); len(c) != 1 || c[0].Name != "sess" || c[0].MaxAge >= 0 {
			t.Fatalf("cookie not cleared: %+v", c)
		}
	})

	t.Run("failure stays silent", func(t *testing.T) {
		s := &stubSession{err: errors.New("provider down")}
		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.Header.Set("Referer", "http://example.com/trips/create")
		req = req.WithContext(api.WithSession(req.Context(), s, "tok"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/trips/create" {
			t.Fatalf("status=%d location=%q", rec.Code, rec.Header().Get("Location"))
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Fatalf("cookie must be kept on failure")
		}
		if !strings.Contains(logs.String(), "Logout failed") {
			t.Fatalf("failure not logged: %s", logs.String())
		}
	})

	t.Run("off-site referrer", func(t *testing.T) {
		s := &stubSession{err: errors.New("provider down")}
		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.Header.Set("Referer", "https://evil.example/phish")
		req = req.WithContext(api.WithSession(req.Context(), s, "tok"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if loc := rec.Header().Get("Location"); loc != "/dashboard" {
			t.Fatalf("location = %q", loc)
		}
	})
}
