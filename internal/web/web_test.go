package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"

	"tourvisto/internal/api"
	"tourvisto/internal/catalog"
	"tourvisto/internal/nav"
	"tourvisto/internal/session"
	"tourvisto/internal/tripform"
	"tourvisto/pkg/tripapi"
)

type staticCatalog struct{ res catalog.Result }

func (s staticCatalog) Load(context.Context) catalog.Result { return s.res }

type stubSession struct{ identity *session.Identity }

func (s stubSession) CurrentIdentity(context.Context) (*session.Identity, error) { return s.identity, nil }
func (s stubSession) Logout(context.Context) error                             { return nil }

type stubCreator struct {
	mu    sync.Mutex
	resp  *tripapi.CreateTripResponse
	err   error
	calls []tripapi.CreateTripRequest
	keys  []string
}

func (c *stubCreator) CreateTrip(ctx context.Context, in tripapi.CreateTripRequest) (*tripapi.CreateTripResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, in)
	c.keys = append(c.keys, tripapi.IdempotencyKey(ctx))
	return c.resp, c.err
}

var ada = &session.Identity{ID: "user-1", Name: "Ada", Email: "ada@example.com"}

func readyCatalog() catalog.Result {
	return catalog.Result{State: catalog.StateReady, Countries: catalog.Catalog{
		{DisplayName: "🇯🇵Japan", Value: "Japan", Coordinates: []float64{36, 138}},
		{DisplayName: "🇵🇪Peru", Value: "Peru", Coordinates: []float64{-10, -76}},
	}}
}

type fixture struct {
	handlers Handlers
	creator  *stubCreator
	identity *session.Identity
	token    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	options, err := tripform.LoadOptionSet("")
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	sidebar, err := nav.LoadSidebar("")
	if err != nil {
		t.Fatalf("sidebar: %v", err)
	}
	f := &fixture{
		creator:  &stubCreator{resp: &tripapi.CreateTripResponse{ID: "abc123", StatusCode: 200}},
		identity: ada,
		token:    "tok-1",
	}
	f.handlers = Handlers{
		Catalog:    staticCatalog{res: readyCatalog()},
		Options:    options,
		Sidebar:    sidebar,
		Creator:    f.creator,
		Inflight:   NewInflight(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		SignInPath: "/sign-in",
	}
	return f
}

func (f *fixture) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := api.WithSession(r.Context(), stubSession{identity: f.identity}, f.token)
			if f.identity != nil {
				ctx = api.WithIdentity(ctx, f.identity)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	r.Get("/trips/create", f.handlers.CreateTripPage)
	r.Post("/trips/create", f.handlers.SubmitTrip)
	r.Get("/api/options/{field}", f.handlers.FieldOptions)
	r.Get("/api/countries", f.handlers.Countries)
	r.Get("/api/map-overlay", f.handlers.MapOverlay)
	r.Get("/assets/world_map.json", f.handlers.WorldMap)
	return r
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) post(t *testing.T, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/trips/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(t, req)
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func overlay(t *testing.T, doc *goquery.Document) []tripform.MapOverlay {
	t.Helper()
	var out []tripform.MapOverlay
	if err := json.Unmarshal([]byte(doc.Find("#map-overlay").Text()), &out); err != nil {
		t.Fatalf("decode overlay: %v", err)
	}
	return out
}

func completeForm() url.Values {
	return url.Values{
		"country":     {"Peru"},
		"travelStyle": {"Adventure"},
		"interest":    {"Hiking & Nature Walks"},
		"budget":      {"Mid-range"},
		"groupType":   {"Friends"},
		"duration":    {"7"},
	}
}

func TestCreateTripPage(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/trips/create", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	doc := document(t, rec)

	if got := doc.Find("#country option[selected]").AttrOr("value", ""); got != "Japan" {
		t.Fatalf("default country = %q", got)
	}
	if n := doc.Find("#country option").Length(); n != 3 {
		t.Fatalf("country options = %d", n)
	}
	if got := doc.Find("label[for=travelStyle]").Text(); got != "Travel Style" {
		t.Fatalf("label = %q", got)
	}
	if got := doc.Find("#groupType").AttrOr("placeholder", ""); got != "Select a Group Type" {
		t.Fatalf("placeholder = %q", got)
	}
	if n := doc.Find("#budget-options option").Length(); n != 4 {
		t.Fatalf("budget options = %d", n)
	}

	ov := overlay(t, doc)
	if len(ov) != 1 || ov[0].Country != "Japan" || ov[0].Color != "#EA382E" || len(ov[0].Coordinates) != 2 {
		t.Fatalf("overlay = %+v", ov)
	}

	button := doc.Find("button.button-class")
	if _, disabled := button.Attr("disabled"); disabled || strings.TrimSpace(button.Text()) != "Generate Trip" {
		t.Fatalf("button = %q disabled=%v", button.Text(), disabled)
	}
	if doc.Find(".error").Length() != 0 {
		t.Fatalf("no error expected on first render")
	}
	if got := strings.TrimSpace(doc.Find(".nav-item.active").Text()); got != "AI Trips" {
		t.Fatalf("active nav = %q", got)
	}
	if got := doc.Find(".nav-footer h2").Text(); got != "Ada" {
		t.Fatalf("footer name = %q", got)
	}
	if got := doc.Find(".nav-footer > img").AttrOr("src", ""); got != nav.DefaultAvatar {
		t.Fatalf("footer image = %q", got)
	}
}

func TestCreateTripPage_CatalogError(t *testing.T) {
	f := newFixture(t)
	f.handlers.Catalog = staticCatalog{res: catalog.Result{State: catalog.StateError, Err: errors.New("down")}}

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/trips/create", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	doc := document(t, rec)
	if got := doc.Find(".catalog-error").Text(); got != "Countries could not be loaded." {
		t.Fatalf("catalog error = %q", got)
	}
	if ov := overlay(t, doc); len(ov) != 1 || ov[0].Country != "" || ov[0].Coordinates == nil {
		t.Fatalf("overlay = %+v", ov)
	}
}

func TestSubmitTrip_Success(t *testing.T) {
	f := newFixture(t)
	rec := f.post(t, completeForm())

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/trips/abc123" {
		t.Fatalf("status=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}
	want := tripapi.CreateTripRequest{
		Country: "Peru", TravelStyle: "Adventure", Interests: "Hiking & Nature Walks",
		Budget: "Mid-range", GroupType: "Friends", NumberOfDays: 7, UserID: "user-1",
	}
	if len(f.creator.calls) != 1 || f.creator.calls[0] != want {
		t.Fatalf("calls = %+v", f.creator.calls)
	}
	if f.handlers.Inflight.Busy(f.token) {
		t.Fatalf("in-flight marker must be released")
	}
}

func TestSubmitTrip_IdempotencyKeyFollowsForm(t *testing.T) {
	f := newFixture(t)
	doc := document(t, f.do(t, httptest.NewRequest(http.MethodGet, "/trips/create", nil)))
	nonce := doc.Find("input[name=formNonce]").AttrOr("value", "")
	if nonce == "" {
		t.Fatalf("form must carry a nonce")
	}

	form := completeForm()
	form.Set("formNonce", nonce)
	f.post(t, form)
	f.post(t, form)

	form.Set("formNonce", "another-rendering")
	f.post(t, form)

	f.token = "tok-2"
	form.Set("formNonce", nonce)
	f.post(t, form)

	k := f.creator.keys
	if len(k) != 4 || k[0] == "" {
		t.Fatalf("keys = %v", k)
	}
	if k[0] != k[1] {
		t.Fatalf("resubmitting one form must reuse the key: %q vs %q", k[0], k[1])
	}
	if k[2] == k[0] || k[3] == k[0] {
		t.Fatalf("another form or session must get its own key: %v", k)
	}
}

func TestSubmitTrip_KeepsNonceOnRerender(t *testing.T) {
	f := newFixture(t)
	form := completeForm()
	form.Set("formNonce", "n-1")
	form.Del("budget")

	doc := document(t, f.post(t, form))
	if got := doc.Find("input[name=formNonce]").AttrOr("value", ""); got != "n-1" {
		t.Fatalf("nonce = %q", got)
	}
}

func TestSubmitTrip_DefaultsCountry(t *testing.T) {
	f := newFixture(t)
	form := completeForm()
	form.Del("country")
	if rec := f.post(t, form); rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if f.creator.calls[0].Country != "Japan" {
		t.Fatalf("country = %q", f.creator.calls[0].Country)
	}
}

func TestSubmitTrip_Failures(t *testing.T) {
	tests := []struct {
		name    string
		form    func(url.Values)
		setup   func(*fixture)
		status  int
		message string
		signIn  bool
	}{
		{
			name:    "missing field",
			form:    func(v url.Values) { v.Del("budget") },
			status:  http.StatusUnprocessableEntity,
			message: "Please fill in all fields.",
		},
		{
			name:    "non numeric duration",
			form:    func(v url.Values) { v.Set("duration", "abc") },
			status:  http.StatusUnprocessableEntity,
			message: "Please fill in all fields.",
		},
		{
			name:    "duration too long",
			form:    func(v url.Values) { v.Set("duration", "11") },
			status:  http.StatusUnprocessableEntity,
			message: "Duration must be between 1 and 10 days.",
		},
		{
			name:    "not signed in",
			setup:   func(f *fixture) { f.identity = nil },
			status:  http.StatusUnauthorized,
			message: "Please sign in to create a trip.",
			signIn:  true,
		},
		{
			name:    "backend error",
			setup:   func(f *fixture) { f.creator.err = errors.New("connection refused") },
			status:  http.StatusBadGateway,
			message: "An error occurred while creating the trip.",
		},
		{
			name:    "no trip id",
			setup:   func(f *fixture) { f.creator.resp = &tripapi.CreateTripResponse{StatusCode: 500} },
			status:  http.StatusBadGateway,
			message: "An error occurred while creating the trip.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			form := completeForm()
			if tt.form != nil {
				tt.form(form)
			}

			rec := f.post(t, form)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			doc := document(t, rec)
			if got := doc.Find(".error p").Text(); got != tt.message {
				t.Fatalf("error = %q, want %q", got, tt.message)
			}
			if got := doc.Find(".error a").Length() == 1; got != tt.signIn {
				t.Fatalf("sign-in link shown = %v", got)
			}
			if got := doc.Find("#travelStyle").AttrOr("value", ""); got != "Adventure" {
				t.Fatalf("entered values must be kept, travelStyle = %q", got)
			}
			if got := doc.Find("#country option[selected]").AttrOr("value", ""); got != "Peru" {
				t.Fatalf("selected country = %q", got)
			}
			if ov := overlay(t, doc); ov[0].Country != "Peru" {
				t.Fatalf("overlay follows selection, got %+v", ov)
			}
			if strings.HasPrefix(tt.message, "Please fill") || strings.HasPrefix(tt.message, "Duration") {
				if len(f.creator.calls) != 0 {
					t.Fatalf("validation failures must not call the backend")
				}
			}
		})
	}
}

func TestSubmitTrip_InFlight(t *testing.T) {
	f := newFixture(t)
	f.handlers.Inflight.Acquire(f.token)

	rec := f.post(t, completeForm())
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	doc := document(t, rec)
	button := doc.Find("button.button-class")
	if _, disabled := button.Attr("disabled"); !disabled || strings.TrimSpace(button.Text()) != "Generating..." {
		t.Fatalf("button = %q disabled=%v", button.Text(), disabled)
	}
	if len(f.creator.calls) != 0 {
		t.Fatalf("duplicate submission reached the backend")
	}
	if !f.handlers.Inflight.Busy(f.token) {
		t.Fatalf("the other submission still owns the marker")
	}
}

func decodeItems(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	body := struct {
		Items any `json:"items"`
	}{Items: v}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestFieldOptions(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/options/budget?q=LUX", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var items []catalog.Option
	decodeItems(t, rec, &items)
	if len(items) != 1 || items[0].Value != "Luxury" || items[0].Text != "Luxury" {
		t.Fatalf("items = %+v", items)
	}

	for _, field := range []string{"country", "duration", "nope"} {
		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/options/"+field, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %d", field, rec.Code)
		}
	}
}

func TestCountries(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/countries?q=pe", nil))
	var items []catalog.Option
	decodeItems(t, rec, &items)
	if len(items) != 1 || items[0].Value != "Peru" || items[0].Text != "🇵🇪Peru" {
		t.Fatalf("items = %+v", items)
	}

	f.handlers.Catalog = staticCatalog{res: catalog.Result{State: catalog.StateError}}
	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/countries", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "Countries could not be loaded.") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestMapOverlay(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/map-overlay?country=Peru", nil))
	var items []tripform.MapOverlay
	decodeItems(t, rec, &items)
	if len(items) != 1 || items[0].Coordinates[0] != -10 {
		t.Fatalf("items = %+v", items)
	}

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/map-overlay?country=Atlantis", nil))
	items = nil
	decodeItems(t, rec, &items)
	if len(items) != 1 || items[0].Coordinates == nil || len(items[0].Coordinates) != 0 {
		t.Fatalf("unknown country overlay = %+v", items)
	}
}

func TestWorldMap(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, httptest.NewRequest(http.MethodGet, "/assets/world_map.json", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("unconfigured: status = %d", rec.Code)
	}

	path := filepath.Join(t.TempDir(), "world_map.json")
	if err := os.WriteFile(path, []byte(`{"type":"FeatureCollection","features":[]}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.handlers.MapShapesPath = path
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/assets/world_map.json", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "FeatureCollection") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestInflight(t *testing.T) {
	f := NewInflight()
	if !f.Acquire("a") || f.Acquire("a") || !f.Busy("a") {
		t.Fatalf("second acquire must fail while busy")
	}
	f.Release("a")
	if f.Busy("a") || !f.Acquire("a") {
		t.Fatalf("release must free the key")
	}
	if !f.Acquire("") || !f.Acquire("") {
		t.Fatalf("empty key is never tracked")
	}
	var nilSet *Inflight
	if !nilSet.Acquire("x") || nilSet.Busy("x") {
		t.Fatalf("nil set must not guard")
	}
}
