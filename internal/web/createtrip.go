package web

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"tourvisto/internal/api"
	"tourvisto/internal/catalog"
	"tourvisto/internal/nav"
	"tourvisto/internal/tripform"
	"tourvisto/pkg/tripapi"
)

const (
	msgCatalogError   = "Countries could not be loaded."
	msgCatalogLoading = "Countries are still loading. Please refresh the page."

	// formNonceField identifies one rendering of the form across resubmits.
	formNonceField = "formNonce"
)

// CatalogSource is satisfied by *catalog.Loader.
type CatalogSource interface {
	Load(ctx context.Context) catalog.Result
}

type Handlers struct {
	Catalog CatalogSource
	Options *tripform.OptionSet
	Sidebar *nav.Sidebar
	Creator tripform.Creator
	// Recorder is optional.
	Recorder tripform.Recorder
	Inflight *Inflight
	Logger   *slog.Logger

	SignInPath    string
	MapShapesPath string
	// CatalogWait bounds how long a page waits for the first catalog load.
	CatalogWait time.Duration
}

type comboField struct {
	Key      tripform.Field
	Label    string
	Options  []string
	Selected string
}

type createTripPage struct {
	Title        string
	Nav          nav.View
	Countries    []catalog.Option
	CatalogError string
	Fields       []comboField
	Data         tripform.TripFormData
	Duration     string
	Overlay      []tripform.MapOverlay
	Error        string
	SignInURL    string
	Loading      bool
	FormNonce    string
}

// CreateTripPage renders the empty form with the first country preselected.
func (h Handlers) CreateTripPage(w http.ResponseWriter, r *http.Request) {
	res := h.loadCatalog(r.Context())
	store := tripform.NewStore(res.Countries.Default())

	page := h.page(r, res, store.Data())
	page.FormNonce = uuid.NewString()
	page.Loading = h.Inflight.Busy(api.SessionTokenFromContext(r.Context()))

	status := http.StatusOK
	if res.State != catalog.StateReady {
		status = http.StatusServiceUnavailable
	}
	render(w, h.Logger, status, page)
}

// SubmitTrip applies the posted fields to a fresh store and runs the
// submission controller. Success redirects to the created trip.
func (h Handlers) SubmitTrip(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "invalid form")
		return
	}
	ctx := r.Context()

	res := h.loadCatalog(ctx)
	store := tripform.NewStore(res.Countries.Default())
	for _, f := range tripform.Fields {
		if v, ok := r.PostForm[string(f)]; ok && len(v) > 0 {
			_ = store.SetField(f, v[0])
		}
	}
	data := store.Data()

	nonce := r.PostForm.Get(formNonceField)
	if nonce == "" {
		nonce = uuid.NewString()
	}

	token := api.SessionTokenFromContext(ctx)
	if !h.Inflight.Acquire(token) {
		page := h.page(r, res, data)
		page.FormNonce = nonce
		page.Error = tripform.UserMessage(tripform.ErrSubmitInProgress)
		page.Loading = true
		render(w, h.Logger, http.StatusConflict, page)
		return
	}
	defer h.Inflight.Release(token)

	var target string
	ctrl := tripform.NewController(tripform.Deps{
		Session:   api.SessionFromContext(ctx),
		Creator:   h.Creator,
		Navigator: tripform.NavigatorFunc(func(path string) { target = path }),
		Recorder:  h.Recorder,
		Logger:    h.Logger.With("request_id", api.RequestID(ctx)),
	})

	err := ctrl.Submit(tripapi.WithIdempotencyKey(ctx, idempotencyKey(token, nonce)), data)
	if err == nil && target != "" {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	page := h.page(r, res, data)
	page.FormNonce = nonce
	page.Error = ctrl.Status().Error
	if errors.Is(err, tripform.ErrNotAuthenticated) {
		page.SignInURL = h.SignInPath + "?next=" + url.QueryEscape(r.URL.Path)
	}
	render(w, h.Logger, submitStatus(err), page)
}

// idempotencyKey is stable for one form rendering within one session, so a
// resubmitted form maps to the same create-trip request.
func idempotencyKey(token, nonce string) string {
	sum := sha256.Sum256([]byte(token + "\x00" + nonce))
	return hex.EncodeToString(sum[:])
}

func submitStatus(err error) int {
	var verr *tripform.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, tripform.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, tripform.ErrSubmitInProgress):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func (h Handlers) loadCatalog(ctx context.Context) catalog.Result {
	if h.CatalogWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.CatalogWait)
		defer cancel()
	}
	return h.Catalog.Load(ctx)
}

func (h Handlers) page(r *http.Request, res catalog.Result, data tripform.TripFormData) createTripPage {
	p := createTripPage{
		Title:     "Create Trip",
		Nav:       h.Sidebar.Render(r.URL.Path, api.IdentityFromContext(r.Context())),
		Countries: res.Countries.Options(),
		Data:      data,
		Duration:  data.Value(tripform.FieldDuration),
		Overlay:   tripform.Overlay(data.Country, res.Countries),
	}
	switch res.State {
	case catalog.StateError:
		p.CatalogError = msgCatalogError
	case catalog.StateLoading:
		p.CatalogError = msgCatalogLoading
	}
	for _, f := range h.Options.Fields() {
		p.Fields = append(p.Fields, comboField{
			Key:      f,
			Label:    tripform.FormatKey(f),
			Options:  h.Options.Values(f),
			Selected: data.Value(f),
		})
	}
	return p
}
