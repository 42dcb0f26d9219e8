package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"tourvisto/internal/api"
	"tourvisto/internal/attempts"
	"tourvisto/internal/nav"
	"tourvisto/internal/session"
	"tourvisto/internal/tripform"
	"tourvisto/internal/web"
	"tourvisto/pkg/config"
)

type Dependencies struct {
	Cfg    config.Config
	Logger *slog.Logger
	// DB is nil when the attempt log is disabled.
	DB *pgxpool.Pool

	Catalog  web.CatalogSource
	Options  *tripform.OptionSet
	Sidebar  *nav.Sidebar
	Creator  tripform.Creator
	Accounts session.AccountClient
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(api.Logging(deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	webHandlers := web.Handlers{
		Catalog:       deps.Catalog,
		Options:       deps.Options,
		Sidebar:       deps.Sidebar,
		Creator:       deps.Creator,
		Inflight:      web.NewInflight(),
		Logger:        deps.Logger,
		SignInPath:    deps.Cfg.SignInPath,
		MapShapesPath: deps.Cfg.MapShapesPath,
		CatalogWait:   deps.Cfg.Countries.Timeout,
	}
	attemptHandlers := attempts.Handlers{}
	if deps.DB != nil {
		repo := attempts.NewRepository(deps.DB)
		webHandlers.Recorder = repo
		attemptHandlers.Repo = repo
	}
	logout := nav.LogoutHandler{
		CookieName:   deps.Cfg.Auth.SessionCookie,
		SignInPath:   deps.Cfg.SignInPath,
		FallbackPath: "/trips/create",
		Secure:       deps.Cfg.IsProd(),
		Logger:       deps.Logger,
	}

	resolver := session.Resolver{
		Client:     deps.Accounts,
		Secret:     deps.Cfg.Auth.SessionSecret,
		CookieName: deps.Cfg.Auth.SessionCookie,
		Now:        time.Now,
	}

	requireIdentity := api.RequireIdentity(deps.Cfg.SignInPath, deps.Logger)

	r.Get("/assets/world_map.json", webHandlers.WorldMap)

	r.Group(func(r chi.Router) {
		r.Use(api.SessionAuth(resolver))

		r.Post("/logout", logout.ServeHTTP)

		// Typeahead and map data; readable cross-origin by the allowlisted frontends.
		// CORS wraps the whole sub-router so preflights are answered before routing.
		r.Route("/api", func(r chi.Router) {
			r.Use(api.CORSMiddleware(api.CORSOptions{AllowedOrigins: deps.Cfg.AllowedOrigins}))
			r.Get("/options/{field}", webHandlers.FieldOptions)
			r.Get("/countries", webHandlers.Countries)
			r.Get("/map-overlay", webHandlers.MapOverlay)
			r.With(requireIdentity).Get("/attempts/recent", attemptHandlers.Recent)
		})

		// Admin pages
		r.Group(func(r chi.Router) {
			r.Use(requireIdentity)
			r.Get("/trips/create", webHandlers.CreateTripPage)
			r.Post("/trips/create", webHandlers.SubmitTrip)
		})
	})

	return r
}
