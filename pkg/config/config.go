package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often a pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	// DB is only used when DATABASE_URL is empty and DB_HOST is set.
	// With neither, the attempt log is disabled.
	DB DBConfig

	Auth AuthConfig

	Countries CountriesConfig

	TripAPI TripAPIConfig

	// TripOptionsPath and SidebarPath override the embedded YAML.
	TripOptionsPath string
	SidebarPath     string

	// MapShapesPath is a GeoJSON world map served at /assets/world_map.json.
	MapShapesPath string

	// AllowedOrigins is a comma-separated allowlist of origins allowed to call
	// the JSON typeahead endpoints from another host. Example:
	//   http://localhost:5173
	AllowedOrigins []string

	SignInPath string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type AuthConfig struct {
	// Endpoint is the authentication provider REST base, e.g. https://cloud.appwrite.io/v1
	Endpoint  string
	ProjectID string

	// SessionSecret signs the session cookie issued by the sign-in flow (HS256).
	SessionSecret string
	SessionCookie string
}

type CountriesConfig struct {
	SourceURL string
	// FallbackCSV is a snapshot served when the source is unreachable.
	FallbackCSV string
	TTL         time.Duration
	Timeout     time.Duration
}

type TripAPIConfig struct {
	BaseURL string
	// SigningSecret enables the X-Signature header on create requests.
	SigningSecret string
	Timeout       time.Duration
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8080"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "tourvisto"),
			User:     env("DB_USER", "tourvisto"),
			Password: env("DB_PASSWORD", "tourvisto"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			Endpoint:      env("AUTH_ENDPOINT", "https://cloud.appwrite.io/v1"),
			ProjectID:     os.Getenv("AUTH_PROJECT_ID"),
			SessionSecret: os.Getenv("SESSION_SECRET"),
			SessionCookie: env("SESSION_COOKIE", "tourvisto_session"),
		},
		Countries: CountriesConfig{
			SourceURL:   env("COUNTRY_SOURCE_URL", "https://restcountries.com/v3.1/all?fields=name,flag,latlng,maps"),
			FallbackCSV: os.Getenv("COUNTRY_FALLBACK_CSV"),
			TTL:         envDuration("CATALOG_TTL", 24*time.Hour),
			Timeout:     envDuration("COUNTRY_SOURCE_TIMEOUT", 15*time.Second),
		},
		TripAPI: TripAPIConfig{
			BaseURL:       env("TRIP_API_URL", "http://localhost:3000"),
			SigningSecret: os.Getenv("TRIP_API_SIGNING_SECRET"),
			Timeout:       envDuration("TRIP_API_TIMEOUT", 60*time.Second),
		},
		TripOptionsPath: os.Getenv("TRIP_OPTIONS_PATH"),
		SidebarPath:     os.Getenv("SIDEBAR_PATH"),
		MapShapesPath:   os.Getenv("MAP_SHAPES_PATH"),
		AllowedOrigins:  envList("ALLOWED_ORIGINS", ""),
		SignInPath:      env("SIGN_IN_PATH", "/sign-in"),
	}
}

// IsProd reports whether the app runs with production settings.
func (c Config) IsProd() bool {
	return c.AppEnv == "prod"
}

// HasDatabase reports whether any Postgres connection is configured.
func (c Config) HasDatabase() bool {
	return strings.TrimSpace(c.DatabaseURL) != "" || strings.TrimSpace(c.DB.Host) != ""
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
