package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	yaml "go.yaml.in/yaml/v3"
)

var validate = validator.New()

const (
	defaultSourceURL = "https://www.38.co.kr/html/fund/index.htm?o=k"
	defaultJWTSecret = "supersecretkey"
)

type Config struct {
	Port string `yaml:"port" validate:"required,numeric"`

	// DBDriver is "sqlite" (default), "postgres" or "mysql".
	DBDriver string `yaml:"db_driver" validate:"required"`
	// DBDSN is a file path for sqlite, or a driver DSN for postgres/mysql.
	DBDSN string `yaml:"db_dsn" validate:"required"`

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25, ignored for sqlite).
	DBMaxOpenConns int `yaml:"db_max_open_conns"`
	// DBMaxIdleConns is the maximum number of idle connections (default 5, ignored for sqlite).
	DBMaxIdleConns int `yaml:"db_max_idle_conns"`

	// SourceURL is the listing page that is scraped.
	SourceURL string `yaml:"source_url" validate:"required,http_url"`
	// SourceTableMarker is the summary attribute of the schedule table on that page.
	SourceTableMarker string        `yaml:"source_table_marker" validate:"required"`
	UserAgent         string        `yaml:"user_agent"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout" validate:"gt=0"`

	// ScrapeInterval is the delay between scheduled scrapes (default one week).
	ScrapeInterval time.Duration `yaml:"scrape_interval" validate:"gte=1s"`

	// JWTSecret signs admin tokens for POST /admin/refresh.
	JWTSecret string `yaml:"jwt_secret"`

	// Env is "dev" (default) or "prod". When "prod", JWT_SECRET must be set and not the default.
	Env string `yaml:"env" validate:"oneof=dev prod"`

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string `yaml:"tls_cert_file"`
	TLSKeyFile  string `yaml:"tls_key_file"`

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`
	// LogLevel is debug, info (default), warn or error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// TrustProxy takes the client IP from X-Real-IP / X-Forwarded-For. Enable only behind a trusted proxy.
	TrustProxy bool `yaml:"trust_proxy"`

	// CORSAllowedOrigins is set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:              "8000",
		DBDriver:          "sqlite",
		DBDSN:             "./ipo_schedule.db",
		DBMaxOpenConns:    25,
		DBMaxIdleConns:    5,
		SourceURL:         defaultSourceURL,
		SourceTableMarker: "공모주 청약일정",
		UserAgent:         "Mozilla/5.0 (compatible; IPOBot/1.0)",
		FetchTimeout:      10 * time.Second,
		ScrapeInterval:    7 * 24 * time.Hour,
		JWTSecret:         defaultJWTSecret,
		Env:               "dev",
		LogFormat:         "text",
		LogLevel:          "info",
	}
}

// Load starts from Defaults, overlays the YAML file named by CONFIG_FILE (if any),
// then applies environment variables, and validates the result.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)

	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBDSN = getEnv("DB_DSN", cfg.DBDSN)
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.DBMaxOpenConns)
	cfg.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.DBMaxIdleConns)

	cfg.SourceURL = getEnv("SOURCE_URL", cfg.SourceURL)
	cfg.SourceTableMarker = getEnv("SOURCE_TABLE_MARKER", cfg.SourceTableMarker)
	cfg.UserAgent = getEnv("USER_AGENT", cfg.UserAgent)
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.ScrapeInterval = getEnvDuration("SCRAPE_INTERVAL", cfg.ScrapeInterval)

	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.Env = getEnv("ENV", cfg.Env)

	// Optional TLS configuration for HTTPS.
	cfg.TLSCertFile = getEnv("TLS_CERT_FILE", cfg.TLSCertFile)
	cfg.TLSKeyFile = getEnv("TLS_KEY_FILE", cfg.TLSKeyFile)

	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.TrustProxy = getEnvBool("TRUST_PROXY", cfg.TrustProxy)

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = parseCORSOrigins(v)
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
		} else {
			errs = append(errs, err)
		}
	}
	if c.Env == "prod" && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		errs = append(errs, errors.New("JWT_SECRET must be set to a non-default value when ENV=prod"))
	}
	return errors.Join(errs...)
}

// TLSEnabled reports whether both TLS files are configured.
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
