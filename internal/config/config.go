// Package config maps the process environment into structured,
// validated configuration.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map the deployment's exact variable names (APP_HOST, POSTGRES_USER,
//     POSTGRES_HOST_READER, ...) onto nested Go structs.
//   - Apply defaults for everything the deployment does not set.
//   - Validate required values so the process fails fast on bad config.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads a `.env` file into the process environment,
	// if one exists, before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// envKeys translates the deployment contract's variable names into koanf
// key paths. Variables not listed here are ignored, so unrelated process
// environment never leaks into the config. Alias names (POSTGRES_PASSWORD,
// POSTGRES_DB) are handled separately in Load so that the primary name
// wins when both are set.
var envKeys = map[string]string{
	"APP_HOST":                 "app.host",
	"APP_PORT":                 "app.port",
	"APP_READ_TIMEOUT":         "app.read_timeout",
	"APP_WRITE_TIMEOUT":        "app.write_timeout",
	"APP_IDLE_TIMEOUT":         "app.idle_timeout",
	"APP_CORS_ALLOWED_ORIGINS": "app.cors_allowed_origins",
	"RELOAD":                   "app.reload",
	"ENVIRONMENT":              "environment",
	"LOG_LEVEL":                "log_level",
	"TOKEN_TTL":                "token_ttl",
	"POSTGRES_USER":            "postgres.user",
	"POSTGRES_PASS":            "postgres.pass",
	"POSTGRES_DBNAME":          "postgres.dbname",
	"POSTGRES_HOST":            "postgres.host",
	"POSTGRES_HOST_READER":     "postgres.host_reader",
	"POSTGRES_HOST_WRITER":     "postgres.host_writer",
	"POSTGRES_PORT":            "postgres.port",
	"POSTGRES_SSL_MODE":        "postgres.ssl_mode",
	"POSTGRES_MAX_CONNS":       "postgres.max_conns",
	"POSTGRES_MIN_CONNS":       "postgres.min_conns",
	"DB_WAIT_TIMEOUT":          "postgres.wait_timeout",
	"REDIS_ADDRESS":            "redis.address",
}

// Config is the root configuration object for the application.
//
// Redis is optional: an empty address means the process runs without a
// broker, and every feature that would use it degrades gracefully.
type Config struct {
	App         AppConfig      `koanf:"app" validate:"required"`
	Postgres    PostgresConfig `koanf:"postgres" validate:"required"`
	Redis       RedisConfig    `koanf:"redis"`
	Environment string         `koanf:"environment" validate:"required"`
	LogLevel    string         `koanf:"log_level" validate:"required"`
	TokenTTL    time.Duration  `koanf:"token_ttl" validate:"min=1m"`
}

// AppConfig groups settings for the HTTP server runtime.
//
// Timeouts are stored as whole seconds, matching how the deployment
// passes them in the environment.
type AppConfig struct {
	Host               string   `koanf:"host" validate:"required"`
	Port               int      `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Reload marks a development run. A compiled binary cannot swap its
	// own code, so this toggles the development conveniences instead:
	// console log format, debug level, SQL statement tracing.
	Reload bool `koanf:"reload"`
}

// RedisConfig contains Redis connection details. Address is "host:port".
type RedisConfig struct {
	Address string `koanf:"address"`
}

// Load reads configuration from the environment, applies defaults,
// resolves alias variable names, and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Only variables present in envKeys are loaded; the callback returns
	// "" for everything else, which tells koanf to skip the variable.
	err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	// Unmarshal on top of the defaults: keys absent from the environment
	// keep their default value.
	cfg := defaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	applyAliases(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if err := cfg.Postgres.validateHosts(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyAliases honors the secondary names the deployment may use for the
// database password and name. The primary name always wins.
func applyAliases(cfg *Config) {
	if cfg.Postgres.Pass == "" {
		cfg.Postgres.Pass = os.Getenv("POSTGRES_PASSWORD")
	}
	if cfg.Postgres.Dbname == "" {
		cfg.Postgres.Dbname = os.Getenv("POSTGRES_DB")
	}
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Host:         "0.0.0.0",
			Port:         8081,
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
		},
		Postgres: PostgresConfig{
			Port:        5432,
			SSLMode:     "disable",
			MaxConns:    10,
			MinConns:    1,
			WaitTimeout: 30 * time.Second,
		},
		Environment: "local",
		LogLevel:    "info",
		TokenTTL:    24 * time.Hour,
	}
}

// DevMode reports whether the process should behave like a development
// run: human-readable logs, debug level, SQL tracing.
func (c *Config) DevMode() bool {
	return c.Environment == "local" || c.App.Reload
}

// ListenAddr is the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}
