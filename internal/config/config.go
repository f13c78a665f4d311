// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"time"

	"github.com/JonMunkholm/datatable/internal/core"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Table    TableConfig
	Session  SessionConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Fixtures FixturesConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
// The database is optional; without a URL only fixtures are served.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// Tables lists the relations to expose, as "relation[:idColumn]".
	Tables []string `env:"DATABASE_TABLES"`

	// MaxRows bounds a single table load (default: 5000)
	MaxRows int `env:"DATABASE_MAX_ROWS" default:"5000"`

	// WriteBack persists edits and deletions to the source relation (default: false)
	WriteBack bool `env:"DATABASE_WRITE_BACK" default:"false"`
}

// TableConfig holds the widget defaults applied to every opened table.
type TableConfig struct {
	// PageSize is the initial page size; 0 disables paging (default: 10)
	PageSize int `env:"TABLE_PAGE_SIZE" default:"10"`

	// PageSizeOptions are offered by the size changer (default: 10,25,50,100)
	PageSizeOptions []int `env:"TABLE_PAGE_SIZE_OPTIONS" default:"10,25,50,100"`

	// SearchDebounce is the quiet period before typed search applies (default: 500ms)
	SearchDebounce time.Duration `env:"TABLE_SEARCH_DEBOUNCE" default:"500ms"`

	// DefaultWidth is the width given to columns that declare none (default: 150)
	DefaultWidth int `env:"TABLE_DEFAULT_WIDTH" default:"150"`

	// Option flags for database tables. Fixtures carry their own.
	Searchable      bool `env:"TABLE_SEARCHABLE" default:"true"`
	Selectable      bool `env:"TABLE_SELECTABLE" default:"true"`
	Deletable       bool `env:"TABLE_DELETABLE" default:"false"`
	Editable        bool `env:"TABLE_EDITABLE" default:"false"`
	Resizable       bool `env:"TABLE_RESIZABLE" default:"true"`
	Bordered        bool `env:"TABLE_BORDERED" default:"false"`
	StickyHeader    bool `env:"TABLE_STICKY_HEADER" default:"true"`
	ShowSizeChanger bool `env:"TABLE_SHOW_SIZE_CHANGER" default:"true"`
	ShowQuickJumper bool `env:"TABLE_SHOW_QUICK_JUMPER" default:"false"`
}

// Options converts the flags to core options.
func (c TableConfig) Options() core.Options {
	opts := core.Options{
		Searchable:      c.Searchable,
		Selectable:      c.Selectable,
		Deletable:       c.Deletable,
		Editable:        c.Editable,
		Resizable:       c.Resizable,
		Bordered:        c.Bordered,
		StickyHeader:    c.StickyHeader,
		PageSizeOptions: append([]int(nil), c.PageSizeOptions...),
		ShowSizeChanger: c.ShowSizeChanger,
		ShowQuickJumper: c.ShowQuickJumper,
	}
	if len(opts.PageSizeOptions) == 0 {
		opts.PageSizeOptions = core.DefaultOptions().PageSizeOptions
	}
	return opts
}

// SessionConfig holds web session settings.
type SessionConfig struct {
	// TTL is how long an idle session survives (default: 30m)
	TTL time.Duration `env:"SESSION_TTL" default:"30m"`

	// SweepInterval is how often expired sessions are removed (default: 1m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"1m"`

	// MaxSessions caps live sessions; 0 means unlimited (default: 1000)
	MaxSessions int `env:"SESSION_MAX" default:"1000"`

	// MaxLoads caps table loads running at once (default: 4)
	MaxLoads int `env:"SESSION_MAX_LOADS" default:"4"`

	// LoadWait is how long a load waits for a free slot (default: 10s)
	LoadWait time.Duration `env:"SESSION_LOAD_WAIT" default:"10s"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// Burst is the number of requests allowed at once (default: 50)
	Burst int `env:"RATE_LIMIT_BURST" default:"50"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects the JSON API with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// FixturesConfig locates YAML table fixtures.
type FixturesConfig struct {
	// Dir is scanned for *.yaml and *.yml files (default: fixtures)
	Dir string `env:"FIXTURES_DIR" default:"fixtures"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
