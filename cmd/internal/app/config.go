package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string

	LogLevel  string
	LogFormat string // "json" (default) or "pretty"
	LogColor  bool

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int

	// Empty DatabaseURL selects the in-memory user store.
	DatabaseURL   string
	DBMaxConns    int32
	DBMinConns    int32
	DBSchema      string
	DBAutoMigrate bool

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("USRV_HTTP_ADDR", "0.0.0.0:3000"),

		LogLevel:  EnvString("USRV_LOG_LEVEL", "info"),
		LogFormat: EnvString("USRV_LOG_FORMAT", "json"),
		LogColor:  EnvBool("USRV_LOG_COLOR", false),

		ReadHeaderTimeout: EnvDuration("USRV_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("USRV_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("USRV_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("USRV_HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   EnvDuration("USRV_HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),

		MaxHeaderBytes: EnvInt("USRV_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL:   EnvString("USRV_DATABASE_URL", ""),
		DBMaxConns:    EnvInt32("USRV_DB_MAX_CONNS", 10),
		DBMinConns:    EnvInt32("USRV_DB_MIN_CONNS", 0),
		DBSchema:      EnvString("USRV_DB_SCHEMA", "usersvc"),
		DBAutoMigrate: EnvBool("USRV_DB_AUTO_MIGRATE", true),

		ReadinessRequireDB: EnvBool("USRV_READINESS_REQUIRE_DB", false),
	}
}
