package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and limits.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	StoreBackend string // document store backend: "github", "mysql", "redis" or "memory"

	GitHubToken string // token with contents read/write permission (github backend)
	GitHubRepo  string // "owner/name" of the repository holding the document
	GitHubPath  string // path of the JSON document inside the repository

	DBUser string // database username (mysql backend)
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	RedisDocKey string // redis key of the document (redis backend)

	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token time-to-live in minutes

	Quotas QuotaConfig // per-segment reservation limits
}

// QuotaConfig carries the per-category limits for both grade segments as
// plain integers so the config layer stays free of domain types; main
// converts it into the engine's quota table.
type QuotaConfig struct {
	EarlyBook int // early-years Book limit
	EarlyGame int // early-years Game limit
	EarlyToy  int // early-years Toy limit
	PrimBook  int // primary Book limit
	PrimGame  int // primary Game limit
	PrimToy   int // primary Toy limit
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Backend-specific
// variables are only required when that backend is selected.
func Load() Config {
	cfg := Config{
		Env:          envStr("APP_ENV", "dev"),
		Port:         envStr("APP_PORT", "8080"),
		StoreBackend: envStr("STORE_BACKEND", "memory"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 120),
		RedisDocKey:  envStr("REDIS_DOC_KEY", "reserva:document"),
		Quotas: QuotaConfig{
			EarlyBook: envInt("QUOTA_EARLY_BOOK", 2),
			EarlyGame: envInt("QUOTA_EARLY_GAME", 1),
			EarlyToy:  envInt("QUOTA_EARLY_TOY", 1),
			PrimBook:  envInt("QUOTA_PRIMARY_BOOK", 3),
			PrimGame:  envInt("QUOTA_PRIMARY_GAME", 2),
			PrimToy:   envInt("QUOTA_PRIMARY_TOY", 1),
		},
	}
	switch cfg.StoreBackend {
	case "github":
		cfg.GitHubToken = must("GITHUB_TOKEN")
		cfg.GitHubRepo = must("GITHUB_REPO")
		cfg.GitHubPath = envStr("GITHUB_PATH", "data/data.json")
	case "mysql":
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	case "redis", "memory":
		// redis connection comes from the shared REDIS_* variables
	default:
		log.Fatalf("unknown STORE_BACKEND: %q", cfg.StoreBackend)
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}
