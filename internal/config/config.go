package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time expresses TTLs and deadlines
)

// Payment verifier modes accepted by PAYMENT_MODE.
const (
	PaymentModeSimulated      = "simulated"
	PaymentModeReference      = "reference"
	PaymentModeSignedCallback = "signed-callback"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  The types reflect how the values are used
// in the application: strings for identifiers and secrets, durations for
// TTLs and deadlines.
type Config struct {
	Env              string        // application environment (e.g. "dev", "prod")
	Port             string        // HTTP port to listen on
	DBUser           string        // database username
	DBPass           string        // database password (optional)
	DBHost           string        // database host address
	DBPort           string        // database port number
	DBName           string        // database name
	LockTTL          time.Duration // seat lock time-to-live (bounds the payment window)
	UserTokenSecret  string        // secret used to verify user bearer tokens
	DefaultOrigins   string        // origin policy for tenants without an allow-list ("*" or empty)
	PaymentMode      string        // simulated | reference | signed-callback
	PaymentSecret    string        // shared secret for signed payment callbacks
	PaymentGateway   string        // base URL of the payment gateway verify endpoint
	PaymentKey       string        // publishable gateway key returned on create-order
	JanitorEnabled   bool          // run the expired-reservation sweeper
	ShutdownTimeout  time.Duration // drain deadline for graceful shutdown
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Optional values
// fall back to documented defaults.
func Load() Config {
	cfg := Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"), // empty password allowed
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		LockTTL:          time.Duration(optInt("LOCK_TTL_SECONDS", 120)) * time.Second,
		UserTokenSecret:  must("USER_TOKEN_SECRET"),
		DefaultOrigins:   os.Getenv("ALLOWED_ORIGINS_DEFAULT"),
		PaymentMode:      optStr("PAYMENT_MODE", PaymentModeSimulated),
		PaymentSecret:    os.Getenv("PAYMENT_SHARED_SECRET"),
		PaymentGateway:   os.Getenv("PAYMENT_GATEWAY_URL"),
		PaymentKey:       os.Getenv("PAYMENT_GATEWAY_KEY"),
		JanitorEnabled:   optBool("JANITOR_ENABLED", true),
		ShutdownTimeout:  time.Duration(optInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
	}
	switch cfg.PaymentMode {
	case PaymentModeSimulated, PaymentModeReference, PaymentModeSignedCallback:
	default:
		log.Fatalf("invalid PAYMENT_MODE: %q", cfg.PaymentMode)
	}
	if cfg.PaymentMode == PaymentModeSignedCallback && cfg.PaymentSecret == "" {
		log.Fatal("PAYMENT_SHARED_SECRET is required for signed-callback mode")
	}
	if cfg.PaymentMode == PaymentModeReference && cfg.PaymentGateway == "" {
		log.Fatal("PAYMENT_GATEWAY_URL is required for reference mode")
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

// optStr returns the variable's value or the given default when unset.
func optStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// optInt returns the variable parsed as int or the default when unset
// or unparseable.
func optInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

// optBool interprets common truthy/falsy spellings, defaulting when unset.
func optBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return def
}
