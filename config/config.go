// Package config loads the service configuration from the environment
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Environment is the deployment environment the service runs in
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

func (e Environment) String() string {
	return string(e)
}

// ParseEnvironment accepts the short names and their long forms
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	}
	return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", s)
}

// Config holds all application configuration
type Config struct {
	Port                  string
	Address               string
	Env                   Environment
	LogLevel              string
	LogRetentionWeeks     int   // Number of weeks to keep log files
	MaxLogFileSize        int64 // Maximum log file size in bytes
	MaxRequestBody        int64 // Maximum request body size in bytes
	MaxHeaderSize         int64 // Maximum header size in bytes
	HistoryLimit          int   // Maximum number of calculations kept in memory
	HistoryRetentionHours int   // Calculations older than this are pruned
}

// HistoryRetention is HistoryRetentionHours as a duration
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.HistoryRetentionHours) * time.Hour
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Load reads the environment and validates the result. Every invalid
// variable is reported, not only the first.
func Load() (*Config, error) {
	r := &envReader{}

	cfg := &Config{
		Port:                  r.str("PORT", "8000"),
		Address:               r.str("ADDRESS", "127.0.0.1"),
		LogLevel:              strings.ToLower(r.str("LOG_LEVEL", "info")),
		LogRetentionWeeks:     r.integer("LOG_RETENTION_WEEKS", 4, 1, 52),
		MaxLogFileSize:        r.size("MAX_LOG_FILE_SIZE", 100<<20, 1<<20, 1<<30),
		MaxRequestBody:        r.size("MAX_REQUEST_BODY", 64<<10, 1, 100<<20),
		MaxHeaderSize:         r.size("MAX_HEADER_SIZE", 1<<20, 1, 100<<20),
		HistoryLimit:          r.integer("HISTORY_LIMIT", 500, 1, 100000),
		HistoryRetentionHours: r.integer("HISTORY_RETENTION_HOURS", 24, 1, 24*30),
	}

	env, err := ParseEnvironment(r.str("ENV", "dev"))
	r.check("ENV", err)
	cfg.Env = env

	r.check("PORT", validatePort(cfg.Port))
	r.check("ADDRESS", validateAddress(cfg.Address))
	r.check("LOG_LEVEL", validateLogLevel(cfg.LogLevel))

	if len(r.errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %w", errors.Join(r.errs...))
	}
	return cfg, nil
}

// envReader reads variables with defaults and collects what is wrong with them
type envReader struct {
	errs []error
}

func (r *envReader) check(key string, err error) {
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
}

func (r *envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *envReader) integer(key string, def, min, max int) int {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		r.check(key, fmt.Errorf("%s must be an integer, got: %s", key, raw))
	case n < min || n > max:
		r.check(key, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, n))
	}
	return n
}

// size accepts plain byte counts as well as "64KiB" or "1 MB"
func (r *envReader) size(key string, def, min, max int64) int64 {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	if strings.HasPrefix(raw, "-") {
		r.check(key, fmt.Errorf("%s must be positive, got: %s", key, raw))
		return 0
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		r.check(key, fmt.Errorf("%s must be a size like 65536 or 64KiB, got: %s", key, raw))
		return 0
	}
	size := int64(n)
	if size < min || size > max {
		r.check(key, fmt.Errorf("%s must be between %s and %s, got: %s",
			key, humanize.IBytes(uint64(min)), humanize.IBytes(uint64(max)), humanize.IBytes(n)))
	}
	return size
}

func validatePort(port string) error {
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}
	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}
	return nil
}

// validateAddress only allows loopback and private addresses: the service
// sits behind a reverse proxy
func validateAddress(address string) error {
	if address == "localhost" {
		return nil
	}
	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}
	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}
	return nil
}

func validateLogLevel(level string) error {
	for _, l := range logLevels {
		if level == l {
			return nil
		}
	}
	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", logLevels, level)
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"HISTORY_LIMIT",
		"HISTORY_RETENTION_HOURS",
	}
}

// SetEnvVars returns the expected variables present in the environment
func SetEnvVars() []string {
	var set []string
	for _, name := range GetEnvVars() {
		if _, ok := os.LookupEnv(name); ok {
			set = append(set, name)
		}
	}
	return set
}
