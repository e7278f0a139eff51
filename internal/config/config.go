package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	SourceFile = "file"
	SourceDB   = "db"
)

type Config struct {
	InputSource  string `validate:"oneof=file db"`
	InputFile    string `validate:"required_if=InputSource file"`
	OutputFormat string `validate:"oneof=table boarding csv json yaml"`

	DatabaseURL  string `validate:"required_if=InputSource db"`
	RecordsTable string `validate:"required_if=InputSource db"`

	NATSURL           string
	NATSSubjectPrefix string `validate:"required"`
	LogNATSSubjects   bool

	MetricsTextfile string
	LogLevel        string `validate:"oneof=trace debug info warn error"`
}

// Load reads .env (if present) and the environment into a Config.
// The result is not validated; call Validate after applying CLI overrides.
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		InputSource:       strings.ToLower(getenvDefault("INPUT_SOURCE", SourceFile)),
		InputFile:         getenvDefault("INPUT_FILE", "out.csv"),
		OutputFormat:      strings.ToLower(getenvDefault("OUTPUT_FORMAT", "table")),
		RecordsTable:      getenvDefault("RECORDS_TABLE", "ridership_records"),
		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: getenvDefault("NATS_SUBJECT_PREFIX", "ridership"),
		LogNATSSubjects:   parseBool(os.Getenv("LOG_NATS_SUBJECTS")),
		MetricsTextfile:   os.Getenv("METRICS_TEXTFILE"),
		LogLevel:          strings.ToLower(getenvDefault("LOG_LEVEL", "info")),
	}

	// Database URL: prefer DATABASE_URL / PG_DSN, else build from PG* vars
	cfg.DatabaseURL = firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("PG_DSN"))
	if cfg.DatabaseURL == "" {
		if db := os.Getenv("PGDATABASE"); db != "" {
			host := getenvDefault("PGHOST", "127.0.0.1")
			port := getenvDefault("PGPORT", "5432")
			user := getenvDefault("PGUSER", "postgres")
			pass := os.Getenv("PGPASSWORD")
			sslmode := getenvDefault("PGSSLMODE", "disable")
			if pass != "" {
				cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
			} else {
				cfg.DatabaseURL = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
			}
		}
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
