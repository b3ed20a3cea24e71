package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret is only acceptable for local development.
const DevJWTSecret = "your-secret-key-change-this"

type Config struct {
	Port string

	// Database
	DBDriver   string
	DBDSN      string
	SQLitePath string

	JWTSecret string

	// Budget generation
	BudgetProvider string
	GeminiAPIKey   string
	GeminiModel    string
	GeminiEndpoint string

	FrontendDir       string
	CORSAllowedOrigin string
	HTTPWriteTimeout  time.Duration

	LogLevel  string
	LogFormat string

	OTLPEndpoint string
	OTLPInsecure bool
}

// Load reads an optional .env file and then the environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:              getEnv("PORT", "3000"),
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:             os.Getenv("DB_DSN"),
		SQLitePath:        getEnv("SQLITE_PATH", "./data/budget_advisor.db"),
		JWTSecret:         getEnv("JWT_SECRET", DevJWTSecret),
		BudgetProvider:    strings.ToLower(getEnv("BUDGET_PROVIDER", "gemini")),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiEndpoint:    os.Getenv("GEMINI_ENDPOINT"),
		FrontendDir:       os.Getenv("FRONTEND_DIR"),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
		HTTPWriteTimeout:  readDuration("HTTP_WRITE_TIMEOUT", 90*time.Second),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:      os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",
	}
}

func (c Config) UsesDevSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

func (c Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			problems = append(problems, "SQLITE_PATH cannot be empty when DB_DRIVER is sqlite")
		}
	case "postgres":
		if c.DBDSN == "" {
			problems = append(problems, "DB_DSN is required when DB_DRIVER is postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid DB_DRIVER %q: must be sqlite or postgres", c.DBDriver))
	}

	switch c.BudgetProvider {
	case "gemini", "offline":
	default:
		problems = append(problems, fmt.Sprintf("invalid BUDGET_PROVIDER %q: must be gemini or offline", c.BudgetProvider))
	}

	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET cannot be empty")
	}
	if c.HTTPWriteTimeout < time.Second {
		problems = append(problems, fmt.Sprintf("invalid HTTP_WRITE_TIMEOUT %v: must be at least 1s", c.HTTPWriteTimeout))
	}
	if c.FrontendDir != "" {
		if info, err := os.Stat(c.FrontendDir); err != nil || !info.IsDir() {
			problems = append(problems, fmt.Sprintf("FRONTEND_DIR %q is not a directory", c.FrontendDir))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func readDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
