package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DemoSessionSecret signs session tokens in demo mode when no secret is set.
const DemoSessionSecret = "nutriagenda-demo-session-secret"

// Config captures environment driven configuration values for the service.
type Config struct {
	DemoMode      bool
	HTTPPort      int
	SessionSecret string
	SessionTTL    time.Duration
	StoreTimeout  time.Duration
	MediaDir      string
	PublicBaseURL string
	CORSOrigins   []string
	LogLevel      string
	LogFormat     string

	// Credentials and CredentialsSource are only set outside demo mode.
	Credentials       Credentials
	CredentialsSource string
}

// LoadDotEnv reads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults. Outside demo mode a session secret
// and a credential bundle with a database DSN are required, and startup fails
// rather than silently falling back to demo mode.
func Load() (Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with an explicit directory for the local credential file.
func LoadFrom(workDir string) (Config, error) {
	cfg := Config{
		DemoMode:     true,
		HTTPPort:     8551,
		SessionTTL:   24 * time.Hour,
		StoreTimeout: 5 * time.Second,
		MediaDir:     "./media",
		CORSOrigins:  []string{"*"},
		LogLevel:     "info",
		LogFormat:    "json",
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if demoValue := env("NUTRIAGENDA_DEMO_MODE"); demoValue != "" {
		demo, err := strconv.ParseBool(demoValue)
		if err != nil {
			invalid = append(invalid, "NUTRIAGENDA_DEMO_MODE")
		} else {
			cfg.DemoMode = demo
		}
	}

	if portValue := env("NUTRIAGENDA_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "NUTRIAGENDA_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	cfg.SessionSecret = env("NUTRIAGENDA_SESSION_SECRET")
	if cfg.SessionSecret == "" {
		if cfg.DemoMode {
			cfg.SessionSecret = DemoSessionSecret
		} else {
			missing = append(missing, "NUTRIAGENDA_SESSION_SECRET")
		}
	} else if len(cfg.SessionSecret) < 16 {
		invalid = append(invalid, "NUTRIAGENDA_SESSION_SECRET")
	}

	if ttl, ok := parseDuration("NUTRIAGENDA_SESSION_TTL", &invalid); ok {
		cfg.SessionTTL = ttl
	}
	if timeout, ok := parseDuration("NUTRIAGENDA_STORE_TIMEOUT", &invalid); ok {
		cfg.StoreTimeout = timeout
	}

	if dir := env("NUTRIAGENDA_MEDIA_DIR"); dir != "" {
		cfg.MediaDir = dir
	}
	cfg.PublicBaseURL = strings.TrimRight(env("NUTRIAGENDA_PUBLIC_BASE_URL"), "/")
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = fmt.Sprintf("http://localhost:%d", cfg.HTTPPort)
	}

	if origins := env("NUTRIAGENDA_CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if level := strings.ToLower(env("NUTRIAGENDA_LOG_LEVEL")); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, "NUTRIAGENDA_LOG_LEVEL")
		}
	}
	if format := strings.ToLower(env("NUTRIAGENDA_LOG_FORMAT")); format != "" {
		switch format {
		case "json", "text":
			cfg.LogFormat = format
		default:
			invalid = append(invalid, "NUTRIAGENDA_LOG_FORMAT")
		}
	}

	if !cfg.DemoMode {
		creds, source, err := LoadCredentials(workDir)
		if err != nil {
			return Config{}, fmt.Errorf("no se pudieron cargar las credenciales: %w", err)
		}
		if creds.Database.DSN == "" {
			missing = append(missing, "NUTRIAGENDA_DATABASE_DSN")
		}
		cfg.Credentials = creds
		cfg.CredentialsSource = source
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("faltan variables de entorno obligatorias: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valores de variables de entorno no válidos: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func parseDuration(key string, invalid *[]string) (time.Duration, bool) {
	value := env(key)
	if value == "" {
		return 0, false
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		*invalid = append(*invalid, key)
		return 0, false
	}
	return d, true
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
