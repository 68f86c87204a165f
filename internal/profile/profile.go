package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where tripprefs stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// Secret signs and verifies access tokens.
	Secret string // TRIPPREFS_SECRET

	// Rate limiting for authenticated API calls, per user.
	RateLimitPerSecond float64 // TRIPPREFS_RATE_LIMIT_RPS (default: 10)
	RateLimitBurst     int     // TRIPPREFS_RATE_LIMIT_BURST (default: 20)

	// AllowedOrigins is the CORS allow list. Empty allows any origin.
	AllowedOrigins []string // TRIPPREFS_ALLOWED_ORIGINS (comma separated)
}

const (
	defaultDevSecret          = "tripprefs-dev-secret"
	defaultRateLimitPerSecond = 10
	defaultRateLimitBurst     = 20
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads the settings that are not exposed as command line flags.
// Values that are already set are left untouched.
func (p *Profile) FromEnv() {
	if p.Secret == "" {
		p.Secret = os.Getenv("TRIPPREFS_SECRET")
	}

	if p.RateLimitPerSecond == 0 {
		raw := getEnvOrDefault("TRIPPREFS_RATE_LIMIT_RPS", strconv.Itoa(defaultRateLimitPerSecond))
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps <= 0 {
			slog.Warn("invalid rate limit, using default", slog.String("value", raw))
			rps = defaultRateLimitPerSecond
		}
		p.RateLimitPerSecond = rps
	}

	if p.RateLimitBurst == 0 {
		raw := getEnvOrDefault("TRIPPREFS_RATE_LIMIT_BURST", strconv.Itoa(defaultRateLimitBurst))
		burst, err := strconv.Atoi(raw)
		if err != nil || burst <= 0 {
			slog.Warn("invalid rate limit burst, using default", slog.String("value", raw))
			burst = defaultRateLimitBurst
		}
		p.RateLimitBurst = burst
	}

	if len(p.AllowedOrigins) == 0 {
		if raw := os.Getenv("TRIPPREFS_ALLOWED_ORIGINS"); raw != "" {
			for _, origin := range strings.Split(raw, ",") {
				if origin = strings.TrimSpace(origin); origin != "" {
					p.AllowedOrigins = append(p.AllowedOrigins, origin)
				}
			}
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q: only 'postgres' and 'sqlite' are supported", p.Driver)
	}

	if p.Secret == "" {
		if p.Mode == "prod" {
			return errors.New("secret is required in prod mode (set TRIPPREFS_SECRET)")
		}
		p.Secret = defaultDevSecret
	}

	// PostgreSQL keeps nothing on local disk.
	if p.Driver == "postgres" {
		if p.DSN == "" {
			return errors.New("dsn is required for the postgres driver")
		}
		return nil
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "tripprefs")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/tripprefs"
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.DSN == "" {
		dbFile := fmt.Sprintf("tripprefs_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
