package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultPort        = 3000
	DefaultRecentLimit = 100
	MaxRecentLimit     = 1000
	DefaultPollTitle   = "Do you agree?"
)

// Config is read once at startup and passed to whatever needs it.
type Config struct {
	Port        int
	DatabaseURL string
	DatabaseSSL bool
	AdminKey    string
	RecentLimit int
	PollTitle   string
	PollBody    string
	GinMode     string
}

// Load reads .env (if any), then flags, then falls back to environment
// variables. Flags win over env.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}
	return Parse(args)
}

// Parse is Load without touching .env files.
func Parse(args []string) (Config, error) {
	var cfg Config
	var sslFlag string

	fs := flag.NewFlagSet("agreepoll", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL (postgres:// DSN or sqlite file path)")
	fs.StringVar(&sslFlag, "ssl", "", "Require TLS for the database connection (true/false)")
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "Admin shared secret (prefer env)")
	fs.IntVar(&cfg.RecentLimit, "recent", 0, "Number of recent votes shown on the admin page")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d out of range", cfg.Port)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if sslFlag == "" {
		sslFlag = os.Getenv("DATABASE_SSL")
	}
	if sslFlag != "" {
		ssl, err := strconv.ParseBool(sslFlag)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DATABASE_SSL value %q", sslFlag)
		}
		cfg.DatabaseSSL = ssl
	}

	// Compared byte for byte later, so never trimmed here.
	if cfg.AdminKey == "" {
		cfg.AdminKey = os.Getenv("ADMIN_KEY")
	}
	if strings.TrimSpace(cfg.AdminKey) == "" {
		return Config{}, errors.New("ADMIN_KEY required")
	}

	if cfg.RecentLimit == 0 {
		if s := os.Getenv("ADMIN_RECENT_LIMIT"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return Config{}, errors.New("invalid ADMIN_RECENT_LIMIT env variable")
			}
			cfg.RecentLimit = n
		} else {
			cfg.RecentLimit = DefaultRecentLimit
		}
	}
	if cfg.RecentLimit < 1 || cfg.RecentLimit > MaxRecentLimit {
		return Config{}, fmt.Errorf("recent limit must be between 1 and %d", MaxRecentLimit)
	}

	cfg.PollTitle = os.Getenv("POLL_TITLE")
	if cfg.PollTitle == "" {
		cfg.PollTitle = DefaultPollTitle
	}
	cfg.PollBody = os.Getenv("POLL_BODY")
	cfg.GinMode = os.Getenv("GIN_MODE")

	return cfg, nil
}
