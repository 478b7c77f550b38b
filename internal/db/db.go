package db

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"agreepoll/internal/config"
	"agreepoll/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Driver names the SQL dialect a DSN resolves to.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// DetectDriver picks postgres for URL or keyword DSNs and sqlite for
// everything else (file paths, file: URIs, sqlite:// URLs, :memory:).
func DetectDriver(dsn string) Driver {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DriverPostgres
	case strings.Contains(lower, "host=") || strings.Contains(lower, "dbname="):
		return DriverPostgres
	}
	return DriverSQLite
}

// PostgresDSN applies the TLS flag. With requireTLS the connection uses
// sslmode=require; otherwise a DSN that does not say anything gets
// sslmode=disable.
func PostgresDSN(dsn string, requireTLS bool) (string, error) {
	mode := ""
	if requireTLS {
		mode = "require"
	}

	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid database url: %w", err)
		}
		q := u.Query()
		switch {
		case mode != "":
			q.Set("sslmode", mode)
		case q.Get("sslmode") == "":
			q.Set("sslmode", "disable")
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	// keyword/value form: "host=... user=... sslmode=..."
	fields := strings.Fields(dsn)
	found := false
	for i, f := range fields {
		if strings.HasPrefix(strings.ToLower(f), "sslmode=") {
			found = true
			if mode != "" {
				fields[i] = "sslmode=" + mode
			}
		}
	}
	if !found {
		if mode == "" {
			mode = "disable"
		}
		fields = append(fields, "sslmode="+mode)
	}
	return strings.Join(fields, " "), nil
}

// SQLiteDSN strips the sqlite:// prefix and turns on a busy timeout so
// concurrent writers wait on the lock instead of failing.
func SQLiteDSN(dsn string) string {
	path := strings.TrimPrefix(dsn, "sqlite://")
	if strings.Contains(path, "_pragma=busy_timeout") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)"
}

// Open connects to the store named by cfg. The returned handle is the only
// pool in the process; close it through Close on shutdown.
func Open(cfg config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var (
		conn *gorm.DB
		err  error
	)
	driver := DetectDriver(cfg.DatabaseURL)
	switch driver {
	case DriverPostgres:
		dsn, dsnErr := PostgresDSN(cfg.DatabaseURL, cfg.DatabaseSSL)
		if dsnErr != nil {
			return nil, dsnErr
		}
		conn, err = gorm.Open(postgres.Open(dsn), gormCfg)
	default:
		conn, err = gorm.Open(sqlite.Open(SQLiteDSN(cfg.DatabaseURL)), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if driver == DriverSQLite {
		// one writer at a time; the lock is per file anyway
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	log.Printf("Database connection established (%s)", driver)
	return conn, nil
}

// Migrate creates the votes table, its unique index on ip and the choice
// check constraint. Safe to call on every start.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&models.Vote{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Println("Database migration completed")
	return nil
}

func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
