package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB wraps the GORM database connection
type DB struct {
	*gorm.DB
	Driver string
}

// Options configures how the store is opened
type Options struct {
	Driver      string
	DSN         string
	BusyTimeout time.Duration
	LogLevel    logger.LogLevel
}

// Connect opens the ledger store with foreign keys enforced and a bounded
// wait on lock contention.
func Connect(opts Options) (*DB, error) {
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Silent
	}

	var dialector gorm.Dialector
	switch opts.Driver {
	case "", DriverSQLite:
		opts.Driver = DriverSQLite
		dialector = sqlite.Open(sqliteDSN(opts.DSN, opts.BusyTimeout))
	case DriverPostgres:
		dsn, err := postgresDSN(opts.DSN, opts.BusyTimeout)
		if err != nil {
			return nil, err
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(opts.LogLevel),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", opts.Driver, err)
	}

	// Get underlying SQL DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if opts.Driver == DriverSQLite {
		// One writer, and an in-memory database lives only as long as its connection.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetMaxOpenConns(4)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return &DB{DB: db, Driver: opts.Driver}, nil
}

// sqliteDSN appends the connection pragmas understood by go-sqlite3.
func sqliteDSN(path string, busy time.Duration) string {
	if path == "" {
		path = ":memory:"
	}
	params := url.Values{}
	params.Set("_foreign_keys", "1")
	params.Set("_busy_timeout", fmt.Sprintf("%d", busy.Milliseconds()))
	// Transactions read before they write; take the write lock at BEGIN so
	// the busy timeout covers it.
	params.Set("_txlock", "immediate")
	if path != ":memory:" {
		params.Set("_journal_mode", "WAL")
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params.Encode()
}

// postgresDSN sets lock_timeout as a runtime parameter unless the DSN already does.
func postgresDSN(dsn string, busy time.Duration) (string, error) {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return dsn + fmt.Sprintf(" lock_timeout=%d", busy.Milliseconds()), nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid postgres dsn: %w", err)
	}
	q := u.Query()
	if q.Get("lock_timeout") == "" {
		q.Set("lock_timeout", fmt.Sprintf("%d", busy.Milliseconds()))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Ping checks if the database connection is alive
func (db *DB) Ping() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
