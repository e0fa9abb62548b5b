package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3" // cgo SQLite driver, registered as "sqlite3"
	_ "modernc.org/sqlite"          // pure Go SQLite driver, registered as "sqlite"
)

const (
	// DriverModernc selects the pure Go driver (default).
	DriverModernc = "sqlite"

	// DriverCGO selects the cgo driver.
	DriverCGO = "sqlite3"

	// DefaultSweepCheckInterval is how many hits pass between size checks.
	DefaultSweepCheckInterval = 256
)

// SQLiteStore implements Store using SQLite, so window state survives a
// restart of a single-instance deployment.
type SQLiteStore struct {
	db        *sql.DB
	driver    string
	closeOnce sync.Once

	hitStmt   *sql.Stmt
	sweepStmt *sql.Stmt
	lenStmt   *sql.Stmt

	sweepThreshold int
	checkInterval  int64
	hits           atomic.Int64
}

// SQLiteStoreConfig configures the SQLite store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// Driver is DriverModernc or DriverCGO.
	// Default: DriverModernc
	Driver string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// SweepThreshold is the row count above which Hit sweeps expired
	// windows, as the memory store does.
	// Default: DefaultSweepThreshold
	SweepThreshold int

	// SweepCheckInterval is how many hits pass between row counts.
	// Default: DefaultSweepCheckInterval
	SweepCheckInterval int
}

// NewSQLiteStore creates a SQLite store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig creates a SQLite store with custom configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.SweepThreshold <= 0 {
		cfg.SweepThreshold = DefaultSweepThreshold
	}
	if cfg.SweepCheckInterval <= 0 {
		cfg.SweepCheckInterval = DefaultSweepCheckInterval
	}

	var dsn string
	switch cfg.Driver {
	case DriverModernc:
		dsn = fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
			cfg.DBPath, cfg.BusyTimeout.Milliseconds())
	case DriverCGO:
		dsn = fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL",
			cfg.DBPath, cfg.BusyTimeout.Milliseconds())
	default:
		return nil, fmt.Errorf("unknown sqlite driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:             db,
		driver:         cfg.Driver,
		sweepThreshold: cfg.SweepThreshold,
		checkInterval:  int64(cfg.SweepCheckInterval),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rate_limit_windows (
		client_key TEXT PRIMARY KEY,
		count INTEGER NOT NULL,
		reset_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rate_limit_windows_reset_at ON rate_limit_windows(reset_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	// SET expressions are evaluated against the pre-update row.
	s.hitStmt, err = s.db.Prepare(`
		INSERT INTO rate_limit_windows (client_key, count, reset_at)
		VALUES (?1, 1, ?3)
		ON CONFLICT (client_key) DO UPDATE SET
			count = CASE WHEN ?2 >= rate_limit_windows.reset_at THEN 1 ELSE rate_limit_windows.count + 1 END,
			reset_at = CASE WHEN ?2 >= rate_limit_windows.reset_at THEN excluded.reset_at ELSE rate_limit_windows.reset_at END
		RETURNING count, reset_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare hit statement: %w", err)
	}

	s.sweepStmt, err = s.db.Prepare(`DELETE FROM rate_limit_windows WHERE reset_at <= ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare sweep statement: %w", err)
	}

	s.lenStmt, err = s.db.Prepare(`SELECT COUNT(*) FROM rate_limit_windows`)
	if err != nil {
		return fmt.Errorf("failed to prepare len statement: %w", err)
	}

	return nil
}

// Hit records one request for key.
func (s *SQLiteStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration) (Entry, error) {
	if key == "" {
		return Entry{}, ErrEmptyKey
	}

	if s.hits.Add(1)%s.checkInterval == 0 {
		if err := s.sweepIfLarge(ctx, now); err != nil {
			return Entry{}, err
		}
	}

	var (
		count   int64
		resetAt int64
	)
	err := s.hitStmt.QueryRowContext(ctx, key, now.UnixMilli(), now.Add(window).UnixMilli()).Scan(&count, &resetAt)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to record hit: %w", err)
	}

	return Entry{Key: key, Count: count, ResetAt: time.UnixMilli(resetAt)}, nil
}

// sweepIfLarge sweeps expired windows once the table outgrows the
// threshold, so the table stays bounded without the heartbeat.
func (s *SQLiteStore) sweepIfLarge(ctx context.Context, now time.Time) error {
	n, err := s.Len(ctx)
	if err != nil {
		return err
	}
	if n <= s.sweepThreshold {
		return nil
	}
	_, err = s.Sweep(ctx, now)
	return err
}

// Sweep removes expired entries.
func (s *SQLiteStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	result, err := s.sweepStmt.ExecContext(ctx, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(deleted), nil
}

// Len returns the number of stored entries.
func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.lenStmt.QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database. Close is idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.hitStmt, s.sweepStmt, s.lenStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		closeErr = s.db.Close()
	})

	return closeErr
}
