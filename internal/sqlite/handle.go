package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// Connection pragmas applied to every connection the driver opens.
var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
	"busy_timeout(5000)",
}

// Open opens the SQLite file at path with the store's pragmas. The pool is
// capped at one connection: the store has exactly one writer and every
// transaction must see the same connection state.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dsn, err := dataSourceName(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database %s: %w", path, err)
	}
	return db, nil
}

// dataSourceName builds a file: URI for path carrying the connection
// pragmas. The path is escaped so '?', '#' and '%' in directory or file
// names stay part of the path.
func dataSourceName(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving database path %s: %w", path, err)
	}
	slashed := filepath.ToSlash(abs)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}

	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	u := url.URL{Path: slashed}
	return "file:" + u.EscapedPath() + "?" + q.Encode(), nil
}

// HandleManager owns the single long-lived database handle of the process.
// The first Acquire opens the file and migrates it; later calls return the
// cached handle.
type HandleManager struct {
	mu      sync.Mutex
	path    string
	db      *sql.DB
	version int
	closed  bool
	logger  *slog.Logger
	opts    []RunnerOption
}

// NewHandleManager creates a manager for the database at path. Runner
// options are passed to the migration runner on first acquire.
func NewHandleManager(path string, logger *slog.Logger, opts ...RunnerOption) *HandleManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &HandleManager{
		path:   path,
		logger: logger,
		opts:   append([]RunnerOption{WithLogger(logger)}, opts...),
	}
}

// Path returns the database file path.
func (m *HandleManager) Path() string { return m.path }

// Acquire returns the shared handle, opening and migrating the database on
// the first call. If opening or migration fails the handle is closed and the
// next call starts over.
func (m *HandleManager) Acquire(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, types.ErrClosed
	}
	if m.db != nil {
		return m.db, nil
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := Open(ctx, m.path)
	if err != nil {
		return nil, err
	}

	version, err := NewRunner(db, m.opts...).EnsureCurrent(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	m.db = db
	m.version = version
	m.logger.Debug("database ready", "path", m.path, "version", version)
	return db, nil
}

// Version returns the schema version reached by the last successful
// Acquire, or 0 if none has succeeded.
func (m *HandleManager) Version() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// Close releases the handle. Close is idempotent; Acquire fails afterwards.
func (m *HandleManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}
