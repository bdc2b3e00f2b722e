package probecache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"trackscan/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes. Mismatched databases are
// recreated since the cache only holds derived data.
const schemaVersion = 1

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Cache is a SQLite-backed probe payload cache. A nil *Cache is valid and
// behaves as an always-empty cache.
type Cache struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens or creates the cache database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Cache, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("probe cache path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create probe cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	cache := &Cache{db: db, path: path, logger: logging.NewComponentLogger(logger, "probecache")}
	if err := cache.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Path returns the database location.
func (c *Cache) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Close releases the database handle.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Lookup returns the cached payload for path when size and mtime still match.
// Lookup errors are logged and reported as misses.
func (c *Cache) Lookup(ctx context.Context, path string, info fs.FileInfo) ([]byte, bool) {
	if c == nil || info == nil {
		return nil, false
	}
	var (
		size    int64
		mtime   int64
		payload []byte
	)
	err := retryOnBusy(ctx, func() error {
		return c.db.QueryRowContext(ctx,
			"SELECT size, mtime_ns, payload FROM probes WHERE path = ?", path,
		).Scan(&size, &mtime, &payload)
	})
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logging.WarnWithContext(c.logger, "probe cache lookup failed", "probe_cache_lookup_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file will be probed again"),
			)
		}
		return nil, false
	}
	if size != info.Size() || mtime != info.ModTime().UnixNano() {
		return nil, false
	}
	return payload, true
}

// Store records a successful payload for path.
func (c *Cache) Store(ctx context.Context, path string, info fs.FileInfo, payload []byte) error {
	if c == nil || info == nil || len(payload) == 0 {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		_, err := c.db.ExecContext(ctx,
			`INSERT INTO probes (path, size, mtime_ns, payload, probed_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(path) DO UPDATE SET size = excluded.size, mtime_ns = excluded.mtime_ns,
			 payload = excluded.payload, probed_at = excluded.probed_at`,
			path, info.Size(), info.ModTime().UnixNano(), payload, time.Now().UTC().Format(time.RFC3339),
		)
		return err
	})
}

// Prune removes entries whose files no longer exist and returns how many were removed.
func (c *Cache) Prune(ctx context.Context) (int, error) {
	if c == nil {
		return 0, nil
	}
	rows, err := c.db.QueryContext(ctx, "SELECT path FROM probes")
	if err != nil {
		return 0, fmt.Errorf("list cached probes: %w", err)
	}
	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan cached probe: %w", err)
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
			stale = append(stale, path)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate cached probes: %w", err)
	}
	rows.Close()

	for _, path := range stale {
		if err := retryOnBusy(ctx, func() error {
			_, execErr := c.db.ExecContext(ctx, "DELETE FROM probes WHERE path = ?", path)
			return execErr
		}); err != nil {
			return 0, fmt.Errorf("delete cached probe %s: %w", path, err)
		}
	}
	return len(stale), nil
}

// Count returns the number of cached payloads.
func (c *Cache) Count(ctx context.Context) (int, error) {
	if c == nil {
		return 0, nil
	}
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM probes").Scan(&n); err != nil {
		return 0, fmt.Errorf("count cached probes: %w", err)
	}
	return n, nil
}

func (c *Cache) initSchema(ctx context.Context) error {
	var tableExists int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return c.createSchema(ctx)
	}

	var version int
	if err := c.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version == schemaVersion {
		return nil
	}
	c.logger.Info("probe cache schema changed; rebuilding",
		logging.Int("found_version", version),
		logging.Int("expected_version", schemaVersion),
	)
	if _, err := c.db.ExecContext(ctx, "DROP TABLE IF EXISTS probes; DROP TABLE IF EXISTS schema_version;"); err != nil {
		return fmt.Errorf("drop stale probe cache: %w", err)
	}
	return c.createSchema(ctx)
}

func (c *Cache) createSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil || !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
