package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mercator-hq/dsm/pkg/config"
)

// SQLiteStore persists runs in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	config *config.SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens or creates the database at cfg.Path and applies the
// schema.
func NewSQLiteStore(cfg *config.SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if cfg == nil {
		cfg = &config.SQLiteConfig{
			Path:         config.DefaultRunLogSQLitePath,
			MaxOpenConns: config.DefaultRunLogSQLiteMaxOpen,
			MaxIdleConns: config.DefaultRunLogSQLiteMaxIdle,
			WALMode:      config.DefaultRunLogSQLiteWALMode,
			BusyTimeout:  config.DefaultRunLogSQLiteBusyTimeout,
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "runlog.sqlite")

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storageError("sqlite", "mkdir", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, storageError("sqlite", "open", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	s := &SQLiteStore{db: db, config: cfg, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite run log initialized",
		"path", cfg.Path,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)
	return s, nil
}

// dsn sets the pragmas on every pooled connection.
func dsn(cfg *config.SQLiteConfig) string {
	pragmas := []string{fmt.Sprintf("_pragma=busy_timeout(%d)", cfg.BusyTimeout.Milliseconds())}
	if cfg.WALMode {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	return cfg.Path + "?" + strings.Join(pragmas, "&")
}

func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return storageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		return storageError("sqlite", "insert_schema_version", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return storageError("sqlite", "get_schema_version", err)
	}
	if version.Int64 != SchemaVersion {
		return storageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}
	return nil
}

// Record inserts run.
func (s *SQLiteStore) Record(ctx context.Context, run *Run) error {
	roles, err := json.Marshal(run.Roles)
	if err != nil {
		return storageError("sqlite", "record", err)
	}

	_, err = s.db.ExecContext(ctx, insertRun,
		run.ID, run.Model, run.Mode, string(roles), run.Records, run.Duration.Nanoseconds(),
		nullString(run.Error), nullString(run.ErrorKind), nullString(run.ErrorDN),
		run.StartedAt.UnixNano(),
	)
	if err != nil {
		return storageError("sqlite", "record", err)
	}
	return nil
}

// List returns matching runs, newest first.
func (s *SQLiteStore) List(ctx context.Context, query *Query) ([]*Run, error) {
	where, args := buildWhereClause(query)

	q := selectRuns + where + fmt.Sprintf(" ORDER BY started_at DESC LIMIT %d", query.limit())
	if query != nil && query.Offset > 0 {
		q += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storageError("sqlite", "list", err)
	}
	defer rows.Close()

	runs := make([]*Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, storageError("sqlite", "scan", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("sqlite", "list", err)
	}
	return runs, nil
}

// Count returns the number of matching runs.
func (s *SQLiteStore) Count(ctx context.Context, query *Query) (int64, error) {
	where, args := buildWhereClause(query)

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs"+where, args...).Scan(&n); err != nil {
		return 0, storageError("sqlite", "count", err)
	}
	return n, nil
}

// DeleteBefore removes runs started before t.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	return s.exec(ctx, "delete_before", deleteBefore, t.UnixNano())
}

// DeleteOldest keeps the newest keep runs.
func (s *SQLiteStore) DeleteOldest(ctx context.Context, keep int64) (int64, error) {
	return s.exec(ctx, "delete_oldest", deleteOldest, keep)
}

func (s *SQLiteStore) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, storageError("sqlite", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, storageError("sqlite", op, err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storageError("sqlite", "ping", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return storageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite run log closed")
	return nil
}

// buildWhereClause returns a " WHERE ..." clause, or "", and its arguments.
func buildWhereClause(query *Query) (string, []any) {
	if query == nil {
		return "", nil
	}

	var conditions []string
	var args []any

	if query.Model != "" {
		conditions = append(conditions, "model = ?")
		args = append(args, query.Model)
	}
	if query.Mode != "" {
		conditions = append(conditions, "mode = ?")
		args = append(args, query.Mode)
	}
	switch query.Status {
	case StatusSuccess:
		conditions = append(conditions, "error IS NULL")
	case StatusError:
		conditions = append(conditions, "error IS NOT NULL")
	}
	if !query.Since.IsZero() {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, query.Since.UnixNano())
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var (
		run                      Run
		roles                    string
		durationNS, startedAt    int64
		errMsg, errKind, errorDN sql.NullString
	)
	err := rows.Scan(&run.ID, &run.Model, &run.Mode, &roles, &run.Records, &durationNS,
		&errMsg, &errKind, &errorDN, &startedAt)
	if err != nil {
		return nil, err
	}

	if roles != "" {
		if err := json.Unmarshal([]byte(roles), &run.Roles); err != nil {
			return nil, fmt.Errorf("failed to decode roles: %w", err)
		}
	}
	run.Duration = time.Duration(durationNS)
	run.StartedAt = time.Unix(0, startedAt).UTC()
	run.Error = errMsg.String
	run.ErrorKind = errKind.String
	run.ErrorDN = errorDN.String
	return &run, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
