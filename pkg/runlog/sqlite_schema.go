package runlog

// SchemaVersion is the current run log schema version.
const SchemaVersion = 1

// Schema creates the runs table. Timestamps are Unix nanoseconds in UTC.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	model       TEXT NOT NULL,
	mode        TEXT NOT NULL,
	roles       TEXT NOT NULL DEFAULT '[]',
	records     INTEGER NOT NULL DEFAULT 0,
	duration_ns INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	error_kind  TEXT,
	error_dn    TEXT,
	started_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model, started_at);

CREATE TABLE IF NOT EXISTS schema_version (
	version    INTEGER PRIMARY KEY,
	applied_at INTEGER NOT NULL
);
`

const (
	insertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, strftime('%s', 'now'))`
	getSchemaVersion    = `SELECT MAX(version) FROM schema_version`

	insertRun = `
		INSERT INTO runs (id, model, mode, roles, records, duration_ns, error, error_kind, error_dn, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectRuns = `SELECT id, model, mode, roles, records, duration_ns, error, error_kind, error_dn, started_at FROM runs`

	deleteBefore = `DELETE FROM runs WHERE started_at < ?`

	deleteOldest = `
		DELETE FROM runs WHERE id IN (
			SELECT id FROM runs ORDER BY started_at DESC LIMIT -1 OFFSET ?
		)`
)
