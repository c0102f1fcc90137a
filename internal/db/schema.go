package db

import "database/sql"

// SchemaVersion is bumped whenever SchemaSQL changes incompatibly.
const SchemaVersion = 1

// SchemaSQL is the complete schema of the run journal.
//
// This is the single source of truth for the journal schema. Tests load it
// through GetSchemaSQL() instead of declaring their own tables, so a column
// referenced by repository code but missing here fails immediately with
// "no such column".
const SchemaSQL = `
-- Runs (one engine invocation)
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	project TEXT NOT NULL,
	target_phase TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('running', 'completed', 'failed')) DEFAULT 'running',
	error TEXT,
	started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project);

-- Phase outcomes within a run
CREATE TABLE IF NOT EXISTS run_phases (
	run_id TEXT NOT NULL,
	phase_id TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('not-started', 'running', 'completed', 'failed')),
	skipped INTEGER NOT NULL DEFAULT 0,
	detail TEXT,
	finished_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (run_id, phase_id),
	FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

-- Artifact outcomes within a run
CREATE TABLE IF NOT EXISTS run_artifacts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	phase_id TEXT NOT NULL,
	path TEXT NOT NULL,
	strategy TEXT NOT NULL,
	result TEXT NOT NULL CHECK(result IN ('written', 'skipped-exists', 'appended', 'unchanged')),
	FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_run_artifacts_run ON run_artifacts(run_id);

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// InitSchema creates the journal schema on a fresh database and records
// its version. Existing databases are left as they are.
func InitSchema(conn *sql.DB) error {
	if _, err := conn.Exec(SchemaSQL); err != nil {
		return err
	}
	_, err := conn.Exec("INSERT OR IGNORE INTO schema_version (version) VALUES (?)", SchemaVersion)
	return err
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
