package storage

// SchemaVersion is the current usage database schema version.
const SchemaVersion = 1

// Schema creates the usage tables and indexes. Every statement is
// idempotent so the schema can be applied on every startup.
//
// Timestamps are stored as integer nanoseconds since the Unix epoch so
// that both supported drivers bind, compare, and round-trip them
// identically.
const Schema = `
CREATE TABLE IF NOT EXISTS usage_records (
	id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	attempt INTEGER NOT NULL,
	outcome TEXT NOT NULL,
	prompt_tokens INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	total_tokens INTEGER NOT NULL,
	estimated INTEGER NOT NULL,
	estimated_cost REAL NOT NULL,
	latency_ms INTEGER NOT NULL,
	error TEXT
);

CREATE INDEX IF NOT EXISTS idx_usage_timestamp ON usage_records(timestamp);
CREATE INDEX IF NOT EXISTS idx_usage_provider ON usage_records(provider);
CREATE INDEX IF NOT EXISTS idx_usage_request_id ON usage_records(request_id);
CREATE INDEX IF NOT EXISTS idx_usage_outcome ON usage_records(outcome);

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL
);
`

// InsertSchemaVersion records the schema version on first initialization.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion returns the latest applied schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
