// Package storage provides the usage ledger's persistence backends.
//
// SQLiteStorage is the production backend. It supports two database/sql
// drivers selected by name: "sqlite3" (github.com/mattn/go-sqlite3, cgo)
// and "sqlite" (modernc.org/sqlite, pure Go). The pure Go driver trades
// some write throughput for painless cross-compilation.
//
// MemoryStorage is a map-backed implementation for tests.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers driver "sqlite3"
	_ "modernc.org/sqlite"          // registers driver "sqlite"

	"aurora-ml/relay/pkg/providers"
	"aurora-ml/relay/pkg/usage"
)

// Config contains configuration for the SQLite storage backend.
type Config struct {
	// Driver selects the database/sql driver: "sqlite3" (cgo) or
	// "sqlite" (pure Go).
	// Default: "sqlite3"
	Driver string

	// Path is the database file path. Parent directories are created
	// as needed.
	// Default: "data/usage.db"
	Path string

	// MaxOpenConns is the connection pool size.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the number of idle connections retained.
	// Default: 5
	MaxIdleConns int

	// WALMode enables write-ahead logging so reads do not block the
	// recorder's writes.
	// Default: true
	WALMode bool

	// BusyTimeout is how long a connection waits on a locked database
	// before failing.
	// Default: 5s
	BusyTimeout time.Duration
}

// DefaultConfig returns the default SQLite storage configuration.
func DefaultConfig() *Config {
	return &Config{
		Driver:       "sqlite3",
		Path:         "data/usage.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the usage.Storage interface on a SQLite
// database file.
type SQLiteStorage struct {
	db     *sql.DB
	config *Config
	logger *slog.Logger
}

// NewSQLiteStorage opens the database file and initializes the schema.
func NewSQLiteStorage(config *Config, logger *slog.Logger) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "usage.storage.sqlite")

	driver := config.Driver
	if driver == "" {
		driver = "sqlite3"
	}
	if driver != "sqlite3" && driver != "sqlite" {
		return nil, usage.NewStorageError("sqlite", "open",
			fmt.Errorf("unknown sqlite driver %q (want \"sqlite3\" or \"sqlite\")", driver))
	}

	if dir := filepath.Dir(config.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, usage.NewStorageError("sqlite", "open", err)
		}
	}

	db, err := sql.Open(driver, config.Path)
	if err != nil {
		return nil, usage.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("usage storage initialized",
		"driver", driver,
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize applies pragmas and creates the schema.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return usage.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMS := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMS)); err != nil {
		return usage.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return usage.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return usage.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return usage.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return usage.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Store persists a usage record.
func (s *SQLiteStorage) Store(ctx context.Context, record *usage.UsageRecord) error {
	const query = `
		INSERT INTO usage_records (
			id, request_id, timestamp, provider, model, attempt, outcome,
			prompt_tokens, completion_tokens, total_tokens, estimated,
			estimated_cost, latency_ms, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	// Empty error messages become NULL.
	var errVal any
	if record.Error != "" {
		errVal = record.Error
	}

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.RequestID, record.Timestamp.UnixNano(),
		string(record.Provider), record.Model, record.Attempt, record.Outcome,
		record.PromptTokens, record.CompletionTokens, record.TotalTokens, record.Estimated,
		record.EstimatedCost, record.LatencyMS, errVal,
	)
	if err != nil {
		return usage.NewStorageError("sqlite", "store", err)
	}

	return nil
}

const selectColumns = `id, request_id, timestamp, provider, model, attempt, outcome,
	prompt_tokens, completion_tokens, total_tokens, estimated,
	estimated_cost, latency_ms, error`

// Query retrieves records matching the query, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, query *usage.Query) ([]*usage.UsageRecord, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT " + selectColumns + " FROM usage_records"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += " ORDER BY timestamp DESC"
	sqlQuery += fmt.Sprintf(" LIMIT %d", query.EffectiveLimit())
	if query != nil && query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, usage.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*usage.UsageRecord{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, usage.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, usage.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Count returns the number of records matching the query.
func (s *SQLiteStorage) Count(ctx context.Context, query *usage.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM usage_records"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, usage.NewStorageError("sqlite", "count", err)
	}

	return count, nil
}

// Summarize aggregates records with Timestamp >= since, grouped by
// provider and ordered by provider name.
func (s *SQLiteStorage) Summarize(ctx context.Context, since time.Time) (*usage.Summary, error) {
	const query = `
		SELECT provider,
			COUNT(*),
			SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
			SUM(prompt_tokens),
			SUM(completion_tokens),
			SUM(total_tokens),
			SUM(estimated_cost)
		FROM usage_records
		WHERE timestamp >= ?
		GROUP BY provider
		ORDER BY provider
	`

	rows, err := s.db.QueryContext(ctx, query, usage.OutcomeSuccess, since.UnixNano())
	if err != nil {
		return nil, usage.NewStorageError("sqlite", "summarize", err)
	}
	defer rows.Close()

	summary := &usage.Summary{
		Since:       since,
		GeneratedAt: time.Now(),
	}

	for rows.Next() {
		var (
			provider string
			ps       usage.ProviderSummary
		)
		err := rows.Scan(&provider, &ps.Requests, &ps.Successes,
			&ps.PromptTokens, &ps.CompletionTokens, &ps.TotalTokens, &ps.EstimatedCost)
		if err != nil {
			return nil, usage.NewStorageError("sqlite", "summarize", err)
		}

		ps.Provider = providers.Kind(provider)
		ps.Failures = ps.Requests - ps.Successes
		if ps.Requests > 0 {
			ps.SuccessRate = float64(ps.Successes) / float64(ps.Requests)
		}

		summary.Providers = append(summary.Providers, ps)
		summary.TotalRequests += ps.Requests
		summary.TotalTokens += ps.TotalTokens
		summary.TotalCost += ps.EstimatedCost
	}
	if err := rows.Err(); err != nil {
		return nil, usage.NewStorageError("sqlite", "summarize", err)
	}

	return summary, nil
}

// DeleteBefore removes records older than cutoff and returns the number
// removed.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM usage_records WHERE timestamp < ?", cutoff.UnixNano())
	if err != nil {
		return 0, usage.NewStorageError("sqlite", "delete", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, usage.NewStorageError("sqlite", "delete", err)
	}

	return deleted, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return usage.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("usage storage closed")
	return nil
}

// buildWhereClause turns query filters into a WHERE clause and its
// arguments. An empty clause means no filters were set.
func buildWhereClause(query *usage.Query) (string, []any) {
	if query == nil {
		return "", nil
	}

	var clauses []string
	var args []any

	if query.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, query.Since.UnixNano())
	}
	if query.Until != nil {
		clauses = append(clauses, "timestamp < ?")
		args = append(args, query.Until.UnixNano())
	}
	if query.Provider != "" {
		clauses = append(clauses, "provider = ?")
		args = append(args, string(query.Provider))
	}
	if query.Model != "" {
		clauses = append(clauses, "model = ?")
		args = append(args, query.Model)
	}
	if query.Outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, query.Outcome)
	}
	if query.RequestID != "" {
		clauses = append(clauses, "request_id = ?")
		args = append(args, query.RequestID)
	}

	return strings.Join(clauses, " AND "), args
}

// scanRow reads one usage record from the current row.
func scanRow(rows *sql.Rows) (*usage.UsageRecord, error) {
	var (
		record    usage.UsageRecord
		timestamp int64
		provider  string
		errText   sql.NullString
	)

	err := rows.Scan(
		&record.ID, &record.RequestID, &timestamp,
		&provider, &record.Model, &record.Attempt, &record.Outcome,
		&record.PromptTokens, &record.CompletionTokens, &record.TotalTokens, &record.Estimated,
		&record.EstimatedCost, &record.LatencyMS, &errText,
	)
	if err != nil {
		return nil, err
	}

	record.Timestamp = time.Unix(0, timestamp)
	record.Provider = providers.Kind(provider)
	if errText.Valid {
		record.Error = errText.String
	}

	return &record, nil
}
