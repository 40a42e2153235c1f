package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/Dicommunitas/terminal-3d-core/internal/entity"
	"github.com/Dicommunitas/terminal-3d-core/internal/events"
	"github.com/Dicommunitas/terminal-3d-core/internal/simulation"
)

const (
	// DefaultDSN keeps the journal entirely in memory; nothing outlives
	// the process.
	DefaultDSN = ":memory:"

	defaultQueryLimit = 50
	maxQueryLimit     = 200

	connectionTimeout = 5 * time.Second
)

// Change sources recorded alongside equipment entries.
const (
	SourceOperation = "operation"
	SourceJitter    = "jitter"
	SourceManual    = "manual"
)

// schema is created at Open; IF NOT EXISTS keeps reopening a file DSN safe.
const schema = `
CREATE TABLE IF NOT EXISTS equipment_history (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	equipment_id TEXT NOT NULL,
	kind         TEXT NOT NULL,
	state        TEXT NOT NULL,
	source       TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_equipment_history_lookup
	ON equipment_history(equipment_id, created_at);

CREATE TABLE IF NOT EXISTS operation_history (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	operation_id TEXT NOT NULL,
	op_type      TEXT NOT NULL,
	status       TEXT NOT NULL,
	progress     REAL NOT NULL,
	transferred  REAL NOT NULL,
	error        TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_operation_history_lookup
	ON operation_history(operation_id, created_at);
`

// Config contains journal configuration options.
type Config struct {
	// DSN is the SQLite connection string; DefaultDSN when empty.
	DSN string
}

// Logger defines the logging interface used by the Journal.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// EquipmentEntry is one recorded equipment state change.
type EquipmentEntry struct {
	ID          int64
	EquipmentID string
	Kind        string
	State       entity.Equipment
	Source      string
	CreatedAt   time.Time
}

// OperationEntry is one recorded operation outcome.
type OperationEntry struct {
	ID          int64
	OperationID string
	Type        string
	Status      string
	Progress    float64
	Transferred float64
	Error       string
	CreatedAt   time.Time
}

// Journal records equipment state changes and operation outcomes in SQLite.
//
// The default DSN is in-memory: the journal gives collaborators a queryable
// record of what happened during the session, including terminal operation
// outcomes the in-flight ledger has already evicted, without persisting
// anything across restarts.
type Journal struct {
	db     *sql.DB
	logger Logger
}

// Open opens the journal and creates its schema.
func Open(cfg Config) (*Journal, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = DefaultDSN
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	// A single connection keeps :memory: databases on one schema and
	// respects SQLite's single-writer model for file DSNs.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying journal connection: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}

	return &Journal{db: db, logger: noopLogger{}}, nil
}

// SetLogger sets the logger for the journal.
func (j *Journal) SetLogger(logger Logger) {
	j.logger = logger
}

// Close closes the journal. An in-memory journal is discarded entirely.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("closing journal: %w", err)
	}
	return nil
}

// RecordEquipmentChange inserts a new equipment state entry.
func (j *Journal) RecordEquipmentChange(ctx context.Context, e entity.Equipment, source string) error {
	if e.ID == "" {
		return fmt.Errorf("equipment id is required")
	}
	if source == "" {
		source = SourceManual
	}

	stateJSON, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshalling equipment state: %w", err)
	}

	_, err = j.db.ExecContext(ctx,
		"INSERT INTO equipment_history (equipment_id, kind, state, source, created_at) VALUES (?, ?, ?, ?, ?)",
		e.ID,
		string(e.Kind),
		string(stateJSON),
		source,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting equipment history: %w", err)
	}
	return nil
}

// EquipmentHistory returns recent entries for one equipment id, newest
// first. Limit defaults to 50 and caps at 200.
func (j *Journal) EquipmentHistory(ctx context.Context, equipmentID string, limit int) ([]EquipmentEntry, error) {
	if equipmentID == "" {
		return nil, fmt.Errorf("equipment id is required")
	}
	limit = clampLimit(limit)

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, equipment_id, kind, state, source, created_at
		 FROM equipment_history
		 WHERE equipment_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		equipmentID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying equipment history: %w", err)
	}
	defer rows.Close()

	entries := make([]EquipmentEntry, 0, limit)
	for rows.Next() {
		var entry EquipmentEntry
		var stateJSON, createdAt string

		if err := rows.Scan(&entry.ID, &entry.EquipmentID, &entry.Kind, &stateJSON, &entry.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning equipment history: %w", err)
		}
		if err := json.Unmarshal([]byte(stateJSON), &entry.State); err != nil {
			return nil, fmt.Errorf("unmarshalling equipment state: %w", err)
		}
		timestamp, err := parseTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt = timestamp
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating equipment history: %w", err)
	}
	return entries, nil
}

// RecordOperation inserts an operation status entry.
func (j *Journal) RecordOperation(ctx context.Context, op simulation.Operation) error {
	if op.ID == "" {
		return fmt.Errorf("operation id is required")
	}

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO operation_history (operation_id, op_type, status, progress, transferred, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		op.ID,
		string(op.Type),
		string(op.Status),
		op.Progress,
		op.Transferred,
		op.Error,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting operation history: %w", err)
	}
	return nil
}

// OperationHistory returns entries for one operation id, newest first.
func (j *Journal) OperationHistory(ctx context.Context, operationID string, limit int) ([]OperationEntry, error) {
	if operationID == "" {
		return nil, fmt.Errorf("operation id is required")
	}
	return j.queryOperations(ctx,
		`SELECT id, operation_id, op_type, status, progress, transferred, error, created_at
		 FROM operation_history
		 WHERE operation_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		operationID, clampLimit(limit))
}

// RecentOperations returns the latest entries across all operations.
func (j *Journal) RecentOperations(ctx context.Context, limit int) ([]OperationEntry, error) {
	return j.queryOperations(ctx,
		`SELECT id, operation_id, op_type, status, progress, transferred, error, created_at
		 FROM operation_history
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		clampLimit(limit))
}

func (j *Journal) queryOperations(ctx context.Context, query string, args ...any) ([]OperationEntry, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying operation history: %w", err)
	}
	defer rows.Close()

	var entries []OperationEntry
	for rows.Next() {
		var entry OperationEntry
		var createdAt string

		if err := rows.Scan(&entry.ID, &entry.OperationID, &entry.Type, &entry.Status,
			&entry.Progress, &entry.Transferred, &entry.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning operation history: %w", err)
		}
		timestamp, err := parseTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt = timestamp
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operation history: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than the given duration from both tables.
func (j *Journal) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)

	var deleted int64
	for _, table := range []string{"equipment_history", "operation_history"} {
		result, err := j.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE created_at < ?", cutoff)
		if err != nil {
			return deleted, fmt.Errorf("pruning %s: %w", table, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return deleted, fmt.Errorf("checking rows affected: %w", err)
		}
		deleted += n
	}
	return deleted, nil
}

// Attach subscribes the journal to the bus: terminal operation statuses and
// equipment change events are recorded as they are broadcast. The returned
// subscriptions detach it again.
func (j *Journal) Attach(bus *events.Bus) []*events.Subscription {
	opSub := bus.Subscribe(events.TopicOperationStatus, func(ev events.Event) {
		op, ok := ev.Payload.(simulation.Operation)
		if !ok || !op.Status.Terminal() {
			return
		}
		if err := j.RecordOperation(context.Background(), op); err != nil {
			j.logger.Warn("failed to journal operation", "operation", op.ID, "error", err)
		}
	})
	eqSub := bus.Subscribe(events.TopicEquipmentChange, func(ev events.Event) {
		e, ok := ev.Payload.(entity.Equipment)
		if !ok {
			return
		}
		if err := j.RecordEquipmentChange(context.Background(), e, SourceJitter); err != nil {
			j.logger.Warn("failed to journal equipment change", "id", e.ID, "error", err)
		}
	})
	return []*events.Subscription{opSub, eqSub}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultQueryLimit
	case limit > maxQueryLimit:
		return maxQueryLimit
	default:
		return limit
	}
}

// parseTimestamp parses a timestamp stored in SQLite.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}
	timestamp, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return timestamp, nil
}
