package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/smartshelf/shelf-api/internal/analysis"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists analysis log entries in SQLite. It implements
// analysis.LogStore. Entries are append-only; the AUTOINCREMENT id is
// strictly increasing and serves as the sole recency ordering key, so clock
// skew between writers cannot reorder history.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the analysis log database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL mode and a busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS analysis_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME NOT NULL,
		status TEXT NOT NULL,
		product_names TEXT NOT NULL,
		execution_time_seconds REAL NOT NULL,
		cost_estimate REAL NOT NULL,
		error_message TEXT,
		detail TEXT,
		criteria TEXT
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create analysis_log table: %w", err)
	}

	indexQuery := `CREATE INDEX IF NOT EXISTS idx_analysis_log_status ON analysis_log(status);`
	if _, err := s.db.Exec(indexQuery); err != nil {
		return fmt.Errorf("failed to create status index: %w", err)
	}

	return nil
}

// Append inserts the entry and returns a copy carrying the assigned id.
func (s *SQLiteStore) Append(ctx context.Context, entry *analysis.LogEntry) (*analysis.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	names := entry.ProductNames
	if names == nil {
		names = []string{}
	}
	namesJSON, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal product names: %w", err)
	}

	var criteriaJSON sql.NullString
	if entry.Criteria != nil {
		b, err := json.Marshal(entry.Criteria)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal criteria: %w", err)
		}
		criteriaJSON = sql.NullString{String: string(b), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_log
			(created_at, status, product_names, execution_time_seconds, cost_estimate, error_message, detail, criteria)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, createdAt, string(entry.Status), string(namesJSON), entry.ExecutionTime, entry.CostEstimate,
		nullString(entry.ErrorMessage), nullString(entry.Detail), criteriaJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to insert log entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted id: %w", err)
	}

	out := *entry
	out.ID = id
	out.CreatedAt = createdAt
	return &out, nil
}

// Query returns entries ordered by id descending, at most limit entries
// (limit <= 0 means unbounded), optionally filtered by status.
func (s *SQLiteStore) Query(ctx context.Context, limit int, status analysis.Status) ([]analysis.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, created_at, status, product_names, execution_time_seconds, cost_estimate, error_message, detail, criteria
		FROM analysis_log
	`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query log entries: %w", err)
	}
	defer rows.Close()

	var entries []analysis.LogEntry
	for rows.Next() {
		var e analysis.LogEntry
		var statusStr, namesJSON string
		var errorMessage, detail, criteriaJSON sql.NullString

		if err := rows.Scan(&e.ID, &e.CreatedAt, &statusStr, &namesJSON, &e.ExecutionTime,
			&e.CostEstimate, &errorMessage, &detail, &criteriaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}

		e.Status = analysis.Status(statusStr)
		if err := json.Unmarshal([]byte(namesJSON), &e.ProductNames); err != nil {
			return nil, fmt.Errorf("failed to unmarshal product names for entry %d: %w", e.ID, err)
		}
		e.ErrorMessage = errorMessage.String
		e.Detail = detail.String
		if criteriaJSON.Valid {
			var c analysis.CriterionVerdict
			if err := json.Unmarshal([]byte(criteriaJSON.String), &c); err != nil {
				return nil, fmt.Errorf("failed to unmarshal criteria for entry %d: %w", e.ID, err)
			}
			e.Criteria = &c
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
