package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// timeLayout is fixed-width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite history store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// An in-memory database lives as long as its one connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the path the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.path
}

func generateID() string {
	return uuid.New().String()
}

// Record saves an invocation.
func (s *SQLiteStore) Record(inv *Invocation) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if inv.ID == "" {
		inv.ID = generateID()
	}

	inputs, err := encodeValues(inv.Inputs)
	if err != nil {
		return fmt.Errorf("failed to encode inputs: %w", err)
	}
	outputs, err := encodeValues(inv.Outputs)
	if err != nil {
		return fmt.Errorf("failed to encode outputs: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO invocations (id, namespace, path, method, inputs, outputs, return_value,
			status, error, started_at, completed_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Namespace, inv.Path, inv.Method, inputs, outputs, inv.ReturnValue,
		string(inv.Status), nullString(inv.Error),
		inv.StartedAt.UTC().Format(timeLayout), inv.CompletedAt.UTC().Format(timeLayout), inv.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to record invocation: %w", err)
	}
	return nil
}

const selectInvocations = `SELECT id, namespace, path, method, inputs, outputs, return_value,
	status, error, started_at, completed_at, duration_ms FROM invocations`

// List returns invocations newest first.
func (s *SQLiteStore) List(limit int) ([]*Invocation, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := selectInvocations + ` ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invocations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	invocations := []*Invocation{}
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, err
		}
		invocations = append(invocations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list invocations: %w", err)
	}
	return invocations, nil
}

// Get retrieves an invocation by ID.
func (s *SQLiteStore) Get(id string) (*Invocation, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	inv, err := scanInvocation(s.db.QueryRow(selectInvocations+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invocation not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvocation(row scanner) (*Invocation, error) {
	inv := &Invocation{}
	var (
		inputs, outputs, status string
		startedAt, completedAt  string
		errMsg                  sql.NullString
	)
	err := row.Scan(&inv.ID, &inv.Namespace, &inv.Path, &inv.Method, &inputs, &outputs,
		&inv.ReturnValue, &status, &errMsg, &startedAt, &completedAt, &inv.DurationMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan invocation: %w", err)
	}

	inv.Status = Status(status)
	if errMsg.Valid {
		inv.Error = errMsg.String
	}
	if inv.Inputs, err = decodeValues(inputs); err != nil {
		return nil, fmt.Errorf("failed to decode inputs of %s: %w", inv.ID, err)
	}
	if inv.Outputs, err = decodeValues(outputs); err != nil {
		return nil, fmt.Errorf("failed to decode outputs of %s: %w", inv.ID, err)
	}
	if inv.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("failed to parse start time of %s: %w", inv.ID, err)
	}
	if inv.CompletedAt, err = time.Parse(timeLayout, completedAt); err != nil {
		return nil, fmt.Errorf("failed to parse completion time of %s: %w", inv.ID, err)
	}
	return inv, nil
}

func encodeValues(values map[string]string) (string, error) {
	if values == nil {
		values = map[string]string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeValues(data string) (map[string]string, error) {
	values := map[string]string{}
	if data == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, err
	}
	return values, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
