package fakeapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/good-yellow-bee/trackadmin/internal/models"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

// store keeps the backend state in a private in-memory SQLite database.
// Lists come back in insertion order.
type store struct {
	db  *sql.DB
	now func() time.Time
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func openStore(ctx context.Context, now func() time.Time) (*store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// An in-memory database lives and dies with its connection, so the
	// pool holds exactly one and never recycles it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := runMigrations(ctx, db, now); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &store{db: db, now: now}, nil
}

func (s *store) close() error {
	return s.db.Close()
}

func (s *store) stamp() int64 {
	return s.now().UTC().UnixNano()
}

func timestamp(ns int64) models.Timestamp {
	return models.NewTimestamp(time.Unix(0, ns).UTC())
}

// inTx runs fn in a transaction and rolls back when it fails.
func (s *store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// nextCode allocates the next "<PREFIX>-0001" style code.
func nextCode(ctx context.Context, q queryer, prefix string) (string, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		INSERT INTO code_sequences (prefix, counter) VALUES (?, 1)
		ON CONFLICT (prefix) DO UPDATE SET counter = counter + 1
		RETURNING counter`, prefix).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("next code for %s: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%04d", prefix, n), nil
}

// exists reports whether query returns a row.
func exists(ctx context.Context, q queryer, query string, args ...any) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, query, args...).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// mustExist maps a missing row to errNotFound, optionally wrapped with what.
func mustExist(ctx context.Context, q queryer, what, query string, args ...any) error {
	ok, err := exists(ctx, q, query, args...)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if what == "" {
		return errNotFound
	}
	return fmt.Errorf("%w: %s", errNotFound, what)
}

// affected maps an update that touched nothing to errNotFound.
func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}

func encodeDocuments(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode documents: %w", err)
	}
	return string(b), nil
}

func decodeDocuments(raw string) ([]string, error) {
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}

// collect scans every row with scan and closes rows.
func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// one scans a single row, mapping sql.ErrNoRows to errNotFound.
func one[T any](row *sql.Row, scan func(scanner) (T, error)) (T, error) {
	v, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, errNotFound
	}
	return v, err
}

// Documents

func (s *store) addDocument(ctx context.Context, id, name, uploadedBy string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, name, uploaded_by, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, uploaded_by = excluded.uploaded_by`,
		id, name, uploadedBy, s.stamp())
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *store) documentIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return collect(rows, func(sc scanner) (string, error) {
		var id string
		err := sc.Scan(&id)
		return id, err
	})
}
