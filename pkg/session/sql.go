package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const storageTable = "session_storage"

// Schema works on both MySQL and SQLite.
const Schema = `
CREATE TABLE IF NOT EXISTS session_storage (
	scope      VARCHAR(36) NOT NULL,
	name       VARCHAR(64) NOT NULL,
	val        TEXT        NOT NULL,
	updated_at DATETIME    NOT NULL,
	PRIMARY KEY (scope, name)
)`

// SQLStorage keeps values in a shared table, partitioned by a scope id that
// is generated per instance. Close drops every row of the scope.
type SQLStorage struct {
	DB    *sql.DB
	Scope string
}

func NewSQLStorage(db *sql.DB) *SQLStorage {
	return &SQLStorage{DB: db, Scope: uuid.NewString()}
}

func (s *SQLStorage) Get(ctx context.Context, key string) (string, bool, error) {
	query, args, err := sq.Select("val").
		From(storageTable).
		Where(sq.Eq{"scope": s.Scope, "name": key}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("building select: %w", err)
	}

	var v string
	err = s.DB.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLStorage) Set(ctx context.Context, key, value string) error {
	query, args, err := sq.Replace(storageTable).
		Columns("scope", "name", "val", "updated_at").
		Values(s.Scope, key, value, time.Now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("building replace: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *SQLStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := sq.Delete(storageTable).
		Where(sq.Eq{"scope": s.Scope, "name": keys}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting keys: %w", err)
	}
	return nil
}

func (s *SQLStorage) Close() error {
	query, args, err := sq.Delete(storageTable).
		Where(sq.Eq{"scope": s.Scope}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}

	if _, err := s.DB.Exec(query, args...); err != nil {
		return fmt.Errorf("clearing scope %s: %w", s.Scope, err)
	}
	return nil
}
