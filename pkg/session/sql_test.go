package session_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"interprep/pkg/session"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(session.Schema)
	require.NoError(t, err)

	return db
}

func TestSQLStorage_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := session.NewSQLStorage(setupTestDB(t))

	_, ok, err := s.Get(ctx, session.AccessTokenKey)
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.Set(ctx, session.AccessTokenKey, "A"))
	assert.NoError(t, s.Set(ctx, session.RefreshTokenKey, "B"))
	assert.NoError(t, s.Set(ctx, session.AccessTokenKey, "C"))

	v, ok, err := s.Get(ctx, session.AccessTokenKey)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "C", v)

	assert.NoError(t, s.Delete(ctx, session.AccessTokenKey, session.RefreshTokenKey))

	_, ok, err = s.Get(ctx, session.RefreshTokenKey)
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.Delete(ctx))
}

func TestSQLStorage_ScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	first := session.NewSQLStorage(db)
	second := session.NewSQLStorage(db)
	assert.NotEqual(t, first.Scope, second.Scope)

	assert.NoError(t, first.Set(ctx, session.AccessTokenKey, "first"))
	assert.NoError(t, second.Set(ctx, session.AccessTokenKey, "second"))

	assert.NoError(t, first.Close())

	_, ok, err := first.Get(ctx, session.AccessTokenKey)
	assert.NoError(t, err)
	assert.False(t, ok)

	v, ok, err := second.Get(ctx, session.AccessTokenKey)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestSQLStorage_DBErrors(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := &session.SQLStorage{DB: db, Scope: "tab-1"}

	mock.ExpectQuery("SELECT val FROM session_storage").
		WithArgs("accessToken", "tab-1").
		WillReturnError(errors.New("connection refused"))
	_, _, err = s.Get(ctx, session.AccessTokenKey)
	assert.ErrorContains(t, err, "connection refused")

	mock.ExpectExec("REPLACE INTO session_storage").
		WillReturnError(errors.New("connection refused"))
	assert.Error(t, s.Set(ctx, session.AccessTokenKey, "A"))

	mock.ExpectExec("DELETE FROM session_storage").
		WillReturnError(errors.New("connection refused"))
	assert.Error(t, s.Delete(ctx, session.AccessTokenKey))

	mock.ExpectExec("DELETE FROM session_storage").
		WithArgs("tab-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	assert.NoError(t, s.Close())

	assert.NoError(t, mock.ExpectationsWereMet())
}
