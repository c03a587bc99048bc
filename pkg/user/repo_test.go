package user_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"interprep/pkg/user"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(user.Schema)
	require.NoError(t, err)

	return db
}

func TestSQLRepo_CreateAndFind(t *testing.T) {
	repo := user.NewSQLRepo(setupTestDB(t))
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	alice := &user.User{
		ID:        "user123",
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "hashed_pass",
		CreatedAt: created,
		IsActive:  true,
	}
	require.NoError(t, repo.Create(alice))

	dup := *alice
	dup.ID = "user124"
	assert.Error(t, repo.Create(&dup), "username must be unique")

	u, err := repo.FindByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, "user123", u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.True(t, created.Equal(u.CreatedAt))
	assert.Nil(t, u.LastLogin)
	assert.True(t, u.IsActive)

	u, err = repo.FindByEmail("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	u, err = repo.FindByID("user123")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = repo.FindByUsername("nobody")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestSQLRepo_UpdateLastLogin(t *testing.T) {
	repo := user.NewSQLRepo(setupTestDB(t))
	require.NoError(t, repo.Create(&user.User{
		ID: "u1", Username: "bob", Email: "bob@example.com", Password: "x", CreatedAt: time.Now(), IsActive: true,
	}))

	at := time.Date(2026, 4, 5, 6, 7, 8, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin("u1", at))

	u, err := repo.FindByID("u1")
	require.NoError(t, err)
	require.NotNil(t, u.LastLogin)
	assert.True(t, at.Equal(*u.LastLogin))

	assert.ErrorIs(t, repo.UpdateLastLogin("missing", at), user.ErrNotFound)
}

func TestSQLRepo_BrokenSchema(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE users (id TEXT PRIMARY KEY, password TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO users (id, password) VALUES (?, ?)", "u123", "somepass")
	require.NoError(t, err)

	_, err = user.NewSQLRepo(db).FindByUsername("whoever")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, user.ErrNotFound)
}
