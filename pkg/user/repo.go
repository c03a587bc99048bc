package user

import (
	"database/sql"
	"errors"
	"time"
)

const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id         VARCHAR(26)  PRIMARY KEY,
	username   VARCHAR(80)  NOT NULL UNIQUE,
	email      VARCHAR(120) NOT NULL UNIQUE,
	password   VARCHAR(255) NOT NULL,
	created_at DATETIME     NOT NULL,
	last_login DATETIME     NULL,
	is_active  BOOLEAN      NOT NULL DEFAULT TRUE
)`

const selectUser = "SELECT id, username, email, password, created_at, last_login, is_active FROM users"

// SQLRepo works with the MySQL and SQLite drivers. MySQL DSNs need parseTime=true.
type SQLRepo struct {
	DB *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo {
	return &SQLRepo{DB: db}
}

func (r *SQLRepo) Create(user *User) error {
	_, err := r.DB.Exec(
		"INSERT INTO users (id, username, email, password, created_at, is_active) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Username, user.Email, user.Password, user.CreatedAt.UTC(), user.IsActive,
	)
	return err
}

func (r *SQLRepo) FindByID(id string) (*User, error) {
	return r.findOne(selectUser+" WHERE id = ?", id)
}

func (r *SQLRepo) FindByUsername(username string) (*User, error) {
	return r.findOne(selectUser+" WHERE username = ?", username)
}

func (r *SQLRepo) FindByEmail(email string) (*User, error) {
	return r.findOne(selectUser+" WHERE email = ?", email)
}

func (r *SQLRepo) UpdateLastLogin(id string, at time.Time) error {
	res, err := r.DB.Exec("UPDATE users SET last_login = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepo) findOne(query string, arg any) (*User, error) {
	var (
		u         User
		lastLogin sql.NullTime
	)
	err := r.DB.QueryRow(query, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt, &lastLogin, &u.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}
