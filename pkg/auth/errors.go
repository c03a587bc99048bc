package auth

import "errors"

var (
	ErrNoRefreshToken = errors.New("no refresh token available")
	ErrMissingTokens  = errors.New("response carries no credential pair")
	// ErrSessionReplaced is returned by a refresh that finished after the
	// session it was repairing had been logged out or replaced.
	ErrSessionReplaced = errors.New("session replaced during refresh")
)

const (
	loginFailed    = "Login failed"
	loginDetails   = "Please check your credentials and try again"
	registerFailed = "Registration failed"
	registerDetail = "Please check your information and try again"
)
