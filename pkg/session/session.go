package session

import (
	"context"
	"errors"
)

// Keys under which the credential pair is kept.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

var ErrClosed = errors.New("storage closed")

// Storage is a string key/value area scoped to one client instance.
// Everything written to it is gone once Close returns.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
