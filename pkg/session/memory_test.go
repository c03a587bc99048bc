package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"interprep/pkg/session"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := session.NewMemoryStorage()

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
	assert.NoError(t, s.Delete(ctx, session.AccessTokenKey))

	_, ok, _ = s.Get(ctx, session.RefreshTokenKey)
	assert.False(t, ok)
}

func TestMemoryStorageClose(t *testing.T) {
	ctx := context.Background()
	s := session.NewMemoryStorage()
	assert.NoError(t, s.Set(ctx, session.AccessTokenKey, "A"))

	assert.NoError(t, s.Close())

	_, ok, err := s.Get(ctx, session.AccessTokenKey)
	assert.ErrorIs(t, err, session.ErrClosed)
	assert.False(t, ok)
	assert.ErrorIs(t, s.Set(ctx, session.AccessTokenKey, "A"), session.ErrClosed)
	assert.ErrorIs(t, s.Delete(ctx, session.AccessTokenKey), session.ErrClosed)
}
