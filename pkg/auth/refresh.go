package auth

import (
	"context"
	"fmt"
	"net/http"

	"interprep/pkg/api"
	"interprep/pkg/claims"
	"interprep/pkg/session"
)

const refreshKey = "refresh"

// Bootstrap restores the session kept in storage. A valid access token is
// adopted without a network call, an expired one is refreshed and a malformed
// one clears the session. Loading is false once it returns.
func (m *Manager) Bootstrap(ctx context.Context) error {
	defer m.setLoading(false)

	access, okAccess, err := m.store.Get(ctx, session.AccessTokenKey)
	if err != nil {
		m.logger.Error("reading stored access token", "error", err)
		return err
	}
	refresh, okRefresh, err := m.store.Get(ctx, session.RefreshTokenKey)
	if err != nil {
		m.logger.Error("reading stored refresh token", "error", err)
		return err
	}
	if !okAccess || !okRefresh || access == "" || refresh == "" {
		m.logger.Debug("no stored session")
		return nil
	}

	c, err := claims.Decode(access)
	if err != nil {
		m.logger.Warn("stored access token is invalid", "error", err)
		_ = m.Logout(ctx)
		return err
	}

	if c.Expired(m.now()) {
		m.logger.Info("stored access token expired, refreshing", "user", c.Subject)
		_, err := m.Refresh(ctx)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.adoptLocked(access, c, nil)
	return nil
}

// Refresh trades the stored refresh token for a new access token. Calls made
// while a refresh is in flight wait for that one instead of starting another.
// Any failure logs the session out before it is returned.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	ch := m.group.DoChan(refreshKey, func() (any, error) {
		return m.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	m.mu.RLock()
	epoch := m.epoch
	m.mu.RUnlock()

	token, err := m.doRefresh(ctx, epoch)
	if err != nil {
		m.logger.Warn("token refresh failed", "error", err)
		m.mu.Lock()
		if m.epoch == epoch {
			_ = m.logoutLocked(ctx)
		}
		m.mu.Unlock()
		return "", err
	}
	return token, nil
}

func (m *Manager) doRefresh(ctx context.Context, epoch uint64) (string, error) {
	refresh, ok, err := m.store.Get(ctx, session.RefreshTokenKey)
	if err != nil {
		return "", fmt.Errorf("reading refresh token: %w", err)
	}
	if !ok || refresh == "" {
		return "", ErrNoRefreshToken
	}

	req, err := m.api.NewRequest(ctx, http.MethodPost, "/auth/refresh", struct{}{})
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+refresh)

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := m.api.Do(req, &out); err != nil {
		return "", fmt.Errorf("refreshing session: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("refreshing session: %w", ErrMissingTokens)
	}

	c, err := claims.Decode(out.AccessToken)
	if err != nil {
		return "", err
	}

	if err := m.commit(ctx, &epoch, Credentials{AccessToken: out.AccessToken}, c, nil); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

var _ api.TokenSource = (*Manager)(nil)
