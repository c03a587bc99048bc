package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"interprep/pkg/api"
	"interprep/pkg/claims"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges username and password for a credential pair and adopts it.
// On failure the previous session is left as it was and State().LastError
// carries the message and details to show.
func (m *Manager) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	return m.acquire(ctx, "/auth/login", loginRequest{Username: username, Password: password}, loginFailed, loginDetails)
}

// Register creates the account and signs it in with the returned pair.
func (m *Manager) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	req := registerRequest{Username: username, Email: email, Password: password}
	return m.acquire(ctx, "/auth/register", req, registerFailed, registerDetail)
}

func (m *Manager) acquire(ctx context.Context, path string, body any, message, details string) (*AuthResponse, error) {
	m.mu.Lock()
	m.state.Loading = true
	m.state.LastError = nil
	m.publish()
	m.mu.Unlock()

	defer m.setLoading(false)

	resp, err := m.exchange(ctx, path, body, message, details)
	if err == nil {
		err = m.establish(ctx, resp)
	}
	if err != nil {
		m.fail(path, err, message, details)
		return nil, err
	}
	return resp, nil
}

func (m *Manager) exchange(ctx context.Context, path string, body any, message, details string) (*AuthResponse, error) {
	req, err := m.api.NewRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := m.api.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, api.DecodeError(resp, message, details)
	}

	out := &AuthResponse{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", path, err)
	}
	return out, nil
}

func (m *Manager) establish(ctx context.Context, resp *AuthResponse) error {
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return ErrMissingTokens
	}
	c, err := claims.Decode(resp.AccessToken)
	if err != nil {
		return err
	}
	return m.commit(ctx, nil, resp.Credentials, c, resp.User)
}

func (m *Manager) fail(path string, err error, message, details string) {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		apiErr = &api.Error{Message: message, Details: details}
	}

	m.mu.Lock()
	e := *apiErr
	m.state.LastError = &e
	m.publish()
	m.mu.Unlock()

	m.logger.Warn("credential exchange failed", "path", path, "status", apiErr.Status, "error", err)
}

// SignOut tells the API the session is over, then logs out locally whatever
// the API answered.
func (m *Manager) SignOut(ctx context.Context) error {
	if token := m.AccessToken(); token != "" {
		req, err := m.api.NewRequest(ctx, http.MethodPost, "/auth/logout", struct{}{})
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+token)
			if err := m.api.Do(req, nil); err != nil {
				m.logger.Warn("remote logout failed", "error", err)
			}
		}
	}
	return m.Logout(ctx)
}
