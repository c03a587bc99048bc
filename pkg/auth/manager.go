package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"interprep/pkg/api"
	"interprep/pkg/claims"
	"interprep/pkg/session"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient is used for the auth endpoints only. It must not route
	// through api.Transport.
	HTTPClient *http.Client
	Now        func() time.Time
}

type User struct {
	ID       string
	Username string
	Email    string
}

type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	Message string       `json:"message,omitempty"`
	User    *api.Profile `json:"user,omitempty"`
	Credentials
}

type State struct {
	CurrentUser     *User
	IsAuthenticated bool
	Loading         bool
	LastError       *api.Error
}

// Manager owns the credential pair of one user and the state derived from it.
// It is the only writer of the token keys in its Storage.
type Manager struct {
	api    *api.Client
	store  session.Storage
	logger *slog.Logger
	now    func() time.Time
	group  singleflight.Group

	mu    sync.RWMutex
	state State
	token string
	// epoch changes whenever the credential pair is replaced or dropped.
	epoch uint64
	subs  map[int]chan State
	subID int
}

func New(cfg Config, store session.Storage, logger *slog.Logger) *Manager {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Manager{
		api:    api.New(cfg.BaseURL, hc),
		store:  store,
		logger: logger,
		now:    cfg.Now,
		state:  State{Loading: true},
		subs:   make(map[int]chan State),
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot()
}

// AccessToken returns the adopted access token, or "" when unauthenticated.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.state.IsAuthenticated {
		return ""
	}
	return m.token
}

// Subscribe delivers the latest State after every transition. Slow readers
// only see the newest value. Call the returned func to stop.
func (m *Manager) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan State, 1)
	id := m.subID
	m.subID++
	m.subs[id] = ch
	ch <- m.snapshot()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
}

// Logout drops the credential pair. It is safe to call at any time; the
// in-memory state is cleared even when the storage write fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logoutLocked(ctx)
}

func (m *Manager) logoutLocked(ctx context.Context) error {
	m.epoch++
	err := m.store.Delete(ctx, session.AccessTokenKey, session.RefreshTokenKey)
	if err != nil {
		m.logger.Error("clearing stored tokens", "error", err)
	}

	wasAuthenticated := m.state.IsAuthenticated
	m.token = ""
	m.state.CurrentUser = nil
	m.state.IsAuthenticated = false
	m.publish()

	if wasAuthenticated {
		m.logger.Info("session cleared")
	}
	return err
}

// commit persists the given tokens and adopts access. When epoch is non-nil
// the commit only happens if the session was not replaced in the meantime.
func (m *Manager) commit(ctx context.Context, epoch *uint64, creds Credentials, c *claims.Claims, profile *api.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != nil && *epoch != m.epoch {
		return ErrSessionReplaced
	}

	if err := m.store.Set(ctx, session.AccessTokenKey, creds.AccessToken); err != nil {
		_ = m.logoutLocked(ctx)
		return err
	}
	if creds.RefreshToken != "" {
		if err := m.store.Set(ctx, session.RefreshTokenKey, creds.RefreshToken); err != nil {
			_ = m.logoutLocked(ctx)
			return err
		}
	}

	if epoch == nil {
		m.epoch++
	}
	m.adoptLocked(creds.AccessToken, c, profile)
	return nil
}

func (m *Manager) adoptLocked(token string, c *claims.Claims, profile *api.Profile) {
	u := &User{ID: c.Subject}
	switch {
	case profile != nil:
		u.Username = profile.Username
		u.Email = profile.Email
	case m.state.CurrentUser != nil && m.state.CurrentUser.ID == c.Subject:
		u.Username = m.state.CurrentUser.Username
		u.Email = m.state.CurrentUser.Email
	}

	m.token = token
	m.state.CurrentUser = u
	m.state.IsAuthenticated = true
	m.publish()

	m.logger.Info("session adopted", "user", u.ID, "expires", c.ExpiresTime().UTC().Format(time.RFC3339))
}

func (m *Manager) setLoading(loading bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Loading = loading
	m.publish()
}

func (m *Manager) snapshot() State {
	s := m.state
	if s.CurrentUser != nil {
		u := *s.CurrentUser
		s.CurrentUser = &u
	}
	if s.LastError != nil {
		e := *s.LastError
		s.LastError = &e
	}
	return s
}

// publish must be called with mu held.
func (m *Manager) publish() {
	s := m.snapshot()
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}
