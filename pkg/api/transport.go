package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// TokenSource hands out the adopted access token and repairs it on demand.
type TokenSource interface {
	AccessToken() string
	Refresh(ctx context.Context) (string, error)
}

// Paths that carry their own credentials and never get the access token.
var authPaths = []string{"/auth/login", "/auth/register", "/auth/refresh"}

// Transport adds "Authorization: Bearer <access token>" to outgoing requests
// and, on a 401, refreshes once and resends the request. A retried request is
// never retried again.
type Transport struct {
	Tokens TokenSource
	Base   http.RoundTripper
	Logger *slog.Logger
}

func NewTransport(tokens TokenSource, base http.RoundTripper, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Transport{Tokens: tokens, Base: base, Logger: logger}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if isAuthPath(req.URL.Path) {
		return t.Base.RoundTrip(req)
	}

	sent := t.Tokens.AccessToken()
	resp, err := t.Base.RoundTrip(withBearer(req, sent))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	replayable := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
	if !replayable {
		return resp, nil
	}

	resp, err = bufferBody(resp)
	if err != nil {
		return nil, err
	}

	token := t.Tokens.AccessToken()
	if token == "" || token == sent {
		token, err = t.Tokens.Refresh(req.Context())
		if err != nil {
			t.Logger.Warn("refresh after 401 failed", "method", req.Method, "path", req.URL.Path, "error", err)
			return resp, nil
		}
	}

	retry := withBearer(req, token)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return resp, nil
		}
		retry.Body = body
	}

	t.Logger.Debug("retrying request with refreshed token", "method", req.Method, "path", req.URL.Path)
	return t.Base.RoundTrip(retry)
}

func isAuthPath(path string) bool {
	for _, p := range authPaths {
		if strings.HasSuffix(path, p) {
			return true
		}
	}
	return false
}

func withBearer(req *http.Request, token string) *http.Request {
	r := req.Clone(req.Context())
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// bufferBody reads the response body into memory so the response can still
// be handed back to the caller after a failed refresh.
func bufferBody(resp *http.Response) (*http.Response, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}
