package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"interprep/pkg/api"
)

func TestClient_ErrorFallbacks(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantDetails string
	}{
		{
			name:        "full error body",
			status:      http.StatusConflict,
			body:        `{"message":"Username already exists","details":"Please choose a different username"}`,
			wantMessage: "Username already exists",
			wantDetails: "Please choose a different username",
		},
		{
			name:        "message only",
			status:      http.StatusBadRequest,
			body:        `{"message":"Missing required fields"}`,
			wantMessage: "Missing required fields",
			wantDetails: api.DefaultDetails,
		},
		{
			name:        "not json",
			status:      http.StatusBadGateway,
			body:        `<html>bad gateway</html>`,
			wantMessage: api.DefaultMessage,
			wantDetails: api.DefaultDetails,
		},
		{
			name:        "empty body",
			status:      http.StatusInternalServerError,
			wantMessage: api.DefaultMessage,
			wantDetails: api.DefaultDetails,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
				_, _ = w.Write([]byte(test.body))
			}))
			defer srv.Close()

			err := api.New(srv.URL, nil).GetJSON(context.Background(), "/anything", nil)

			var apiErr *api.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, test.status, apiErr.Status)
			assert.Equal(t, test.wantMessage, apiErr.Message)
			assert.Equal(t, test.wantDetails, apiErr.Details)
		})
	}
}

func TestClient_RequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/users/me", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	var out struct {
		Message string `json:"message"`
	}
	err := api.New(srv.URL+"/api/", nil).PutJSON(context.Background(), "users/me", map[string]string{"bio": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Message)
}

func TestClient_Me(t *testing.T) {
	t.Run("numeric id", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/auth/me", r.URL.Path)
			_, _ = w.Write([]byte(`{"message":"User retrieved successfully","user":{"id":12,"username":"alice","email":"a@example.com","is_active":true}}`))
		}))
		defer srv.Close()

		p, err := api.New(srv.URL+"/api", nil).Me(context.Background())
		require.NoError(t, err)
		assert.Equal(t, api.ID("12"), p.ID)
		assert.Equal(t, "alice", p.Username)
		assert.True(t, p.IsActive)
	})

	t.Run("missing user", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"message":"ok"}`))
		}))
		defer srv.Close()

		p, err := api.New(srv.URL+"/api", nil).Me(context.Background())
		assert.Error(t, err)
		assert.Nil(t, p)
	})
}
