package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pray3m/hyteno-fullstack-todo/internal/model"
	"github.com/pray3m/hyteno-fullstack-todo/internal/query"
)

func TestClient_LoginInstallsToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeJSON(w, http.StatusOK, LoginResult{
				AccessToken: "signed-token",
				User:        model.User{ID: 2, Email: "user@hy.com"},
			})
		case "/todos":
			gotAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, []model.Todo{})
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Login(context.Background(), "user@hy.com", "password")

	assert.NoError(t, err)
	assert.Equal(t, "signed-token", res.AccessToken)
	assert.Equal(t, uint(2), res.User.ID)

	_, err = c.ListTodos(context.Background(), query.Params{})
	assert.NoError(t, err)
	assert.Equal(t, "Bearer signed-token", gotAuth)
}

func TestClient_DecodesErrorPayloads(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        any
		wantMessage string
		wantCode    string
	}{
		{
			name:        "wrapped error object",
			status:      http.StatusNotFound,
			body:        map[string]any{"message": map[string]any{"error": "todo not found", "code": "TODO_NOT_FOUND"}},
			wantMessage: "todo not found",
			wantCode:    "TODO_NOT_FOUND",
		},
		{
			name:        "plain string message",
			status:      http.StatusUnauthorized,
			body:        map[string]any{"message": "missing or malformed jwt"},
			wantMessage: "missing or malformed jwt",
		},
		{
			name:        "top-level error field",
			status:      http.StatusBadRequest,
			body:        map[string]any{"error": "invalid status \"PENDING\"", "code": "VALIDATION_ERROR"},
			wantMessage: "invalid status \"PENDING\"",
			wantCode:    "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL).ListTodos(context.Background(), query.Params{})

			var apiErr *APIError
			assert.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}
