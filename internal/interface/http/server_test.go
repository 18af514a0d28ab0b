package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejfett4/guildhub/internal/interface/chat"
)

func newTestServer(t *testing.T, deps Dependencies) *Server {
	t.Helper()
	return NewServer(DefaultConfig(), deps)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthzHealthy(t *testing.T) {
	s := newTestServer(t, Dependencies{
		Checks: map[string]HealthCheckFunc{
			"backend": func(ctx context.Context) error { return nil },
		},
	})

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.True(t, resp.Success)
}

func TestHealthzFailingCheck(t *testing.T) {
	s := newTestServer(t, Dependencies{
		Checks: map[string]HealthCheckFunc{
			"backend": func(ctx context.Context) error { return errors.New("connection refused") },
		},
	})

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCommandEndpoint(t *testing.T) {
	router := chat.NewRouter(chat.RouterConfig{})
	router.Register("loyalty getlevel", func(ctx context.Context, cmd chat.CommandContext) (string, error) {
		return "you are scope=" + cmd.Scope + " user=" + cmd.UserID, nil
	})
	s := newTestServer(t, Dependencies{Router: router})

	body, err := json.Marshal(CommandRequest{
		Scope:  "guild",
		UserID: "alice",
		Input:  "loyalty getlevel",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/command", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "you are scope=guild user=alice", data["reply"])
}

func TestCommandEndpointValidation(t *testing.T) {
	s := newTestServer(t, Dependencies{Router: chat.NewRouter(chat.RouterConfig{})})

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/command", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, err := json.Marshal(CommandRequest{Scope: "guild"})
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/command", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommandEndpointHandlerError(t *testing.T) {
	router := chat.NewRouter(chat.RouterConfig{})
	router.Register("boom", func(ctx context.Context, cmd chat.CommandContext) (string, error) {
		return "", errors.New("storage offline")
	})
	s := newTestServer(t, Dependencies{Router: router})

	body, err := json.Marshal(CommandRequest{Scope: "guild", UserID: "alice", Input: "boom"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/command", bytes.NewReader(body)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListCommands(t *testing.T) {
	router := chat.NewRouter(chat.RouterConfig{})
	router.Register("stocks buy", func(ctx context.Context, cmd chat.CommandContext) (string, error) {
		return "", nil
	})
	s := newTestServer(t, Dependencies{Router: router})

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/commands", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stocks buy")
}
