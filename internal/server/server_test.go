package server

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lua-assistant/internal/assistant"
	"lua-assistant/internal/assistant/dispatch"
	"lua-assistant/internal/assistant/persona"
	"lua-assistant/internal/common/config"
	"lua-assistant/internal/common/logger"
	"lua-assistant/internal/models"
	"lua-assistant/internal/nlp/interpret"
	"lua-assistant/internal/store"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	m := store.NewMemory()
	_, err := m.Create(context.Background(), models.EntityEmployee, models.Employee{
		Name: "Josemir", Role: "vendedor", Salary: 2500, Active: true,
	})
	require.NoError(t, err)

	clock := func() time.Time { return time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC) }
	log := logger.NewTestLogger(t)
	a := assistant.New(assistant.Deps{
		Config:      config.AssistantConfig{ConfidenceThreshold: 0.3, HistoryLimit: 50},
		Interpreter: interpret.NewWithClock(clock),
		Dispatcher:  dispatch.New(dispatch.Deps{Store: m, Logger: log, Clock: clock}),
		Persona: persona.New(persona.Options{
			Rand:  rand.New(rand.NewSource(7)),
			Clock: clock,
		}),
		Logger: log,
		Clock:  clock,
	})

	srv := httptest.NewServer(New(a, log, 5*time.Second).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func postCommand(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/lua", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCommandEndpoint(t *testing.T) {
	srv := testServer(t)

	resp := postCommand(t, srv, `{"message": "criar vale de 200 para Josemir", "user_id": "u1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body assistant.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "created", body.Action)
	assert.Contains(t, body.Message, "Vale criado com sucesso!")
	assert.NotEmpty(t, body.Emotion.Dominant)
}

func TestCommandEndpointRejectsMissingMessage(t *testing.T) {
	srv := testServer(t)

	resp := postCommand(t, srv, `{"user_id": "u1"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid request", body["error"])
	assert.NotEmpty(t, body["errors"])
}

func TestCommandEndpointRejectsUnknownFields(t *testing.T) {
	srv := testServer(t)

	resp := postCommand(t, srv, `{"message": "ajuda", "bogus": true}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCommandEndpointRejectsBadJSON(t *testing.T) {
	srv := testServer(t)

	resp := postCommand(t, srv, `{"message": `)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCommandEndpointMethodNotAllowed(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api/lua")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHistoryRoundTrip(t *testing.T) {
	srv := testServer(t)

	postCommand(t, srv, `{"message": "mostrar vales pendentes"}`)

	resp, err := http.Get(srv.URL + "/api/lua/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		History []assistant.Turn `json:"history"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.History, 2)
	assert.Equal(t, "user", body.History[0].Role)
	assert.Equal(t, "mostrar vales pendentes", body.History[0].Text)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/lua/history", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	resp2, err := http.Get(srv.URL + "/api/lua/history")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var after struct {
		History []assistant.Turn `json:"history"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&after))
	assert.Empty(t, after.History)
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}
