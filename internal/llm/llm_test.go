package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lua-assistant/internal/common/config"
	"lua-assistant/internal/common/logger"
)

func testClient(baseURL string) *Client {
	return NewClient(config.LLMConfig{
		Enabled: true,
		BaseURL: baseURL,
		Model:   "llama3",
		Timeout: 2000,
	}, logger.NewNoOpLogger())
}

func TestCompleteSendsGenerateRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req["model"])
		assert.Equal(t, false, req["stream"])
		assert.Contains(t, req["prompt"], "criar vale")
		assert.Contains(t, req["system"], "LUA")

		json.NewEncoder(w).Encode(map[string]string{"response": "entendi o comando"})
	}))
	defer server.Close()

	out, err := testClient(server.URL).Complete(context.Background(),
		"Você é a LUA, assistente virtual de uma joalheria.",
		`Comando do usuário: "criar vale"`)
	require.NoError(t, err)
	assert.Equal(t, "entendi o comando", out)
}

func TestCompleteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Complete(context.Background(), "", "prompt")
	assert.ErrorIs(t, err, ErrCompletionFailed)
}

func TestCompleteTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(config.LLMConfig{
		BaseURL: server.URL,
		Model:   "llama3",
		Timeout: 50,
	}, logger.NewNoOpLogger())

	_, err := client.Complete(context.Background(), "", "prompt")
	assert.ErrorIs(t, err, ErrCompletionFailed)
}
