package aisvc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/backend/core"
)

func TestBuildPrompt(t *testing.T) {
	ask := Ask{
		Message: "What is recursion?",
		Mode:    ModeSocratic,
		History: []ChatMessage{
			{Role: "user", Content: "Hi"},
			{Role: "assistant", Content: "Hello! What shall we explore today?"},
		},
	}

	prompt := buildPrompt(ask)
	assert.True(t, strings.HasPrefix(prompt, systemPrompts[ModeSocratic]))
	assert.Contains(t, prompt, "Student: Hi\n")
	assert.Contains(t, prompt, "Lumina: Hello! What shall we explore today?\n")
	assert.True(t, strings.HasSuffix(prompt, "Student: What is recursion?\nLumina:"))

	// unknown mode falls back to direct
	prompt = buildPrompt(Ask{Message: "hey", Mode: "poetic"})
	assert.True(t, strings.HasPrefix(prompt, systemPrompts[ModeDirect]))
}

func TestNewService_unknownProvider(t *testing.T) {
	_, err := NewService(core.AIConfig{Provider: "skynet"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown LLM provider")
}

func TestReplicateClient_Ask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models/org/model/predictions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "wait", r.Header.Get("Prefer"))

		var req struct {
			Input map[string]interface{} `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Input["prompt"], "Student: hello")

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"output": []string{"Hi ", "there!"},
		})
	}))
	defer srv.Close()

	c := &replicateClient{baseURL: srv.URL, key: "test-key", model: "org/model", httpc: srv.Client()}
	answer, err := c.Ask(Ask{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", answer)
}

func TestReplicateClient_Ask_missingKey(t *testing.T) {
	c := &replicateClient{httpc: http.DefaultClient}
	_, err := c.Ask(Ask{Message: "hello"})
	require.Error(t, err)
	assert.False(t, core.IsUpstream(err))
}

func TestReplicateClient_Ask_upstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model is cold", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := &replicateClient{baseURL: srv.URL, key: "test-key", model: "org/model", httpc: srv.Client()}
	_, err := c.Ask(Ask{Message: "hello"})
	require.Error(t, err)
	assert.True(t, core.IsUpstream(err))
}

func TestOllamaClient_Ask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mistral:7b", req["model"])
		assert.Equal(t, false, req["stream"])

		_ = json.NewEncoder(w).Encode(map[string]string{"response": " Recursion is...\n"})
	}))
	defer srv.Close()

	c := &ollamaClient{url: srv.URL, model: "mistral:7b", httpc: srv.Client()}
	answer, err := c.Ask(Ask{Message: "what is recursion?"})
	require.NoError(t, err)
	assert.Equal(t, "Recursion is...", answer)
}

func TestOllamaClient_Ask_unreachable(t *testing.T) {
	c := &ollamaClient{
		url:   "http://127.0.0.1:1/api/generate",
		model: "mistral:7b",
		httpc: &http.Client{Timeout: 200 * time.Millisecond},
	}
	_, err := c.Ask(Ask{Message: "hello"})
	require.Error(t, err)
	assert.True(t, core.IsUpstream(err))
}

func TestGeminiClient_Ask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "A function calling itself."}},
				}},
			},
		})
	}))
	defer srv.Close()

	c := &geminiClient{baseURL: srv.URL, key: "test-key", model: "models/gemini-2.5-flash", httpc: srv.Client()}
	answer, err := c.Ask(Ask{Message: "what is recursion?"})
	require.NoError(t, err)
	assert.Equal(t, "A function calling itself.", answer)
}

func TestGeminiClient_Ask_noCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer srv.Close()

	c := &geminiClient{baseURL: srv.URL, key: "test-key", model: "models/gemini-2.5-flash", httpc: srv.Client()}
	_, err := c.Ask(Ask{Message: "hello"})
	require.Error(t, err)
	assert.True(t, core.IsUpstream(err))
}
