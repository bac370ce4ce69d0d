package codesvc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/backend/core"
)

func TestJDoodleClient_Run(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "id", req["clientId"])
		assert.Equal(t, "secret", req["clientSecret"])
		assert.Equal(t, `print("hi")`, req["script"])
		assert.Equal(t, "python3", req["language"])
		assert.Equal(t, "0", req["versionIndex"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"output":     "hi\n",
			"statusCode": 200,
			"memory":     "8120",
			"cpuTime":    "0.01",
		})
	}))
	defer srv.Close()

	c := &jdoodleClient{baseURL: srv.URL, clientID: "id", clientSecret: "secret", httpc: srv.Client()}
	result, err := c.Run(RunRequest{Code: `print("hi")`, Language: "Python3"})
	require.NoError(t, err)
	assert.Equal(t, "hi\n", result.Output)
	assert.Equal(t, 200, result.StatusCode)
	assert.Equal(t, "8120", result.Memory)
	assert.Equal(t, "0.01", result.CPUTime)
}

func TestJDoodleClient_Run_missingCredentials(t *testing.T) {
	c := &jdoodleClient{httpc: http.DefaultClient}
	_, err := c.Run(RunRequest{Code: "x", Language: "go"})
	require.Error(t, err)
	assert.False(t, core.IsUpstream(err))
}

func TestJDoodleClient_Run_validation(t *testing.T) {
	c := &jdoodleClient{clientID: "id", clientSecret: "secret", httpc: http.DefaultClient}
	_, err := c.Run(RunRequest{Language: "go"})
	require.Error(t, err)
}

func TestJDoodleClient_Run_upstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "daily limit reached", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := &jdoodleClient{baseURL: srv.URL, clientID: "id", clientSecret: "secret", httpc: srv.Client()}
	_, err := c.Run(RunRequest{Code: "x", Language: "go"})
	require.Error(t, err)
	assert.True(t, core.IsUpstream(err))
}

func TestJDoodleClient_Run_unreachable(t *testing.T) {
	c := &jdoodleClient{
		baseURL:      "http://127.0.0.1:1/v1/execute",
		clientID:     "id",
		clientSecret: "secret",
		httpc:        &http.Client{Timeout: 200 * time.Millisecond},
	}
	_, err := c.Run(RunRequest{Code: "x", Language: "go"})
	require.Error(t, err)
	assert.True(t, core.IsUpstream(err))
}
