package aisvc

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/edusphere/backend/core"
)

const providerOllama = "ollama"

// ollamaClient generates completions on a locally hosted Ollama instance.
type ollamaClient struct {
	url   string
	model string
	httpc *http.Client
	log   core.Logger
}

var _ Service = (*ollamaClient)(nil)

func newOllamaClient(conf core.AIConfig, log core.Logger) *ollamaClient {
	return &ollamaClient{
		url:   conf.OllamaURL,
		model: conf.OllamaModel,
		httpc: newHTTPClient(conf),
		log:   log,
	}
}

func (c *ollamaClient) Ask(ask Ask) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"model":  c.model,
		"prompt": buildPrompt(ask),
		"stream": false,
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding generate request")
	}

	res, err := c.httpc.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", core.NewUpstreamError(providerOllama, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(res.Body)
		return "", core.NewUpstreamError(providerOllama, errors.Errorf("status %d: %s", res.StatusCode, raw))
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", core.NewUpstreamError(providerOllama, errors.Wrap(err, "decoding generate response"))
	}
	return strings.TrimSpace(out.Response), nil
}
