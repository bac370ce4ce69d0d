package aisvc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/edusphere/backend/core"
)

const providerGemini = "gemini"

// geminiClient calls the Google AI Studio REST surface.
type geminiClient struct {
	baseURL string
	key     string
	model   string
	httpc   *http.Client
	log     core.Logger
}

var _ Service = (*geminiClient)(nil)

func newGeminiClient(conf core.AIConfig, log core.Logger) *geminiClient {
	return &geminiClient{
		baseURL: "https://generativelanguage.googleapis.com",
		key:     conf.GeminiAPIKey,
		model:   conf.GeminiModel,
		httpc:   newHTTPClient(conf),
		log:     log,
	}
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *geminiClient) Ask(ask Ask) (string, error) {
	if c.key == "" {
		return "", errors.New("Gemini API key not configured")
	}

	body, err := json.Marshal(map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": buildPrompt(ask)}}},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding generateContent request")
	}

	url := fmt.Sprintf("%s/v1/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "building generateContent request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.key)

	res, err := c.httpc.Do(req)
	if err != nil {
		return "", core.NewUpstreamError(providerGemini, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(res.Body)
		return "", core.NewUpstreamError(providerGemini, errors.Errorf("status %d: %s", res.StatusCode, raw))
	}

	var out geminiResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", core.NewUpstreamError(providerGemini, errors.Wrap(err, "decoding generateContent response"))
	}
	if len(out.Candidates) == 0 {
		return "", core.NewUpstreamError(providerGemini, errors.New("no candidates returned"))
	}
	parts := out.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", core.NewUpstreamError(providerGemini, errors.New("empty content returned"))
	}
	return strings.TrimSpace(parts[0].Text), nil
}
