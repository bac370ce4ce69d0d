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

const providerReplicate = "replicate"

// replicateClient runs synchronous predictions against the Replicate API.
type replicateClient struct {
	baseURL string
	key     string
	model   string
	httpc   *http.Client
	log     core.Logger
}

var _ Service = (*replicateClient)(nil)

func newReplicateClient(conf core.AIConfig, log core.Logger) *replicateClient {
	return &replicateClient{
		baseURL: "https://api.replicate.com",
		key:     conf.ReplicateAPIKey,
		model:   conf.ReplicateModel,
		httpc:   newHTTPClient(conf),
		log:     log,
	}
}

type replicatePrediction struct {
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

func (c *replicateClient) Ask(ask Ask) (string, error) {
	if c.key == "" {
		return "", errors.New("Replicate API key not configured")
	}

	body, err := json.Marshal(map[string]interface{}{
		"input": map[string]interface{}{
			"prompt":         buildPrompt(ask),
			"max_new_tokens": 256,
			"temperature":    0.7,
			"top_p":          0.95,
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding prediction")
	}

	url := fmt.Sprintf("%s/v1/models/%s/predictions", c.baseURL, c.model)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "building prediction request")
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait")

	res, err := c.httpc.Do(req)
	if err != nil {
		return "", core.NewUpstreamError(providerReplicate, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(res.Body)
		return "", core.NewUpstreamError(providerReplicate, errors.Errorf("status %d: %s", res.StatusCode, raw))
	}

	var pred replicatePrediction
	if err := json.NewDecoder(res.Body).Decode(&pred); err != nil {
		return "", core.NewUpstreamError(providerReplicate, errors.Wrap(err, "decoding prediction"))
	}
	if pred.Error != "" {
		return "", core.NewUpstreamError(providerReplicate, errors.New(pred.Error))
	}
	return joinOutput(pred.Output), nil
}

// joinOutput flattens the prediction output, which is either a string or a
// list of string chunks.
func joinOutput(raw json.RawMessage) string {
	var chunks []string
	if err := json.Unmarshal(raw, &chunks); err == nil {
		return strings.TrimSpace(strings.Join(chunks, ""))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}
