package codesvc

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/edusphere/backend/core"
)

const providerJDoodle = "jdoodle"

type RunRequest struct {
	Code         string `json:"code" validate:"required"`
	Language     string `json:"language" validate:"required"`
	VersionIndex string `json:"versionIndex"`
	Stdin        string `json:"stdin"`
}

func (r *RunRequest) Validate() error {
	r.Language = core.CleanString(r.Language, true /* lower */)
	if r.VersionIndex == "" {
		r.VersionIndex = "0"
	}
	return core.Validate.Struct(r)
}

type RunResult struct {
	Output     string `json:"output"`
	StatusCode int    `json:"statusCode"`
	Memory     string `json:"memory"`
	CPUTime    string `json:"cpuTime"`
	Error      string `json:"error,omitempty"`
}

// Service executes student code snippets on a remote sandbox.
type Service interface {
	Run(req RunRequest) (RunResult, error)
}

// jdoodleClient proxies execution to the JDoodle compiler API.
type jdoodleClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpc        *http.Client
	log          core.Logger
}

var _ Service = (*jdoodleClient)(nil)

func NewJDoodleService(conf core.CodeRunConfig, log core.Logger) *jdoodleClient {
	return &jdoodleClient{
		baseURL:      "https://api.jdoodle.com/v1/execute",
		clientID:     conf.JDoodleClientID,
		clientSecret: conf.JDoodleClientSecret,
		httpc:        &http.Client{Timeout: conf.RequestTimeout},
		log:          log,
	}
}

func (c *jdoodleClient) Run(req RunRequest) (RunResult, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return RunResult{}, errors.New("JDoodle credentials not configured")
	}
	if err := req.Validate(); err != nil {
		return RunResult{}, err
	}

	body, err := json.Marshal(map[string]string{
		"clientId":     c.clientID,
		"clientSecret": c.clientSecret,
		"script":       req.Code,
		"stdin":        req.Stdin,
		"language":     req.Language,
		"versionIndex": req.VersionIndex,
	})
	if err != nil {
		return RunResult{}, errors.Wrap(err, "encoding execute request")
	}

	res, err := c.httpc.Post(c.baseURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return RunResult{}, core.NewUpstreamError(providerJDoodle, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(res.Body)
		return RunResult{}, core.NewUpstreamError(providerJDoodle, errors.Errorf("status %d: %s", res.StatusCode, raw))
	}

	var result RunResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return RunResult{}, core.NewUpstreamError(providerJDoodle, errors.Wrap(err, "decoding execute response"))
	}
	return result, nil
}
