package aisvc

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/edusphere/backend/core"
)

// Tutor modes. Direct answers vs guided questioning.
const (
	ModeDirect   = "direct"
	ModeSocratic = "socratic"
)

var systemPrompts = map[string]string{
	ModeDirect:   "You are Lumina, a helpful and patient learning assistant. Provide clear, concise explanations. Use simple language. Encourage curiosity and critical thinking.",
	ModeSocratic: "You are Lumina, a Socratic tutor. Instead of giving direct answers, ask guiding questions to help the student discover answers themselves. Be encouraging.",
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Ask struct {
	Message string        `json:"message" validate:"required"`
	Mode    string        `json:"mode"`
	History []ChatMessage `json:"history"`
}

func (a *Ask) Validate() error {
	a.Mode = core.CleanString(a.Mode, true /* lower */)
	return core.Validate.Struct(a)
}

// Service answers tutor questions by proxying to a configured LLM provider.
type Service interface {
	Ask(ask Ask) (string, error)
}

// NewService resolves the provider named in conf.
func NewService(conf core.AIConfig, log core.Logger) (Service, error) {
	switch conf.Provider {
	case "replicate":
		return newReplicateClient(conf, log), nil
	case "ollama":
		return newOllamaClient(conf, log), nil
	case "gemini":
		return newGeminiClient(conf, log), nil
	}
	return nil, errors.Errorf("unknown LLM provider: %s", conf.Provider)
}

// buildPrompt folds the system prompt and conversation history into a single
// completion prompt ending with the student's new message.
func buildPrompt(ask Ask) string {
	sys, ok := systemPrompts[ask.Mode]
	if !ok {
		sys = systemPrompts[ModeDirect]
	}

	sb := new(strings.Builder)
	sb.WriteString(sys)
	sb.WriteString("\n\n")
	for _, msg := range ask.History {
		if msg.Role == "user" {
			sb.WriteString("Student: " + msg.Content + "\n")
		} else {
			sb.WriteString("Lumina: " + msg.Content + "\n")
		}
	}
	sb.WriteString("Student: " + ask.Message + "\nLumina:")
	return sb.String()
}

func newHTTPClient(conf core.AIConfig) *http.Client {
	return &http.Client{Timeout: conf.RequestTimeout}
}
