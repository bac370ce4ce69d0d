package echoapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/chat"
	codesvc "github.com/edusphere/backend/services/coderun"
)

func Test_tutorApi_ask(t *testing.T) {
	env := setup(t)

	body := marshalObj(t, map[string]interface{}{
		"message": "What is a goroutine?",
		"mode":    "explain",
	})

	// no account needed, the limiter is the gate
	req, rec := newRequest(http.MethodPost, "/v1/ai-tutor/ask", body)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp AskResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Great question! Let's break it down.", resp.Response)

	// an empty prompt is rejected before reaching the provider
	req, rec = newRequest(http.MethodPost, "/v1/ai-tutor/ask", marshalObj(t, map[string]string{"mode": "explain"}))
	env.do(req, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_tutorApi_askRateLimited(t *testing.T) {
	env := setup(t, core.RateLimitConfig{
		PerMinute:        1000,
		AuthPerMinute:    1000,
		AITutorPerMinute: 2,
		AITutorPerHour:   1000,
		AITutorPerDay:    1000,
	})
	_, token := env.registerUser(t, "stud@test.cd", "student")

	body := marshalObj(t, map[string]interface{}{"message": "What is a goroutine?"})

	for i := 0; i < 2; i++ {
		req, rec := newRequest(http.MethodPost, "/v1/ai-tutor/ask", body)
		env.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	req, rec := newRequest(http.MethodPost, "/v1/ai-tutor/ask", body)
	env.do(req, rec)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// the budget is per route class: chat history stays reachable
	req, rec = newAuthRequest(http.MethodGet, "/v1/ai-tutor-chats", token)
	env.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_tutorApi_chats(t *testing.T) {
	env := setup(t)
	usr, token := env.registerUser(t, "stud@test.cd", "student")
	_, otherTk := env.registerUser(t, "other@test.cd", "student")

	body := marshalObj(t, map[string]string{
		"chat_title": "Goroutines",
		"messages":   `[{"role":"user","content":"What is a goroutine?"}]`,
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/ai-tutor-chats", token, body)
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)
	var tc chat.TutorChat
	decodeBody(t, rec, &tc)
	assert.Equal(t, usr.ID, tc.StudentID)
	assert.Equal(t, "Goroutines", tc.ChatTitle)

	// a title is required
	req, rec = newAuthRequest(http.MethodPost, "/v1/ai-tutor-chats", token, marshalObj(t, map[string]string{"messages": "[]"}))
	env.do(req, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// each student sees their own history only
	req, rec = newAuthRequest(http.MethodGet, "/v1/ai-tutor-chats", token)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var chats []chat.TutorChat
	decodeBody(t, rec, &chats)
	assert.Len(t, chats, 1)

	req, rec = newAuthRequest(http.MethodGet, "/v1/ai-tutor-chats", otherTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &chats)
	assert.Empty(t, chats)

	chatURL := fmt.Sprintf("/v1/ai-tutor-chats/%d", tc.ID)

	// someone else's chat is off limits
	req, rec = newAuthRequest(http.MethodGet, chatURL, otherTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPut, chatURL, otherTk, marshalObj(t, map[string]string{"chat_title": "hijack"}))
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// the owner can rename and append messages
	update := marshalObj(t, map[string]string{
		"chat_title": "Goroutines and channels",
		"messages":   `[{"role":"user","content":"What is a goroutine?"},{"role":"assistant","content":"A lightweight thread."}]`,
	})
	req, rec = newAuthRequest(http.MethodPut, chatURL, token, update)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &tc)
	assert.Equal(t, "Goroutines and channels", tc.ChatTitle)
	assert.Contains(t, tc.Messages, "lightweight thread")

	req, rec = newAuthRequest(http.MethodDelete, chatURL, otherTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodDelete, chatURL, token)
	env.do(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, chatURL, token)
	env.do(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_tutorApi_runCode(t *testing.T) {
	env := setup(t)

	body := marshalObj(t, map[string]string{
		"code":     `package main; import "fmt"; func main() { fmt.Println("hello") }`,
		"language": "go",
	})

	req, rec := newRequest(http.MethodPost, "/v1/code-execution/run", body)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var result codesvc.RunResult
	decodeBody(t, rec, &result)
	assert.Equal(t, "hello\n", result.Output)
	assert.Equal(t, 200, result.StatusCode)
}
