package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/edusphere/backend/cache"
	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/assess"
	"github.com/edusphere/backend/core/chat"
	"github.com/edusphere/backend/core/community"
	"github.com/edusphere/backend/core/course"
	"github.com/edusphere/backend/core/enroll"
	"github.com/edusphere/backend/core/user"
	"github.com/edusphere/backend/ratelimit"
	aisvc "github.com/edusphere/backend/services/ai"
	codesvc "github.com/edusphere/backend/services/coderun"
	emailsvc "github.com/edusphere/backend/services/email"
	logsvc "github.com/edusphere/backend/services/logger"
	inmemdb "github.com/edusphere/backend/storage/database/inmem"
)

func TestMain(m *testing.M) {
	os.Setenv("ENV", "TEST")
	core.InitConfig()
	os.Exit(m.Run())
}

type testEnv struct {
	server Server
	db     *inmemdb.DB

	usrSvc       *user.Service
	communityRepo interface {
		AddTopic(name string) community.Topic
	}
}

// stubTutor answers every prompt with a canned response.
type stubTutor struct {
	answer string
	err    error
}

func (s stubTutor) Ask(aisvc.Ask) (string, error) { return s.answer, s.err }

// stubCodeRunner echoes the submitted code back as output.
type stubCodeRunner struct {
	result codesvc.RunResult
	err    error
}

func (s stubCodeRunner) Run(codesvc.RunRequest) (codesvc.RunResult, error) { return s.result, s.err }

func setup(t *testing.T, conf ...core.RateLimitConfig) *testEnv {
	t.Helper()

	rlConf := core.RateLimitConfig{
		PerMinute:        1000,
		AuthPerMinute:    1000,
		AITutorPerMinute: 1000,
		AITutorPerHour:   1000,
		AITutorPerDay:    1000,
	}
	if len(conf) > 0 {
		rlConf = conf[0]
	}

	db := inmemdb.NewDB()
	pool := inmemdb.NewPool()
	ch := cache.New()
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock()

	commRepo := inmemdb.NewCommunityRepository(db)

	usrSvc := user.NewService(inmemdb.NewUserRepository(db), pool, ch, mailSvc, logger)
	courseSvc := course.NewService(inmemdb.NewCourseRepository(db), pool, ch, logger)
	assessSvc := assess.NewService(inmemdb.NewAssessRepository(db), pool, ch, logger)
	enrollSvc := enroll.NewService(inmemdb.NewEnrollRepository(db), pool, ch, logger)
	communitySvc := community.NewService(commRepo, pool, ch, logger)
	chatSvc := chat.NewService(inmemdb.NewChatRepository(db), pool, ch, logger)

	server := NewServer(&Options{
		DisableReqLogs: true,
		Logger:         logger,
		UserSvc:        usrSvc,
		CourseSvc:      courseSvc,
		AssessSvc:      assessSvc,
		EnrollSvc:      enrollSvc,
		CommunitySvc:   communitySvc,
		ChatSvc:        chatSvc,
		TutorSvc:       stubTutor{answer: "Great question! Let's break it down."},
		CodeRunSvc:     stubCodeRunner{result: codesvc.RunResult{Output: "hello\n", StatusCode: 200}},
		Limiter:        ratelimit.New(rlConf),
	})

	return &testEnv{
		server:        server,
		db:            db,
		usrSvc:        usrSvc,
		communityRepo: commRepo,
	}
}

type httpErr struct {
	Error string `json:"error"`
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (env *testEnv) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	env.server.ServeHTTP(rec, req)
	return rec
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

// registerUser registers an account through the API and returns it with a
// fresh token.
func (env *testEnv) registerUser(t *testing.T, email, role string) (user.User, string) {
	t.Helper()
	body := marshalObj(t, map[string]string{
		"first_name": "Test",
		"last_name":  "User",
		"email":      email,
		"password":   "s3cretpass",
		"role":       role,
	})
	req, rec := newRequest(http.MethodPost, "/v1/auth/register", body)
	env.do(req, rec)
	if rec.Code != http.StatusCreated {
		t.Fatalf("registerUser(%s) = %d: %s", email, rec.Code, rec.Body.String())
	}
	var resp AuthResponse
	decodeBody(t, rec, &resp)
	return resp.User, resp.Token
}
