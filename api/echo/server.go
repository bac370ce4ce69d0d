package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Logger         core.Logger

		UserSvc      *user.Service
		CourseSvc    *course.Service
		AssessSvc    *assess.Service
		EnrollSvc    *enroll.Service
		CommunitySvc *community.Service
		ChatSvc      *chat.Service
		TutorSvc     aisvc.Service
		CodeRunSvc   codesvc.Service

		Limiter *ratelimit.Limiter

		// SignalShutdown is invoked when an unrecoverable error bubbles up
		// through the error handler.
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.SignalShutdown == nil {
		opts.SignalShutdown = func() {}
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	debug := core.Conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.SignalShutdown)
	s.app.Debug = debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1", rateLimitMiddleware(s.opts.Limiter, ratelimit.ClassGeneral))
	jwt := middleware.JWTWithConfig(appJWTConfig())
	authLimit := rateLimitMiddleware(s.opts.Limiter, ratelimit.ClassAuth)
	tutorLimit := rateLimitMiddleware(s.opts.Limiter, ratelimit.ClassAITutor)

	registerUserAPI(v1, jwt, authLimit, s.opts.UserSvc)
	registerCourseAPI(v1, jwt, s.opts.CourseSvc, s.opts.UserSvc)
	registerAssessAPI(v1, jwt, s.opts.AssessSvc, s.opts.UserSvc)
	registerEnrollAPI(v1, jwt, s.opts.EnrollSvc, s.opts.UserSvc)
	registerCommunityAPI(v1, jwt, s.opts.CommunitySvc, s.opts.UserSvc)
	registerTutorAPI(v1, jwt, tutorLimit, s.opts.ChatSvc, s.opts.TutorSvc, s.opts.CodeRunSvc, s.opts.UserSvc)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}
