package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/edusphere/backend/api/echo"
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
	"github.com/edusphere/backend/storage/database"
	sqlxrepos "github.com/edusphere/backend/storage/database/sqlx"
)

const shutdownTimeout = 20 * time.Second

func main() {
	core.InitConfig()

	// set up loggers
	var logger core.Logger
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if core.Conf.Debug || core.Conf.RollbarToken == "" {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	}

	logger.Info(fmt.Sprintf("%s initializing : env %s", core.Conf.AppName, core.Conf.Env))
	defer logger.Info("Application stopped")

	// set up DB
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()

	if err = database.Ping(db); err != nil {
		logger.Fatal("pinging database", err)
	}
	if err = database.Migrate(db, core.Conf.WorkDir); err != nil {
		logger.Fatal("migrating database", err)
	}

	pool := database.NewPool(db, core.Conf.Database, logger)

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	tutorSvc, err := aisvc.NewService(core.Conf.AI, logger)
	if err != nil {
		logger.Fatal("configuring AI tutor", err)
	}
	codeRunSvc := codesvc.NewJDoodleService(core.Conf.CodeRun, logger)

	ch := cache.New()
	limiter := ratelimit.New(core.Conf.RateLimit)

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(), pool, ch, mailSvc, logger)
	courseSvc := course.NewService(sqlxrepos.NewCourseRepository(), pool, ch, logger)
	assessSvc := assess.NewService(sqlxrepos.NewAssessRepository(), pool, ch, logger)
	enrollSvc := enroll.NewService(sqlxrepos.NewEnrollRepository(), pool, ch, logger)
	communitySvc := community.NewService(sqlxrepos.NewCommunityRepository(), pool, ch, logger)
	chatSvc := chat.NewService(sqlxrepos.NewChatRepository(), pool, ch, logger)

	// start API server
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:      core.Conf.Server.Host + ":" + core.Conf.Server.Port,
		Logger:       logger,
		UserSvc:      usrSvc,
		CourseSvc:    courseSvc,
		AssessSvc:    assessSvc,
		EnrollSvc:    enrollSvc,
		CommunitySvc: communitySvc,
		ChatSvc:      chatSvc,
		TutorSvc:     tutorSvc,
		CodeRunSvc:   codeRunSvc,
		Limiter:      limiter,
		SignalShutdown: func() {
			shutdownCh <- syscall.SIGTERM
		},
	})

	serverErrs := make(chan error, 1)
	go func() {
		serverErrs <- server.Start()
	}()

	select {
	case err = <-serverErrs:
		logger.Fatal("server error", err)

	case sig := <-shutdownCh:
		logger.Info(fmt.Sprintf("%v: start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			logger.Error("could not stop server gracefully", err)
		}
		if err = pool.Shutdown(ctx); err != nil {
			logger.Error("could not drain connection pool", err)
		}
	}
}
