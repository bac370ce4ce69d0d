package main

import (
	"log"
	"os"

	"github.com/edusphere/backend/cache"
	"github.com/edusphere/backend/core"
	"github.com/edusphere/backend/core/user"
	emailsvc "github.com/edusphere/backend/services/email"
	logsvc "github.com/edusphere/backend/services/logger"
	"github.com/edusphere/backend/storage/database"
	sqlxrepos "github.com/edusphere/backend/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	core.InitConfig()

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(database.Ping(db))

	coreLogger := logsvc.NewStdLogger(logger)
	pool := database.NewPool(db, core.Conf.Database, coreLogger)

	usrSvc := user.NewService(
		sqlxrepos.NewUserRepository(),
		pool,
		cache.New(),
		emailsvc.NewConsoleService(),
		coreLogger,
	)

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: usrSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
