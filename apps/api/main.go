package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	echoapi "github.com/trezcool/stadi/apps/api/echo"
	"github.com/trezcool/stadi/core"
	"github.com/trezcool/stadi/core/school"
	"github.com/trezcool/stadi/core/skill"
	"github.com/trezcool/stadi/core/submission"
	"github.com/trezcool/stadi/core/task"
	"github.com/trezcool/stadi/core/user"
	emailsvc "github.com/trezcool/stadi/services/email"
	gradersvc "github.com/trezcool/stadi/services/grader"
	logsvc "github.com/trezcool/stadi/services/logger"
	"github.com/trezcool/stadi/storage/database"
	sqlxrepos "github.com/trezcool/stadi/storage/database/sqlx"
)

func main() {
	conf := core.Conf

	// set up logger
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug || conf.RollbarToken == "" {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	var grader core.Grader
	if conf.Grading.ApiKey != "" {
		if grader, err = gradersvc.NewGeminiGrader(context.Background(), conf); err != nil {
			logger.Fatal(fmt.Sprintf("setting up grader: %v", err), err)
		}
	} else {
		logger.Info("no grading API key set; using the mock grader")
		grader = &gradersvc.GraderMock{Result: core.GradeResult{Score: 70, Feedback: "Mock feedback.", Model: "mock"}}
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc)
	schoolSvc := school.NewService(sqlxrepos.NewSchoolRepository(db))
	skillSvc := skill.NewService(sqlxrepos.NewSkillRepository(db))
	taskSvc := task.NewService(sqlxrepos.NewTaskRepository(db), skillSvc)
	subSvc := submission.NewService(db, sqlxrepos.NewSubmissionRepository(db), grader, mailSvc)

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	server := echoapi.NewServer(
		&echoapi.Options{
			Address:       conf.Server.Address(),
			Logger:        logger,
			UserSvc:       usrSvc,
			SchoolSvc:     schoolSvc,
			SkillSvc:      skillSvc,
			TaskSvc:       taskSvc,
			SubmissionSvc: subSvc,
		},
	)
	go server.Start()

	// graceful shutdown
	sig := <-server.ShutdownSignal()
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err = server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
