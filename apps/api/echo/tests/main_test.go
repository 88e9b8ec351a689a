package tests

import (
	"io"
	"log"
	"os"
	"testing"

	. "github.com/trezcool/stadi/apps/api/echo"
	"github.com/trezcool/stadi/core"
	"github.com/trezcool/stadi/core/school"
	"github.com/trezcool/stadi/core/skill"
	"github.com/trezcool/stadi/core/submission"
	"github.com/trezcool/stadi/core/task"
	"github.com/trezcool/stadi/core/user"
	emailsvc "github.com/trezcool/stadi/services/email"
	gradersvc "github.com/trezcool/stadi/services/grader"
	logsvc "github.com/trezcool/stadi/services/logger"
	inmemdb "github.com/trezcool/stadi/storage/database/inmem"
)

var (
	app Server

	usrRepo user.Repository
	schRepo school.Repository
	sklRepo skill.Repository
	tskRepo task.Repository
	subRepo submission.Repository

	grader *gradersvc.GraderMock

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

func TestMain(m *testing.M) {
	// responses must be stable JSON envelopes
	core.Conf.Debug = false
	core.Conf.TestMode = true

	os.Exit(m.Run())
}

// setup rebuilds the whole app on a fresh in-memory database.
func setup(t *testing.T) Server {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)
	schRepo = inmemdb.NewSchoolRepository(db)
	sklRepo = inmemdb.NewSkillRepository(db)
	tskRepo = inmemdb.NewTaskRepository(db)
	subRepo = inmemdb.NewSubmissionRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock()
	grader = &gradersvc.GraderMock{
		Result: core.GradeResult{Score: 85, Feedback: "Solid work.", Model: "mock"},
	}
	usrSvc := user.NewServiceMock(usrRepo, mailSvc)
	skillSvc := skill.NewService(sklRepo)

	// set up server
	app = NewServer(
		&Options{
			DisableReqLogs: true,
			Logger:         logsvc.NewStdLogger(log.New(io.Discard, "", 0)),
			UserSvc:        usrSvc,
			SchoolSvc:      school.NewService(schRepo),
			SkillSvc:       skillSvc,
			TaskSvc:        task.NewService(tskRepo, skillSvc),
			SubmissionSvc:  submission.NewService(db, subRepo, grader, mailSvc),
		},
	)
	return app
}
