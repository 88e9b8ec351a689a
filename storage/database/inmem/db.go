package inmemdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"

	"github.com/trezcool/stadi/core/school"
	"github.com/trezcool/stadi/core/skill"
	"github.com/trezcool/stadi/core/submission"
	"github.com/trezcool/stadi/core/task"
	"github.com/trezcool/stadi/core/user"
)

// DB is a map-backed database for tests and local hacking.
// The embedded *sql.DB runs on a no-op driver so that services needing
// transactions still get a working BeginTx; the repositories themselves
// never touch it.
type (
	DB struct {
		*sql.DB

		user       *userTable
		school     *schoolTable
		skill      *skillTable
		task       *taskTable
		submission *submissionTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	schoolTable struct {
		sync.RWMutex
		table map[string]*school.School
	}

	skillTable struct {
		sync.RWMutex
		table map[string]*skill.Skill
	}

	taskTable struct {
		sync.RWMutex
		table map[string]*task.Task
	}

	submissionTable struct {
		sync.RWMutex
		table       map[string]*submission.Submission
		assessments map[string]*submission.Assessment // keyed by submission ID
	}
)

func Open() (*DB, error) {
	db := &DB{
		DB:     sql.OpenDB(noopConnector{}),
		user:   &userTable{table: make(map[string]*user.User)},
		school: &schoolTable{table: make(map[string]*school.School)},
		skill:  &skillTable{table: make(map[string]*skill.Skill)},
		task:   &taskTable{table: make(map[string]*task.Task)},
		submission: &submissionTable{
			table:       make(map[string]*submission.Submission),
			assessments: make(map[string]*submission.Assessment),
		},
	}
	return db, nil
}

// no-op sql driver

type (
	noopConnector struct{}
	noopDriver    struct{}
	noopConn      struct{}
	noopTx        struct{}
)

func (noopConnector) Connect(context.Context) (driver.Conn, error) { return noopConn{}, nil }
func (noopConnector) Driver() driver.Driver                        { return noopDriver{} }

func (noopDriver) Open(string) (driver.Conn, error) { return noopConn{}, nil }

func (noopConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (noopConn) Close() error                        { return nil }
func (noopConn) Begin() (driver.Tx, error)           { return noopTx{}, nil }

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }
