package task

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/stadi/core"
	"github.com/trezcool/stadi/core/skill"
)

var (
	// errors
	ErrNotFound      = errors.New("task not found")
	errUnknownSkills = errors.New("one or more skills do not exist")
)

type (
	Repository interface {
		CreateTask(ctx context.Context, tsk Task, exec ...core.DBExecutor) (Task, error)
		// QueryTasks applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Task.Title or Task.Description.
		QueryTasks(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Task, error)
		GetTaskByID(ctx context.Context, id string, exec ...core.DBExecutor) (Task, error)
		UpdateTask(ctx context.Context, tsk Task, exec ...core.DBExecutor) (Task, error)
		DeleteTasksByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Create(ctx context.Context, schoolID, teacherID string, nt NewTask) (Task, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Task, error)
		GetByID(ctx context.Context, id string) (Task, error)
		Update(ctx context.Context, orig Task, ut UpdateTask) (Task, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo     Repository
		skillSvc skill.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, skillSvc skill.Service) Service {
	return &service{
		repo:     repo,
		skillSvc: skillSvc,
	}
}

// checkSkills verifies that all given skill ids exist in the catalog.
func (svc *service) checkSkills(ctx context.Context, skillIDs []string) error {
	skills, err := svc.skillSvc.GetByIDs(ctx, skillIDs...)
	if err != nil {
		return err
	}
	if len(skills) != len(skillIDs) {
		return core.NewValidationError(errUnknownSkills, core.FieldError{Field: "skill_ids", Error: errUnknownSkills.Error()})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, schoolID, teacherID string, nt NewTask) (Task, error) {
	if err := svc.checkSkills(ctx, nt.SkillIDs); err != nil {
		return Task{}, err
	}

	now := time.Now().UTC()
	tsk := Task{
		SchoolID:    schoolID,
		TeacherID:   teacherID,
		Title:       nt.Title,
		Description: nt.Description,
		DueDate:     null.NewTime(nt.DueDate.UTC(), !nt.DueDate.IsZero()),
		SkillIDs:    nt.SkillIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateTask(ctx, tsk)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Task, error) {
	return svc.repo.QueryTasks(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTaskByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, orig Task, ut UpdateTask) (Task, error) {
	if err := svc.checkSkills(ctx, ut.SkillIDs); err != nil {
		return Task{}, err
	}

	tsk := Task{
		ID:          orig.ID,
		SchoolID:    orig.SchoolID,
		TeacherID:   orig.TeacherID,
		Title:       ut.Title,
		Description: ut.Description,
		DueDate:     null.NewTime(ut.DueDate.UTC(), !ut.DueDate.IsZero()),
		SkillIDs:    ut.SkillIDs,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateTask(ctx, tsk)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteTasksByID(ctx, ids)
	return err
}
