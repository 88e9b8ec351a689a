package skill

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/stadi/core"
)

var (
	// errors
	ErrNotFound    = errors.New("skill not found")
	ErrSkillExists = errors.New("a skill with this name already exists")
)

type (
	Repository interface {
		CheckSkillUniqueness(ctx context.Context, name string, excludedSkills []Skill, exec ...core.DBExecutor) error
		CreateSkill(ctx context.Context, sk Skill, exec ...core.DBExecutor) (Skill, error)
		// QuerySkills does a case-insensitive match of QueryFilter.Search on one of
		// Skill.Name or Skill.Description; QueryFilter.IDs restricts to the given ids.
		QuerySkills(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Skill, error)
		GetSkillByID(ctx context.Context, id string, exec ...core.DBExecutor) (Skill, error)
		UpdateSkill(ctx context.Context, sk Skill, exec ...core.DBExecutor) (Skill, error)
		DeleteSkillsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, name string, exclSkills ...Skill) error
		Create(ctx context.Context, ns NewSkill) (Skill, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Skill, error)
		GetByID(ctx context.Context, id string) (Skill, error)
		GetByIDs(ctx context.Context, ids ...string) ([]Skill, error)
		Update(ctx context.Context, id string, us UpdateSkill) (Skill, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(ctx context.Context, name string, exclSkills ...Skill) error {
	if err := svc.repo.CheckSkillUniqueness(ctx, name, exclSkills); err != nil {
		if errors.Cause(err) == ErrSkillExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, ns NewSkill) (Skill, error) {
	return svc.repo.CreateSkill(ctx, Skill{Name: ns.Name, Description: ns.Description})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Skill, error) {
	return svc.repo.QuerySkills(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Skill, error) {
	return svc.repo.GetSkillByID(ctx, id)
}

func (svc *service) GetByIDs(ctx context.Context, ids ...string) ([]Skill, error) {
	if len(ids) == 0 {
		return []Skill{}, nil
	}
	return svc.repo.QuerySkills(ctx, &QueryFilter{IDs: ids}, nil)
}

func (svc *service) Update(ctx context.Context, id string, us UpdateSkill) (Skill, error) {
	return svc.repo.UpdateSkill(ctx, Skill{ID: id, Name: us.Name, Description: us.Description})
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteSkillsByID(ctx, ids)
	return err
}
