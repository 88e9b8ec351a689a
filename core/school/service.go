package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/stadi/core"
)

var (
	// errors
	ErrNotFound     = errors.New("school not found")
	ErrSchoolExists = errors.New("a school with this name already exists")
)

type (
	Repository interface {
		CheckSchoolUniqueness(ctx context.Context, name string, excludedSchools []School, exec ...core.DBExecutor) error
		CreateSchool(ctx context.Context, sch School, exec ...core.DBExecutor) (School, error)
		// QuerySchools does a case-insensitive match of QueryFilter.Search on one of
		// School.Name or School.Address.
		QuerySchools(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]School, error)
		GetSchoolByID(ctx context.Context, id string, exec ...core.DBExecutor) (School, error)
		UpdateSchool(ctx context.Context, sch School, exec ...core.DBExecutor) (School, error)
		DeleteSchoolsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, name string, exclSchools ...School) error
		Create(ctx context.Context, ns NewSchool) (School, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]School, error)
		GetByID(ctx context.Context, id string) (School, error)
		Update(ctx context.Context, id string, us UpdateSchool) (School, error)
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

func (svc *service) CheckUniqueness(ctx context.Context, name string, exclSchools ...School) error {
	if err := svc.repo.CheckSchoolUniqueness(ctx, name, exclSchools); err != nil {
		if errors.Cause(err) == ErrSchoolExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, ns NewSchool) (School, error) {
	now := time.Now().UTC()
	sch := School{
		Name:      ns.Name,
		Address:   ns.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSchool(ctx, sch)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]School, error) {
	return svc.repo.QuerySchools(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (School, error) {
	return svc.repo.GetSchoolByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, us UpdateSchool) (School, error) {
	sch := School{
		ID:        id,
		Name:      us.Name,
		Address:   us.Address,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateSchool(ctx, sch)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteSchoolsByID(ctx, ids)
	return err
}
