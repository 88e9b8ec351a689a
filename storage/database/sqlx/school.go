package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/stadi/core"
	"github.com/trezcool/stadi/core/school"
)

const schoolTable = "school"

var schoolColumns = []string{"id", "name", "address", "created_at", "updated_at"}

type schoolRow struct {
	ID        string      `db:"id"`
	Name      null.String `db:"name"`
	Address   null.String `db:"address"`
	CreatedAt null.Time   `db:"created_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

type schoolRepository struct {
	exec core.DBExecutor
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(exec core.DBExecutor) *schoolRepository {
	return &schoolRepository{exec: exec}
}

func (repo schoolRepository) unpack(r schoolRow) school.School {
	return school.School{
		ID:        r.ID,
		Name:      r.Name.String,
		Address:   r.Address.String,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
}

func (repo schoolRepository) CheckSchoolUniqueness(ctx context.Context, name string, excludedSchools []school.School, exec ...core.DBExecutor) error {
	// school names are unique case-insensitively
	q := psql.Select("COUNT(*)").From(schoolTable).Where(sq.ILike{"name": name})
	if len(excludedSchools) > 0 {
		ids := make([]string, 0, len(excludedSchools))
		for _, s := range excludedSchools {
			ids = append(ids, s.ID)
		}
		q = q.Where(sq.NotEq{"id": ids})
	}

	cnt, err := count(ctx, getExec(repo.exec, exec), q)
	if err != nil {
		return errors.Wrap(err, "checking school uniqueness")
	}
	if cnt > 0 {
		return school.ErrSchoolExists
	}
	return nil
}

func (repo schoolRepository) CreateSchool(ctx context.Context, sch school.School, exec ...core.DBExecutor) (school.School, error) {
	sch.ID = uuid.New().String()

	q := psql.Insert(schoolTable).Columns(schoolColumns...).Values(
		sch.ID, sch.Name, null.NewString(sch.Address, sch.Address != ""), sch.CreatedAt.UTC(), sch.UpdatedAt.UTC(),
	)
	if _, err := execQuery(ctx, getExec(repo.exec, exec), q); err != nil {
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	return sch, nil
}

func (repo schoolRepository) QuerySchools(ctx context.Context, filter *school.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]school.School, error) {
	q := psql.Select(schoolColumns...).From(schoolTable)

	if filter != nil && filter.Search != "" {
		val := "%" + filter.Search + "%"
		q = q.Where(sq.Or{sq.ILike{"name": val}, sq.ILike{"address": val}})
	}
	q = orderBy(q, ordering)

	var rows []schoolRow
	if err := selectAll(ctx, getExec(repo.exec, exec), q, &rows); err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	schools := make([]school.School, 0, len(rows))
	for _, r := range rows {
		schools = append(schools, repo.unpack(r))
	}
	return schools, nil
}

func (repo schoolRepository) GetSchoolByID(ctx context.Context, id string, exec ...core.DBExecutor) (school.School, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.School{}, school.ErrNotFound
	}

	var rows []schoolRow
	q := psql.Select(schoolColumns...).From(schoolTable).Where(sq.Eq{"id": id})
	if err := selectAll(ctx, getExec(repo.exec, exec), q, &rows); err != nil {
		return school.School{}, errors.Wrap(err, "finding school")
	}
	if len(rows) == 0 {
		return school.School{}, school.ErrNotFound
	}
	return repo.unpack(rows[0]), nil
}

func (repo schoolRepository) UpdateSchool(ctx context.Context, sch school.School, exec ...core.DBExecutor) (school.School, error) {
	exe := getExec(repo.exec, exec)

	q := psql.Update(schoolTable).Where(sq.Eq{"id": sch.ID}).Set("updated_at", sch.UpdatedAt.UTC())
	if sch.Name != "" {
		q = q.Set("name", sch.Name)
	}
	if sch.Address != "" {
		q = q.Set("address", sch.Address)
	}

	if _, err := execQuery(ctx, exe, q); err != nil {
		return school.School{}, errors.Wrap(err, "updating school")
	}
	return repo.GetSchoolByID(ctx, sch.ID, exe)
}

func (repo schoolRepository) DeleteSchoolsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	q := psql.Delete(schoolTable).Where(sq.Eq{"id": ids})
	cnt, err := execQuery(ctx, getExec(repo.exec, exec), q)
	if err != nil {
		return 0, errors.Wrap(err, "deleting schools")
	}
	return cnt, nil
}
