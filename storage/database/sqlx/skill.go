package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/stadi/core"
	"github.com/trezcool/stadi/core/skill"
)

const skillTable = "skill"

var skillColumns = []string{"id", "name", "description"}

type skillRow struct {
	ID          string      `db:"id"`
	Name        null.String `db:"name"`
	Description null.String `db:"description"`
}

type skillRepository struct {
	exec core.DBExecutor
}

var _ skill.Repository = (*skillRepository)(nil) // interface compliance check

func NewSkillRepository(exec core.DBExecutor) *skillRepository {
	return &skillRepository{exec: exec}
}

func (repo skillRepository) unpack(r skillRow) skill.Skill {
	return skill.Skill{
		ID:          r.ID,
		Name:        r.Name.String,
		Description: r.Description.String,
	}
}

func (repo skillRepository) CheckSkillUniqueness(ctx context.Context, name string, excludedSkills []skill.Skill, exec ...core.DBExecutor) error {
	// skill names are unique case-insensitively
	q := psql.Select("COUNT(*)").From(skillTable).Where(sq.ILike{"name": name})
	if len(excludedSkills) > 0 {
		ids := make([]string, 0, len(excludedSkills))
		for _, s := range excludedSkills {
			ids = append(ids, s.ID)
		}
		q = q.Where(sq.NotEq{"id": ids})
	}

	cnt, err := count(ctx, getExec(repo.exec, exec), q)
	if err != nil {
		return errors.Wrap(err, "checking skill uniqueness")
	}
	if cnt > 0 {
		return skill.ErrSkillExists
	}
	return nil
}

func (repo skillRepository) CreateSkill(ctx context.Context, sk skill.Skill, exec ...core.DBExecutor) (skill.Skill, error) {
	sk.ID = uuid.New().String()

	q := psql.Insert(skillTable).Columns(skillColumns...).Values(
		sk.ID, sk.Name, null.NewString(sk.Description, sk.Description != ""),
	)
	if _, err := execQuery(ctx, getExec(repo.exec, exec), q); err != nil {
		return skill.Skill{}, errors.Wrap(err, "inserting skill")
	}
	return sk, nil
}

func (repo skillRepository) QuerySkills(ctx context.Context, filter *skill.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]skill.Skill, error) {
	q := psql.Select(skillColumns...).From(skillTable)

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q = q.Where(sq.Or{sq.ILike{"name": val}, sq.ILike{"description": val}})
		}
		if len(filter.IDs) > 0 {
			q = q.Where(sq.Eq{"id": filter.IDs})
		}
	}
	q = orderBy(q, ordering)

	var rows []skillRow
	if err := selectAll(ctx, getExec(repo.exec, exec), q, &rows); err != nil {
		return nil, errors.Wrap(err, "querying skills")
	}
	skills := make([]skill.Skill, 0, len(rows))
	for _, r := range rows {
		skills = append(skills, repo.unpack(r))
	}
	return skills, nil
}

func (repo skillRepository) GetSkillByID(ctx context.Context, id string, exec ...core.DBExecutor) (skill.Skill, error) {
	if _, err := uuid.Parse(id); err != nil {
		return skill.Skill{}, skill.ErrNotFound
	}

	var rows []skillRow
	q := psql.Select(skillColumns...).From(skillTable).Where(sq.Eq{"id": id})
	if err := selectAll(ctx, getExec(repo.exec, exec), q, &rows); err != nil {
		return skill.Skill{}, errors.Wrap(err, "finding skill")
	}
	if len(rows) == 0 {
		return skill.Skill{}, skill.ErrNotFound
	}
	return repo.unpack(rows[0]), nil
}

func (repo skillRepository) UpdateSkill(ctx context.Context, sk skill.Skill, exec ...core.DBExecutor) (skill.Skill, error) {
	exe := getExec(repo.exec, exec)

	q := psql.Update(skillTable).Where(sq.Eq{"id": sk.ID})
	if sk.Name != "" {
		q = q.Set("name", sk.Name)
	}
	if sk.Description != "" {
		q = q.Set("description", sk.Description)
	}

	if _, err := execQuery(ctx, exe, q); err != nil {
		return skill.Skill{}, errors.Wrap(err, "updating skill")
	}
	return repo.GetSkillByID(ctx, sk.ID, exe)
}

func (repo skillRepository) DeleteSkillsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	q := psql.Delete(skillTable).Where(sq.Eq{"id": ids})
	cnt, err := execQuery(ctx, getExec(repo.exec, exec), q)
	if err != nil {
		return 0, errors.Wrap(err, "deleting skills")
	}
	return cnt, nil
}
