package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/stadi/core"
	"github.com/trezcool/stadi/core/skill"
)

type skillRepository struct {
	db *skillTable
}

var _ skill.Repository = (*skillRepository)(nil) // interface compliance check

func NewSkillRepository(db *DB) skill.Repository {
	return &skillRepository{db: db.skill}
}

func (repo *skillRepository) query() []skill.Skill {
	skills := make([]skill.Skill, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		skills = append(skills, *s)
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	return skills
}

func (repo *skillRepository) CheckSkillUniqueness(ctx context.Context, name string, excludedSkills []skill.Skill, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedSkills))
	for _, s := range excludedSkills {
		excluded[s.ID] = true
	}
	for _, sk := range repo.query() {
		if !excluded[sk.ID] && strings.EqualFold(sk.Name, name) {
			return skill.ErrSkillExists
		}
	}
	return nil
}

func (repo *skillRepository) CreateSkill(ctx context.Context, sk skill.Skill, exec ...core.DBExecutor) (skill.Skill, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sk.ID = uuid.New().String()
	repo.db.table[sk.ID] = &sk
	return sk, nil
}

func (repo *skillRepository) QuerySkills(ctx context.Context, filter *skill.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]skill.Skill, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	skills := repo.query()
	if filter == nil {
		return skills, nil
	}

	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		filtered := make([]skill.Skill, 0, len(skills))
		for _, s := range skills {
			if strings.Contains(strings.ToLower(s.Name), search) ||
				strings.Contains(strings.ToLower(s.Description), search) {
				filtered = append(filtered, s)
			}
		}
		skills = filtered
	}
	if len(filter.IDs) > 0 {
		wanted := make(map[string]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			wanted[id] = true
		}
		filtered := make([]skill.Skill, 0, len(skills))
		for _, s := range skills {
			if wanted[s.ID] {
				filtered = append(filtered, s)
			}
		}
		skills = filtered
	}
	return skills, nil
}

func (repo *skillRepository) GetSkillByID(ctx context.Context, id string, exec ...core.DBExecutor) (skill.Skill, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sk, ok := repo.db.table[id]; ok {
		return *sk, nil
	}
	return skill.Skill{}, skill.ErrNotFound
}

func (repo *skillRepository) UpdateSkill(ctx context.Context, sk skill.Skill, exec ...core.DBExecutor) (skill.Skill, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[sk.ID]
	if !ok {
		return skill.Skill{}, skill.ErrNotFound
	}
	if sk.Name != "" {
		orig.Name = sk.Name
	}
	if sk.Description != "" {
		orig.Description = sk.Description
	}
	return *orig, nil
}

func (repo *skillRepository) DeleteSkillsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}
