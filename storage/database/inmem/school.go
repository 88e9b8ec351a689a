package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/stadi/core"
	"github.com/trezcool/stadi/core/school"
)

type schoolRepository struct {
	db *schoolTable
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db.school}
}

func (repo *schoolRepository) query() []school.School {
	schools := make([]school.School, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		schools = append(schools, *s)
	}
	sort.Slice(schools, func(i, j int) bool {
		if schools[i].CreatedAt.Equal(schools[j].CreatedAt) {
			return schools[i].ID < schools[j].ID
		}
		return schools[i].CreatedAt.Before(schools[j].CreatedAt)
	})
	return schools
}

func (repo *schoolRepository) CheckSchoolUniqueness(ctx context.Context, name string, excludedSchools []school.School, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedSchools))
	for _, s := range excludedSchools {
		excluded[s.ID] = true
	}
	for _, sch := range repo.query() {
		if !excluded[sch.ID] && strings.EqualFold(sch.Name, name) {
			return school.ErrSchoolExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateSchool(ctx context.Context, sch school.School, exec ...core.DBExecutor) (school.School, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sch.ID = uuid.New().String()
	repo.db.table[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) QuerySchools(ctx context.Context, filter *school.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]school.School, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	schools := repo.query()
	if filter != nil && filter.Search != "" {
		search := strings.ToLower(filter.Search)
		filtered := make([]school.School, 0, len(schools))
		for _, s := range schools {
			if strings.Contains(strings.ToLower(s.Name), search) ||
				strings.Contains(strings.ToLower(s.Address), search) {
				filtered = append(filtered, s)
			}
		}
		schools = filtered
	}
	return schools, nil
}

func (repo *schoolRepository) GetSchoolByID(ctx context.Context, id string, exec ...core.DBExecutor) (school.School, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sch, ok := repo.db.table[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateSchool(ctx context.Context, sch school.School, exec ...core.DBExecutor) (school.School, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[sch.ID]
	if !ok {
		return school.School{}, school.ErrNotFound
	}
	if sch.Name != "" {
		orig.Name = sch.Name
	}
	if sch.Address != "" {
		orig.Address = sch.Address
	}
	if !sch.UpdatedAt.IsZero() {
		orig.UpdatedAt = sch.UpdatedAt
	}
	return *orig, nil
}

func (repo *schoolRepository) DeleteSchoolsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
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
