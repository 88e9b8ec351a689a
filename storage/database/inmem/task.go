package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/stadi/core"
	"github.com/trezcool/stadi/core/task"
)

type taskRepository struct {
	db *taskTable
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db.task}
}

func (repo *taskRepository) query() []task.Task {
	tasks := make([]task.Task, 0, len(repo.db.table))
	for _, t := range repo.db.table {
		tasks = append(tasks, *t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks
}

func (repo *taskRepository) CreateTask(ctx context.Context, tsk task.Task, exec ...core.DBExecutor) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	tsk.ID = uuid.New().String()
	repo.db.table[tsk.ID] = &tsk
	return tsk, nil
}

func (repo *taskRepository) QueryTasks(ctx context.Context, filter *task.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tasks := repo.query()
	if filter == nil {
		return tasks, nil
	}

	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		filtered := make([]task.Task, 0, len(tasks))
		for _, t := range tasks {
			if strings.Contains(strings.ToLower(t.Title), search) ||
				strings.Contains(strings.ToLower(t.Description), search) {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	if filter.SchoolID != "" {
		filtered := make([]task.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.SchoolID == filter.SchoolID {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	if filter.TeacherID != "" {
		filtered := make([]task.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.TeacherID == filter.TeacherID {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	if filter.SkillID != "" {
		filtered := make([]task.Task, 0, len(tasks))
		for _, t := range tasks {
			for _, id := range t.SkillIDs {
				if id == filter.SkillID {
					filtered = append(filtered, t)
					break
				}
			}
		}
		tasks = filtered
	}
	if !filter.DueFrom.IsZero() {
		from := filter.DueFrom.UTC()
		filtered := make([]task.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.DueDate.Valid && !t.DueDate.Time.Before(from) {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	if !filter.DueTo.IsZero() {
		to := filter.DueTo.UTC()
		filtered := make([]task.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.DueDate.Valid && !t.DueDate.Time.After(to) {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	return tasks, nil
}

func (repo *taskRepository) GetTaskByID(ctx context.Context, id string, exec ...core.DBExecutor) (task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if tsk, ok := repo.db.table[id]; ok {
		return *tsk, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) UpdateTask(ctx context.Context, tsk task.Task, exec ...core.DBExecutor) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[tsk.ID]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	if tsk.Title != "" {
		orig.Title = tsk.Title
	}
	if tsk.Description != "" {
		orig.Description = tsk.Description
	}
	orig.DueDate = tsk.DueDate
	if tsk.SkillIDs != nil {
		orig.SkillIDs = tsk.SkillIDs
	}
	if !tsk.UpdatedAt.IsZero() {
		orig.UpdatedAt = tsk.UpdatedAt
	}
	return *orig, nil
}

func (repo *taskRepository) DeleteTasksByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
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
