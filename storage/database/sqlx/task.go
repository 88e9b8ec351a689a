package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/stadi/core"
	"github.com/trezcool/stadi/core/task"
)

const (
	taskTable      = "task"
	taskSkillTable = "task_skill"
)

var taskColumns = []string{"id", "school_id", "teacher_id", "title", "description", "due_date", "created_at", "updated_at"}

type taskRow struct {
	ID          string      `db:"id"`
	SchoolID    string      `db:"school_id"`
	TeacherID   string      `db:"teacher_id"`
	Title       null.String `db:"title"`
	Description null.String `db:"description"`
	DueDate     null.Time   `db:"due_date"`
	CreatedAt   null.Time   `db:"created_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

type taskSkillRow struct {
	TaskID  string `db:"task_id"`
	SkillID string `db:"skill_id"`
}

type taskRepository struct {
	exec core.DBExecutor
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(exec core.DBExecutor) *taskRepository {
	return &taskRepository{exec: exec}
}

func (repo taskRepository) unpack(r taskRow) task.Task {
	return task.Task{
		ID:          r.ID,
		SchoolID:    r.SchoolID,
		TeacherID:   r.TeacherID,
		Title:       r.Title.String,
		Description: r.Description.String,
		DueDate:     r.DueDate,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

func (repo taskRepository) CreateTask(ctx context.Context, tsk task.Task, exec ...core.DBExecutor) (task.Task, error) {
	exe := getExec(repo.exec, exec)
	tsk.ID = uuid.New().String()

	q := psql.Insert(taskTable).Columns(taskColumns...).Values(
		tsk.ID, tsk.SchoolID, tsk.TeacherID, tsk.Title,
		null.NewString(tsk.Description, tsk.Description != ""),
		tsk.DueDate, tsk.CreatedAt.UTC(), tsk.UpdatedAt.UTC(),
	)
	if _, err := execQuery(ctx, exe, q); err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	if err := repo.setTaskSkills(ctx, exe, tsk.ID, tsk.SkillIDs); err != nil {
		return task.Task{}, err
	}
	return tsk, nil
}

func (repo taskRepository) QueryTasks(ctx context.Context, filter *task.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]task.Task, error) {
	exe := getExec(repo.exec, exec)
	q := psql.Select(taskColumns...).From(taskTable)

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q = q.Where(sq.Or{sq.ILike{"title": val}, sq.ILike{"description": val}})
		}
		if filter.SchoolID != "" {
			q = q.Where(sq.Eq{"school_id": filter.SchoolID})
		}
		if filter.TeacherID != "" {
			q = q.Where(sq.Eq{"teacher_id": filter.TeacherID})
		}
		if filter.SkillID != "" {
			q = q.Where(sq.Expr(
				"EXISTS (SELECT 1 FROM task_skill ts WHERE ts.task_id = task.id AND ts.skill_id = ?)", filter.SkillID))
		}
		if !filter.DueFrom.IsZero() {
			q = q.Where(sq.GtOrEq{"due_date": filter.DueFrom.UTC()})
		}
		if !filter.DueTo.IsZero() {
			q = q.Where(sq.LtOrEq{"due_date": filter.DueTo.UTC()})
		}
	}
	q = orderBy(q, ordering)

	var rows []taskRow
	if err := selectAll(ctx, exe, q, &rows); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, repo.unpack(r))
	}
	if err := repo.loadTaskSkills(ctx, exe, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (repo taskRepository) GetTaskByID(ctx context.Context, id string, exec ...core.DBExecutor) (task.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return task.Task{}, task.ErrNotFound
	}
	exe := getExec(repo.exec, exec)

	var rows []taskRow
	q := psql.Select(taskColumns...).From(taskTable).Where(sq.Eq{"id": id})
	if err := selectAll(ctx, exe, q, &rows); err != nil {
		return task.Task{}, errors.Wrap(err, "finding task")
	}
	if len(rows) == 0 {
		return task.Task{}, task.ErrNotFound
	}
	tasks := []task.Task{repo.unpack(rows[0])}
	if err := repo.loadTaskSkills(ctx, exe, tasks); err != nil {
		return task.Task{}, err
	}
	return tasks[0], nil
}

func (repo taskRepository) UpdateTask(ctx context.Context, tsk task.Task, exec ...core.DBExecutor) (task.Task, error) {
	exe := getExec(repo.exec, exec)

	q := psql.Update(taskTable).Where(sq.Eq{"id": tsk.ID}).
		Set("title", tsk.Title).
		Set("description", tsk.Description).
		Set("due_date", tsk.DueDate).
		Set("updated_at", tsk.UpdatedAt.UTC())
	if _, err := execQuery(ctx, exe, q); err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}

	// replace the targeted skills
	del := psql.Delete(taskSkillTable).Where(sq.Eq{"task_id": tsk.ID})
	if _, err := execQuery(ctx, exe, del); err != nil {
		return task.Task{}, errors.Wrap(err, "clearing task skills")
	}
	if err := repo.setTaskSkills(ctx, exe, tsk.ID, tsk.SkillIDs); err != nil {
		return task.Task{}, err
	}
	return repo.GetTaskByID(ctx, tsk.ID, exe)
}

func (repo taskRepository) DeleteTasksByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	q := psql.Delete(taskTable).Where(sq.Eq{"id": ids})
	cnt, err := execQuery(ctx, getExec(repo.exec, exec), q)
	if err != nil {
		return 0, errors.Wrap(err, "deleting tasks")
	}
	return cnt, nil
}

func (repo taskRepository) setTaskSkills(ctx context.Context, exe core.DBExecutor, taskID string, skillIDs []string) error {
	if len(skillIDs) == 0 {
		return nil
	}
	q := psql.Insert(taskSkillTable).Columns("task_id", "skill_id")
	for _, skillID := range skillIDs {
		q = q.Values(taskID, skillID)
	}
	if _, err := execQuery(ctx, exe, q); err != nil {
		return errors.Wrap(err, "inserting task skills")
	}
	return nil
}

// loadTaskSkills fills Task.SkillIDs of every given task in place.
func (repo taskRepository) loadTaskSkills(ctx context.Context, exe core.DBExecutor, tasks []task.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}

	var rows []taskSkillRow
	q := psql.Select("task_id", "skill_id").From(taskSkillTable).
		Where(sq.Eq{"task_id": ids}).OrderBy("task_id", "skill_id")
	if err := selectAll(ctx, exe, q, &rows); err != nil {
		return errors.Wrap(err, "querying task skills")
	}

	byTask := make(map[string][]string, len(tasks))
	for _, r := range rows {
		byTask[r.TaskID] = append(byTask[r.TaskID], r.SkillID)
	}
	for i := range tasks {
		tasks[i].SkillIDs = byTask[tasks[i].ID]
	}
	return nil
}
