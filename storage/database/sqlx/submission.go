package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/stadi/core"
	"github.com/trezcool/stadi/core/submission"
)

const (
	submissionTable      = "submission"
	assessmentTable      = "assessment"
	skillAssessmentTable = "skill_assessment"
)

var (
	submissionColumns = []string{"id", "task_id", "student_id", "content", "status", "submitted_at", "updated_at"}
	assessmentColumns = []string{"id", "submission_id", "score", "feedback", "model", "created_at"}
)

type submissionRow struct {
	ID          string      `db:"id"`
	TaskID      string      `db:"task_id"`
	StudentID   string      `db:"student_id"`
	Content     null.String `db:"content"`
	Status      string      `db:"status"`
	SubmittedAt null.Time   `db:"submitted_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

type assessmentRow struct {
	ID           string      `db:"id"`
	SubmissionID string      `db:"submission_id"`
	Score        int         `db:"score"`
	Feedback     null.String `db:"feedback"`
	Model        null.String `db:"model"`
	CreatedAt    null.Time   `db:"created_at"`
}

type skillAssessmentRow struct {
	ID           string      `db:"id"`
	AssessmentID string      `db:"assessment_id"`
	SkillID      string      `db:"skill_id"`
	SkillName    null.String `db:"skill_name"`
	Score        int         `db:"score"`
	Comment      null.String `db:"comment"`
}

type submissionRepository struct {
	exec core.DBExecutor
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(exec core.DBExecutor) *submissionRepository {
	return &submissionRepository{exec: exec}
}

func (repo submissionRepository) unpack(r submissionRow) submission.Submission {
	return submission.Submission{
		ID:          r.ID,
		TaskID:      r.TaskID,
		StudentID:   r.StudentID,
		Content:     r.Content.String,
		Status:      r.Status,
		SubmittedAt: r.SubmittedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

func (repo submissionRepository) SubmissionExists(ctx context.Context, taskID, studentID string, exec ...core.DBExecutor) (bool, error) {
	q := psql.Select("COUNT(*)").From(submissionTable).
		Where(sq.Eq{"task_id": taskID, "student_id": studentID})
	cnt, err := count(ctx, getExec(repo.exec, exec), q)
	if err != nil {
		return false, errors.Wrap(err, "checking submission existence")
	}
	return cnt > 0, nil
}

func (repo submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	sub.ID = uuid.New().String()

	q := psql.Insert(submissionTable).Columns(submissionColumns...).Values(
		sub.ID, sub.TaskID, sub.StudentID, sub.Content, sub.Status,
		sub.SubmittedAt.UTC(), sub.UpdatedAt.UTC(),
	)
	if _, err := execQuery(ctx, getExec(repo.exec, exec), q); err != nil {
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo submissionRepository) QuerySubmissions(ctx context.Context, filter *submission.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]submission.Submission, error) {
	exe := getExec(repo.exec, exec)
	q := psql.Select(submissionColumns...).From(submissionTable)

	if filter != nil {
		if filter.TaskID != "" {
			q = q.Where(sq.Eq{"task_id": filter.TaskID})
		}
		if filter.StudentID != "" {
			q = q.Where(sq.Eq{"student_id": filter.StudentID})
		}
		// submissions of the teacher's tasks
		if filter.TeacherID != "" {
			q = q.Where(sq.Expr(
				"EXISTS (SELECT 1 FROM task t WHERE t.id = submission.task_id AND t.teacher_id = ?)", filter.TeacherID))
		}
		if filter.Status != "" {
			q = q.Where(sq.Eq{"status": filter.Status})
		}
	}
	q = orderBy(q, ordering)

	var rows []submissionRow
	if err := selectAll(ctx, exe, q, &rows); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, repo.unpack(r))
	}
	if err := repo.loadAssessments(ctx, exe, subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (repo submissionRepository) GetSubmissionByID(ctx context.Context, id string, exec ...core.DBExecutor) (submission.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return submission.Submission{}, submission.ErrNotFound
	}
	exe := getExec(repo.exec, exec)

	var rows []submissionRow
	q := psql.Select(submissionColumns...).From(submissionTable).Where(sq.Eq{"id": id})
	if err := selectAll(ctx, exe, q, &rows); err != nil {
		return submission.Submission{}, errors.Wrap(err, "finding submission")
	}
	if len(rows) == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	subs := []submission.Submission{repo.unpack(rows[0])}
	if err := repo.loadAssessments(ctx, exe, subs); err != nil {
		return submission.Submission{}, err
	}
	return subs[0], nil
}

func (repo submissionRepository) UpdateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	q := psql.Update(submissionTable).Where(sq.Eq{"id": sub.ID}).
		Set("content", sub.Content).
		Set("status", sub.Status).
		Set("updated_at", sub.UpdatedAt.UTC())
	if _, err := execQuery(ctx, getExec(repo.exec, exec), q); err != nil {
		return submission.Submission{}, errors.Wrap(err, "updating submission")
	}
	return sub, nil
}

func (repo submissionRepository) DeleteSubmissionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	q := psql.Delete(submissionTable).Where(sq.Eq{"id": ids})
	cnt, err := execQuery(ctx, getExec(repo.exec, exec), q)
	if err != nil {
		return 0, errors.Wrap(err, "deleting submissions")
	}
	return cnt, nil
}

func (repo submissionRepository) CreateAssessment(ctx context.Context, a submission.Assessment, exec ...core.DBExecutor) (submission.Assessment, error) {
	exe := getExec(repo.exec, exec)
	a.ID = uuid.New().String()

	q := psql.Insert(assessmentTable).Columns(assessmentColumns...).Values(
		a.ID, a.SubmissionID, a.Score,
		null.NewString(a.Feedback, a.Feedback != ""),
		null.NewString(a.Model, a.Model != ""),
		a.CreatedAt.UTC(),
	)
	if _, err := execQuery(ctx, exe, q); err != nil {
		return submission.Assessment{}, errors.Wrap(err, "inserting assessment")
	}

	if len(a.Skills) > 0 {
		ins := psql.Insert(skillAssessmentTable).Columns("id", "assessment_id", "skill_id", "score", "comment")
		for i := range a.Skills {
			a.Skills[i].ID = uuid.New().String()
			a.Skills[i].AssessmentID = a.ID
			sk := a.Skills[i]
			ins = ins.Values(sk.ID, sk.AssessmentID, sk.SkillID, sk.Score, null.NewString(sk.Comment, sk.Comment != ""))
		}
		if _, err := execQuery(ctx, exe, ins); err != nil {
			return submission.Assessment{}, errors.Wrap(err, "inserting skill assessments")
		}
	}
	return a, nil
}

func (repo submissionRepository) DeleteAssessmentBySubmissionID(ctx context.Context, submissionID string, exec ...core.DBExecutor) error {
	// skill assessments go with it via ON DELETE CASCADE
	q := psql.Delete(assessmentTable).Where(sq.Eq{"submission_id": submissionID})
	if _, err := execQuery(ctx, getExec(repo.exec, exec), q); err != nil {
		return errors.Wrap(err, "deleting assessment")
	}
	return nil
}

func (repo submissionRepository) QueryStudentSkillScores(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]submission.StudentSkillScore, error) {
	q := psql.Select(
		"sa.skill_id AS skill_id",
		"sk.name AS skill_name",
		"sa.score AS score",
		"a.created_at AS graded_at",
	).
		From(skillAssessmentTable + " sa").
		Join(assessmentTable + " a ON a.id = sa.assessment_id").
		Join(submissionTable + " s ON s.id = a.submission_id").
		Join(skillTable + " sk ON sk.id = sa.skill_id").
		Where(sq.Eq{"s.student_id": studentID}).
		OrderBy("a.created_at ASC")

	var rows []submission.StudentSkillScore
	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	dbRows, err := getExec(repo.exec, exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying student skill scores")
	}
	defer func() { _ = dbRows.Close() }()
	for dbRows.Next() {
		var s submission.StudentSkillScore
		if err = dbRows.Scan(&s.SkillID, &s.SkillName, &s.Score, &s.GradedAt); err != nil {
			return nil, errors.Wrap(err, "scanning student skill score")
		}
		rows = append(rows, s)
	}
	if err = dbRows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying student skill scores")
	}
	return rows, nil
}

// loadAssessments fills Submission.Assessment of every given submission in place.
func (repo submissionRepository) loadAssessments(ctx context.Context, exe core.DBExecutor, subs []submission.Submission) error {
	if len(subs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ID)
	}

	var aRows []assessmentRow
	q := psql.Select(assessmentColumns...).From(assessmentTable).Where(sq.Eq{"submission_id": ids})
	if err := selectAll(ctx, exe, q, &aRows); err != nil {
		return errors.Wrap(err, "querying assessments")
	}
	if len(aRows) == 0 {
		return nil
	}

	aIDs := make([]string, 0, len(aRows))
	for _, r := range aRows {
		aIDs = append(aIDs, r.ID)
	}
	var saRows []skillAssessmentRow
	saq := psql.Select(
		"sa.id AS id",
		"sa.assessment_id AS assessment_id",
		"sa.skill_id AS skill_id",
		"sk.name AS skill_name",
		"sa.score AS score",
		"sa.comment AS comment",
	).
		From(skillAssessmentTable + " sa").
		Join(skillTable + " sk ON sk.id = sa.skill_id").
		Where(sq.Eq{"sa.assessment_id": aIDs}).
		OrderBy("sk.name ASC")
	if err := selectAll(ctx, exe, saq, &saRows); err != nil {
		return errors.Wrap(err, "querying skill assessments")
	}

	skillsByAssessment := make(map[string][]submission.SkillAssessment, len(aRows))
	for _, r := range saRows {
		skillsByAssessment[r.AssessmentID] = append(skillsByAssessment[r.AssessmentID], submission.SkillAssessment{
			ID:           r.ID,
			AssessmentID: r.AssessmentID,
			SkillID:      r.SkillID,
			SkillName:    r.SkillName.String,
			Score:        r.Score,
			Comment:      r.Comment.String,
		})
	}

	bySubmission := make(map[string]*submission.Assessment, len(aRows))
	for _, r := range aRows {
		bySubmission[r.SubmissionID] = &submission.Assessment{
			ID:           r.ID,
			SubmissionID: r.SubmissionID,
			Score:        r.Score,
			Feedback:     r.Feedback.String,
			Model:        r.Model.String,
			CreatedAt:    r.CreatedAt.Time,
			Skills:       skillsByAssessment[r.ID],
		}
	}
	for i := range subs {
		subs[i].Assessment = bySubmission[subs[i].ID]
	}
	return nil
}
