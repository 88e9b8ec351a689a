package submission

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/stadi/core"
	"github.com/trezcool/stadi/core/skill"
	"github.com/trezcool/stadi/core/task"
	"github.com/trezcool/stadi/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("submission not found")
	ErrAlreadySubmitted = errors.New("this task has already been submitted")
	ErrAlreadyGraded    = errors.New("a graded submission can no longer be edited")
)

type (
	Repository interface {
		SubmissionExists(ctx context.Context, taskID, studentID string, exec ...core.DBExecutor) (bool, error)
		CreateSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		// QuerySubmissions applies AND operation on available QueryFilter fields;
		// results carry their Assessment (with skill details) when one exists.
		QuerySubmissions(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Submission, error)
		GetSubmissionByID(ctx context.Context, id string, exec ...core.DBExecutor) (Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		DeleteSubmissionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)

		CreateAssessment(ctx context.Context, a Assessment, exec ...core.DBExecutor) (Assessment, error)
		DeleteAssessmentBySubmissionID(ctx context.Context, submissionID string, exec ...core.DBExecutor) error
		// QueryStudentSkillScores returns a student's graded skill data points,
		// ordered by assessment creation time ascending.
		QueryStudentSkillScores(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]StudentSkillScore, error)
	}

	Service interface {
		Create(ctx context.Context, taskID, studentID string, ns NewSubmission) (Submission, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Submission, error)
		GetByID(ctx context.Context, id string) (Submission, error)
		Update(ctx context.Context, orig Submission, us UpdateSubmission) (Submission, error)
		Delete(ctx context.Context, ids ...string) error
		// Grade sends the submission to the generative model and persists the
		// returned assessment, replacing any previous one.
		Grade(ctx context.Context, sub Submission, tsk task.Task, skills []skill.Skill, student user.User) (Submission, error)
		Performance(ctx context.Context, studentID string) (PerformanceReport, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		grader  core.Grader
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, grader core.Grader, mailSvc core.EmailService) Service {
	return &service{
		db:      db,
		repo:    repo,
		grader:  grader,
		mailSvc: mailSvc,
	}
}

func (svc *service) Create(ctx context.Context, taskID, studentID string, ns NewSubmission) (Submission, error) {
	exists, err := svc.repo.SubmissionExists(ctx, taskID, studentID)
	if err != nil {
		return Submission{}, err
	}
	if exists {
		return Submission{}, core.NewValidationError(ErrAlreadySubmitted)
	}

	now := time.Now().UTC()
	sub := Submission{
		TaskID:      taskID,
		StudentID:   studentID,
		Content:     ns.Content,
		Status:      StatusSubmitted,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateSubmission(ctx, sub)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmissionByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, orig Submission, us UpdateSubmission) (Submission, error) {
	if orig.IsGraded() {
		return Submission{}, core.NewValidationError(ErrAlreadyGraded)
	}
	orig.Content = us.Content
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubmission(ctx, orig)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteSubmissionsByID(ctx, ids)
	return err
}

func (svc *service) Grade(ctx context.Context, sub Submission, tsk task.Task, skills []skill.Skill, student user.User) (Submission, error) {
	skillNames := make([]string, 0, len(skills))
	for _, sk := range skills {
		skillNames = append(skillNames, sk.Name)
	}

	res, err := svc.grader.Grade(ctx, core.GradeInput{
		TaskTitle:       tsk.Title,
		TaskDescription: tsk.Description,
		SkillNames:      skillNames,
		Content:         sub.Content,
	})
	if err != nil {
		return Submission{}, err
	}
	res.Clamp()

	assessment := Assessment{
		SubmissionID: sub.ID,
		Score:        res.Score,
		Feedback:     res.Feedback,
		Model:        res.Model,
		CreatedAt:    time.Now().UTC(),
		Skills:       matchSkills(res.Skills, skills),
	}

	// replace any previous assessment and flip the status in one transaction
	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return Submission{}, errors.Wrap(err, "beginning grade tx")
	}
	defer func() { _ = tx.Rollback() }()

	if err = svc.repo.DeleteAssessmentBySubmissionID(ctx, sub.ID, tx); err != nil {
		return Submission{}, err
	}
	assessment, err = svc.repo.CreateAssessment(ctx, assessment, tx)
	if err != nil {
		return Submission{}, err
	}
	sub.Status = StatusGraded
	sub.UpdatedAt = time.Now().UTC()
	sub, err = svc.repo.UpdateSubmission(ctx, sub, tx)
	if err != nil {
		return Submission{}, err
	}
	if err = tx.Commit(); err != nil {
		return Submission{}, errors.Wrap(err, "committing grade tx")
	}

	sub.Assessment = &assessment
	svc.sendGradedMail(student, tsk, assessment)
	return sub, nil
}

func (svc *service) Performance(ctx context.Context, studentID string) (PerformanceReport, error) {
	scores, err := svc.repo.QueryStudentSkillScores(ctx, studentID)
	if err != nil {
		return PerformanceReport{}, err
	}
	return ComputePerformance(scores), nil
}

// matchSkills maps the model's skill verdicts onto the task's targeted skills;
// verdicts on skills outside the target set are dropped.
func matchSkills(grades []core.SkillGrade, targets []skill.Skill) []SkillAssessment {
	byName := make(map[string]skill.Skill, len(targets))
	for _, sk := range targets {
		byName[strings.ToLower(sk.Name)] = sk
	}

	out := make([]SkillAssessment, 0, len(grades))
	for _, g := range grades {
		sk, ok := byName[strings.ToLower(core.CleanString(g.Name))]
		if !ok {
			continue
		}
		out = append(out, SkillAssessment{
			SkillID:   sk.ID,
			SkillName: sk.Name,
			Score:     g.Score,
			Comment:   g.Comment,
		})
	}
	return out
}

func (svc *service) sendGradedMail(student user.User, tsk task.Task, a Assessment) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      fmt.Sprintf("Your submission for %q was graded", tsk.Title),
		TemplateName: "submission-graded",
		TemplateData: struct {
			Student    user.User
			Task       task.Task
			Assessment Assessment
		}{student, tsk, a},
	})
}
