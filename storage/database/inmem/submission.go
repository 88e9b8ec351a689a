package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/stadi/core"
	"github.com/trezcool/stadi/core/submission"
)

type submissionRepository struct {
	db    *submissionTable
	tasks *taskTable // for filtering by the tasks' teacher
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) submission.Repository {
	return &submissionRepository{db: db.submission, tasks: db.task}
}

// query returns all submissions with their assessment attached,
// sorted by submission time for deterministic results.
func (repo *submissionRepository) query() []submission.Submission {
	subs := make([]submission.Submission, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		sub := *s
		if a, ok := repo.db.assessments[sub.ID]; ok {
			cp := *a
			sub.Assessment = &cp
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
			return subs[i].ID < subs[j].ID
		}
		return subs[i].SubmittedAt.Before(subs[j].SubmittedAt)
	})
	return subs
}

func (repo *submissionRepository) SubmissionExists(ctx context.Context, taskID, studentID string, exec ...core.DBExecutor) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, s := range repo.db.table {
		if s.TaskID == taskID && s.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub.ID = uuid.New().String()
	repo.db.table[sub.ID] = &sub
	return sub, nil
}

func (repo *submissionRepository) QuerySubmissions(ctx context.Context, filter *submission.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := repo.query()
	if filter == nil {
		return subs, nil
	}

	if filter.TaskID != "" {
		filtered := make([]submission.Submission, 0, len(subs))
		for _, s := range subs {
			if s.TaskID == filter.TaskID {
				filtered = append(filtered, s)
			}
		}
		subs = filtered
	}
	if filter.StudentID != "" {
		filtered := make([]submission.Submission, 0, len(subs))
		for _, s := range subs {
			if s.StudentID == filter.StudentID {
				filtered = append(filtered, s)
			}
		}
		subs = filtered
	}
	// submissions of the teacher's tasks
	if filter.TeacherID != "" {
		repo.tasks.RLock()
		taskIDs := make(map[string]bool)
		for _, t := range repo.tasks.table {
			if t.TeacherID == filter.TeacherID {
				taskIDs[t.ID] = true
			}
		}
		repo.tasks.RUnlock()

		filtered := make([]submission.Submission, 0, len(subs))
		for _, s := range subs {
			if taskIDs[s.TaskID] {
				filtered = append(filtered, s)
			}
		}
		subs = filtered
	}
	if filter.Status != "" {
		filtered := make([]submission.Submission, 0, len(subs))
		for _, s := range subs {
			if s.Status == filter.Status {
				filtered = append(filtered, s)
			}
		}
		subs = filtered
	}
	return subs, nil
}

func (repo *submissionRepository) GetSubmissionByID(ctx context.Context, id string, exec ...core.DBExecutor) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	s, ok := repo.db.table[id]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	sub := *s
	if a, ok := repo.db.assessments[sub.ID]; ok {
		cp := *a
		sub.Assessment = &cp
	}
	return sub, nil
}

func (repo *submissionRepository) UpdateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[sub.ID]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	if sub.Content != "" {
		orig.Content = sub.Content
	}
	if sub.Status != "" {
		orig.Status = sub.Status
	}
	if !sub.UpdatedAt.IsZero() {
		orig.UpdatedAt = sub.UpdatedAt
	}
	return *orig, nil
}

func (repo *submissionRepository) DeleteSubmissionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			delete(repo.db.assessments, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *submissionRepository) CreateAssessment(ctx context.Context, a submission.Assessment, exec ...core.DBExecutor) (submission.Assessment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = uuid.New().String()
	for i := range a.Skills {
		a.Skills[i].ID = uuid.New().String()
		a.Skills[i].AssessmentID = a.ID
	}
	repo.db.assessments[a.SubmissionID] = &a
	return a, nil
}

func (repo *submissionRepository) DeleteAssessmentBySubmissionID(ctx context.Context, submissionID string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.assessments, submissionID)
	return nil
}

func (repo *submissionRepository) QueryStudentSkillScores(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]submission.StudentSkillScore, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var scores []submission.StudentSkillScore
	for _, s := range repo.db.table {
		if s.StudentID != studentID {
			continue
		}
		a, ok := repo.db.assessments[s.ID]
		if !ok {
			continue
		}
		for _, sk := range a.Skills {
			scores = append(scores, submission.StudentSkillScore{
				SkillID:   sk.SkillID,
				SkillName: sk.SkillName,
				Score:     sk.Score,
				GradedAt:  a.CreatedAt,
			})
		}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].GradedAt.Before(scores[j].GradedAt) })
	return scores, nil
}
