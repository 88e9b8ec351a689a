package submission

import (
	"time"

	"github.com/trezcool/stadi/core"
)

// Statuses
const (
	StatusSubmitted = "submitted"
	StatusGraded    = "graded"
)

type Submission struct {
	ID          string      `json:"id"`
	TaskID      string      `json:"task_id"`
	StudentID   string      `json:"student_id"`
	Content     string      `json:"content"`
	Status      string      `json:"status"`
	SubmittedAt time.Time   `json:"submitted_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"`   // UTC
	Assessment  *Assessment `json:"assessment,omitempty"`
}

func (s *Submission) IsGraded() bool { return s.Status == StatusGraded }

// Assessment is the AI-generated grade of a Submission.
type Assessment struct {
	ID           string            `json:"id"`
	SubmissionID string            `json:"submission_id"`
	Score        int               `json:"score"`
	Feedback     string            `json:"feedback"`
	Model        string            `json:"model"`
	CreatedAt    time.Time         `json:"created_at"` // UTC
	Skills       []SkillAssessment `json:"skills"`
}

// SkillAssessment is the model's per-skill verdict within an Assessment.
type SkillAssessment struct {
	ID           string `json:"id"`
	AssessmentID string `json:"-"`
	SkillID      string `json:"skill_id"`
	SkillName    string `json:"skill_name"`
	Score        int    `json:"score"`
	Comment      string `json:"comment"`
}

// StudentSkillScore is one graded skill data point of a student,
// fetched via submission → assessment → skill_assessment.
type StudentSkillScore struct {
	SkillID   string    `json:"skill_id"`
	SkillName string    `json:"skill_name"`
	Score     int       `json:"score"`
	GradedAt  time.Time `json:"graded_at"` // UTC
}

// NewSubmission contains information needed to create a new Submission.
// TaskID and StudentID are derived from the route and the JWT, never bound from the body.
type NewSubmission struct {
	Content string `json:"content" validate:"required"`
}

func (ns *NewSubmission) Validate() error {
	ns.Content = core.CleanString(ns.Content)
	return core.Validate.Struct(ns)
}

// UpdateSubmission defines what information may be provided to modify an existing Submission.
type UpdateSubmission struct {
	Content string `json:"content" validate:"required"`
}

func (us *UpdateSubmission) Validate() error {
	us.Content = core.CleanString(us.Content)
	return core.Validate.Struct(us)
}

type QueryFilter struct {
	TaskID    string `query:"task_id"`
	StudentID string `query:"student_id"`
	TeacherID string `query:"-"` // submissions of a teacher's tasks; derived, never bound
	Status    string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.TaskID == "" && qf.StudentID == "" && qf.TeacherID == "" && qf.Status == ""
}
