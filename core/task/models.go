package task

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/stadi/core"
)

// Task is a piece of work a teacher assigns to their school's students,
// targeting one or more skills of the catalog.
type Task struct {
	ID          string    `json:"id"`
	SchoolID    string    `json:"school_id"`
	TeacherID   string    `json:"teacher_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     null.Time `json:"due_date,omitempty"`
	SkillIDs    []string  `json:"skill_ids"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewTask contains information needed to create a new Task.
// SchoolID and TeacherID are derived from the creator, never bound from the request.
type NewTask struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	DueDate     time.Time `json:"due_date"`
	SkillIDs    []string  `json:"skill_ids" validate:"required,min=1,dive,uuid"`
}

func (nt *NewTask) Validate() error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	return core.Validate.Struct(nt)
}

// UpdateTask defines what information may be provided to modify an existing Task.
type UpdateTask struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	SkillIDs    []string  `json:"skill_ids" validate:"omitempty,min=1,dive,uuid"`
}

func (ut *UpdateTask) Validate(orig Task) error {
	title := core.CleanString(ut.Title)
	if title != "" {
		ut.Title = title
	} else {
		ut.Title = orig.Title
	}
	if desc := core.CleanString(ut.Description); desc != "" {
		ut.Description = desc
	} else {
		ut.Description = orig.Description
	}
	if ut.DueDate.IsZero() && orig.DueDate.Valid {
		ut.DueDate = orig.DueDate.Time
	}
	if ut.SkillIDs == nil {
		ut.SkillIDs = orig.SkillIDs
	}
	return core.Validate.Struct(ut)
}

type QueryFilter struct {
	Search    string    `query:"search"`
	SchoolID  string    `query:"school_id"`
	TeacherID string    `query:"teacher_id"`
	SkillID   string    `query:"skill_id"`
	DueFrom   time.Time `query:"due_from"`
	DueTo     time.Time `query:"due_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.SchoolID == "" && qf.TeacherID == "" && qf.SkillID == "" &&
		qf.DueFrom.IsZero() && qf.DueTo.IsZero()
}

func (qf *QueryFilter) Clean() { qf.Search = core.CleanString(qf.Search) }
