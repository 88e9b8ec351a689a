package core

import (
	"context"
	"errors"
)

// ErrUngradable is returned when the generative model's reply does not
// contain a usable grade object.
var ErrUngradable = errors.New("could not extract a grade from the model response")

type (
	// GradeInput carries everything the model needs to grade a submission.
	GradeInput struct {
		TaskTitle       string
		TaskDescription string
		SkillNames      []string
		Content         string
	}

	// SkillGrade is the model's verdict on a single targeted skill.
	SkillGrade struct {
		Name    string `json:"name"`
		Score   int    `json:"score"`
		Comment string `json:"comment"`
	}

	// GradeResult is the JSON object extracted from the model's free-text reply.
	GradeResult struct {
		Score    int          `json:"score"`
		Feedback string       `json:"feedback"`
		Skills   []SkillGrade `json:"skills"`
		Model    string       `json:"-"` // which model produced it
	}

	// Grader is any service that can grade a submission.
	Grader interface {
		Grade(ctx context.Context, in GradeInput) (GradeResult, error)
	}
)

// Clamp bounds all scores to the 0-100 scale.
func (r *GradeResult) Clamp() {
	r.Score = clampScore(r.Score)
	for i := range r.Skills {
		r.Skills[i].Score = clampScore(r.Skills[i].Score)
	}
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
