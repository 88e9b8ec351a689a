package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/stadi/core/school"
	"github.com/trezcool/stadi/core/skill"
	"github.com/trezcool/stadi/core/submission"
	"github.com/trezcool/stadi/core/task"
	"github.com/trezcool/stadi/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  &isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateSchoolUser creates a user attached to a school.
func CreateSchoolUser(
	t *testing.T,
	repo user.Repository,
	schoolID, name, uname, email, pwd string,
	roles []string,
) user.User {
	t.Helper()

	usr := CreateUser(t, repo, name, uname, email, pwd, roles, true)
	usr.SchoolID = null.StringFrom(schoolID)
	usr, err := repo.UpdateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateSchoolUser() failed: %v", err)
	}
	return usr
}

func CreateSchool(t *testing.T, repo school.Repository, name, address string) school.School {
	t.Helper()

	now := time.Now().UTC()
	sch, err := repo.CreateSchool(context.Background(), school.School{
		Name:      name,
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

func CreateSkill(t *testing.T, repo skill.Repository, name, description string) skill.Skill {
	t.Helper()

	sk, err := repo.CreateSkill(context.Background(), skill.Skill{
		Name:        name,
		Description: description,
	})
	if err != nil {
		t.Fatalf("CreateSkill() failed: %v", err)
	}
	return sk
}

func CreateTask(
	t *testing.T,
	repo task.Repository,
	schoolID, teacherID, title, description string,
	skillIDs []string,
) task.Task {
	t.Helper()

	now := time.Now().UTC()
	tsk, err := repo.CreateTask(context.Background(), task.Task{
		SchoolID:    schoolID,
		TeacherID:   teacherID,
		Title:       title,
		Description: description,
		SkillIDs:    skillIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	return tsk
}

func CreateSubmission(
	t *testing.T,
	repo submission.Repository,
	taskID, studentID, content string,
) submission.Submission {
	t.Helper()

	now := time.Now().UTC()
	sub, err := repo.CreateSubmission(context.Background(), submission.Submission{
		TaskID:      taskID,
		StudentID:   studentID,
		Content:     content,
		Status:      submission.StatusSubmitted,
		SubmittedAt: now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return sub
}

// GradeSubmission attaches an assessment to the submission and flips its
// status, bypassing the grading model.
func GradeSubmission(
	t *testing.T,
	repo submission.Repository,
	sub submission.Submission,
	score int,
	skillScores []submission.SkillAssessment,
	gradedAt ...time.Time,
) submission.Submission {
	t.Helper()

	ctx := context.Background()
	tstamp := time.Now().UTC()
	if len(gradedAt) > 0 {
		tstamp = gradedAt[0].UTC()
	}

	a, err := repo.CreateAssessment(ctx, submission.Assessment{
		SubmissionID: sub.ID,
		Score:        score,
		Feedback:     "Good effort overall.",
		Model:        "mock",
		CreatedAt:    tstamp,
		Skills:       skillScores,
	})
	if err != nil {
		t.Fatalf("GradeSubmission() failed: %v", err)
	}

	sub.Status = submission.StatusGraded
	sub.UpdatedAt = tstamp
	sub, err = repo.UpdateSubmission(ctx, sub)
	if err != nil {
		t.Fatalf("GradeSubmission() failed: %v", err)
	}
	sub.Assessment = &a
	return sub
}
