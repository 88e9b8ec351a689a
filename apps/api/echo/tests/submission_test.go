package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/trezcool/stadi/core"
	"github.com/trezcool/stadi/core/submission"
	"github.com/trezcool/stadi/core/user"
	emailsvc "github.com/trezcool/stadi/services/email"
	testutil "github.com/trezcool/stadi/tests"
)

func Test_submissionApi_submissionQueryAndDetail(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schRepo, "Lycee Mobokoli", "Kinshasa")
	otherSch := testutil.CreateSchool(t, schRepo, "Institut Lumiere", "Goma")
	collab := testutil.CreateSkill(t, sklRepo, "Collaboration", "")

	teacher := testutil.CreateSchoolUser(t, usrRepo, sch.ID, "Teacher", "teach01", "teacher@test.cd", "", []string{user.RoleTeacher})
	otherTeacher := testutil.CreateSchoolUser(t, usrRepo, otherSch.ID, "Other T", "teach02", "other@test.cd", "", []string{user.RoleTeacher})
	student := testutil.CreateSchoolUser(t, usrRepo, sch.ID, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent})
	mate := testutil.CreateSchoolUser(t, usrRepo, sch.ID, "Mate", "mate01", "mate@test.cd", "", []string{user.RoleStudent})
	glodi := testutil.CreateSchoolUser(t, usrRepo, sch.ID, "Glodi", "glodi1", "glodi@test.cd", "", []string{user.RoleStudent})
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	tsk := testutil.CreateTask(t, tskRepo, sch.ID, teacher.ID, "Poster", "Make a poster.", []string{collab.ID})
	sub := testutil.CreateSubmission(t, subRepo, tsk.ID, student.ID, "Draft one.")
	mateSub := testutil.CreateSubmission(t, subRepo, tsk.ID, mate.ID, "Draft two.")
	gradedSub := testutil.CreateSubmission(t, subRepo, tsk.ID, glodi.ID, "Draft three.")
	gradedSub = testutil.GradeSubmission(t, subRepo, gradedSub, 90, []submission.SkillAssessment{{SkillID: collab.ID, SkillName: collab.Name, Score: 90}})

	teacherToken := getToken(t, teacher)
	otherTeacherToken := getToken(t, otherTeacher)
	studentToken := getToken(t, student)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/v1/submissions", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin sees all", method: http.MethodGet, path: "/v1/submissions", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, sub, mateSub, gradedSub),
		},
		{
			name: "Teacher sees own tasks' submissions", method: http.MethodGet, path: "/v1/submissions", token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, sub, mateSub, gradedSub),
		},
		{
			name: "Student sees own", method: http.MethodGet, path: "/v1/submissions", token: studentToken,
			wantCode: http.StatusOK, wantData: marchallList(t, sub),
		},
		{
			name: "Owner retrieves", method: http.MethodGet, path: "/v1/submissions/" + sub.ID, token: studentToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, sub),
		},
		{
			name: "Task teacher retrieves", method: http.MethodGet, path: "/v1/submissions/" + sub.ID, token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, sub),
		},
		{
			name: "Other teacher cannot see", method: http.MethodGet, path: "/v1/submissions/" + sub.ID, token: otherTeacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "Classmate cannot see", method: http.MethodGet, path: "/v1/submissions/" + sub.ID, token: getToken(t, mate),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "Update: owner only", method: http.MethodPut, path: "/v1/submissions/" + sub.ID, token: teacherToken,
			body:     marchallObj(t, submission.UpdateSubmission{Content: "Edited by teacher."}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Updated", method: http.MethodPut, path: "/v1/submissions/" + sub.ID, token: studentToken,
			body:     marchallObj(t, submission.UpdateSubmission{Content: "Final draft."}),
			wantCode: http.StatusOK,
		},
		{
			name: "Graded submission frozen", method: http.MethodPut, path: "/v1/submissions/" + gradedSub.ID, token: getToken(t, glodi),
			body:     marchallObj(t, submission.UpdateSubmission{Content: "too late"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "a graded submission can no longer be edited"}),
		},
		{
			name: "Destroyed by owner", method: http.MethodDelete, path: "/v1/submissions/" + mateSub.ID, token: getToken(t, mate),
			wantCode: http.StatusNoContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusNoContent || (tt.wantCode == http.StatusOK && tt.method == http.MethodPut) {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	updated, err := subRepo.GetSubmissionByID(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("GetSubmissionByID() failed! err %v", err)
	}
	if updated.Content != "Final draft." {
		t.Errorf("failed! content = %q; want %q", updated.Content, "Final draft.")
	}
}

func Test_submissionApi_submissionGrade(t *testing.T) {
	app := setup(t)
	emailsvc.SentMessages = emailsvc.SentMessages[:0]

	sch := testutil.CreateSchool(t, schRepo, "Lycee Mobokoli", "Kinshasa")
	collab := testutil.CreateSkill(t, sklRepo, "Collaboration", "")
	comm := testutil.CreateSkill(t, sklRepo, "Communication", "")

	teacher := testutil.CreateSchoolUser(t, usrRepo, sch.ID, "Teacher", "teach01", "teacher@test.cd", "", []string{user.RoleTeacher})
	student := testutil.CreateSchoolUser(t, usrRepo, sch.ID, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent})
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	tsk := testutil.CreateTask(t, tskRepo, sch.ID, teacher.ID, "Poster", "Make a poster.", []string{collab.ID, comm.ID})
	sub := testutil.CreateSubmission(t, subRepo, tsk.ID, student.ID, "Our poster compares solar and wind power.")

	grader.Result = core.GradeResult{
		Score:    85,
		Feedback: "Solid work.",
		Model:    "mock",
		Skills: []core.SkillGrade{
			{Name: "Collaboration", Score: 90, Comment: "Great teamwork."},
			{Name: "Communication", Score: 80, Comment: "Clear layout."},
			{Name: "Resilience", Score: 50, Comment: "Not targeted."}, // off-target, dropped
		},
	}

	gradePath := "/v1/submissions/" + sub.ID + "/grade"

	t.Run("Teacher required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, gradePath, getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("Graded", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, gradePath, getToken(t, teacher))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var respData submission.Submission
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !respData.IsGraded() {
			t.Errorf("failed! status = %q; want %q", respData.Status, submission.StatusGraded)
		}
		if respData.Assessment == nil {
			t.Fatal("failed! assessment missing")
		}
		if respData.Assessment.Score != 85 {
			t.Errorf("failed! score = %d; want 85", respData.Assessment.Score)
		}
		if len(respData.Assessment.Skills) != 2 {
			t.Errorf("failed! skills = %d; want 2", len(respData.Assessment.Skills))
		}

		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
		}
		msg := emailsvc.SentMessages[0]
		if !strings.Contains(msg.Subject, tsk.Title) {
			t.Errorf("subject %q does not mention the task", msg.Subject)
		}
		if to := msg.To[0].Address; to != student.Email {
			t.Errorf("recipient = %q; want %q", to, student.Email)
		}
	})

	t.Run("Regrade replaces assessment", func(t *testing.T) {
		grader.Result.Score = 95
		req, rec := newAuthRequest(http.MethodPost, gradePath, getToken(t, admin))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var respData submission.Submission
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if respData.Assessment == nil || respData.Assessment.Score != 95 {
			t.Errorf("failed! assessment = %+v; want score 95", respData.Assessment)
		}
	})

	t.Run("Unusable model response", func(t *testing.T) {
		grader.Err = core.ErrUngradable
		defer func() { grader.Err = nil }()

		req, rec := newAuthRequest(http.MethodPost, gradePath, getToken(t, teacher))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadGateway,
			wantData: marchallObj(t, httpErr{Error: "the grading model returned an unusable response"}),
		}, rec)
	})
}

func Test_submissionApi_studentPerformance(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schRepo, "Lycee Mobokoli", "Kinshasa")
	otherSch := testutil.CreateSchool(t, schRepo, "Institut Lumiere", "Goma")
	collab := testutil.CreateSkill(t, sklRepo, "Collaboration", "")
	comm := testutil.CreateSkill(t, sklRepo, "Communication", "")
	think := testutil.CreateSkill(t, sklRepo, "Critical Thinking", "")

	teacher := testutil.CreateSchoolUser(t, usrRepo, sch.ID, "Teacher", "teach01", "teacher@test.cd", "", []string{user.RoleTeacher})
	otherTeacher := testutil.CreateSchoolUser(t, usrRepo, otherSch.ID, "Other T", "teach02", "other@test.cd", "", []string{user.RoleTeacher})
	student := testutil.CreateSchoolUser(t, usrRepo, sch.ID, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent})
	mate := testutil.CreateSchoolUser(t, usrRepo, sch.ID, "Mate", "mate01", "mate@test.cd", "", []string{user.RoleStudent})
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	skillIDs := []string{collab.ID, comm.ID, think.ID}
	tsk1 := testutil.CreateTask(t, tskRepo, sch.ID, teacher.ID, "Poster", "Make a poster.", skillIDs)
	tsk2 := testutil.CreateTask(t, tskRepo, sch.ID, teacher.ID, "Debate", "Prepare a debate.", skillIDs)

	t1 := time.Now().UTC().Add(-48 * time.Hour)
	t2 := t1.Add(24 * time.Hour)

	sub1 := testutil.CreateSubmission(t, subRepo, tsk1.ID, student.ID, "First piece.")
	sub1 = testutil.GradeSubmission(t, subRepo, sub1, 75, []submission.SkillAssessment{
		{SkillID: collab.ID, SkillName: collab.Name, Score: 70},
		{SkillID: comm.ID, SkillName: comm.Name, Score: 80},
		{SkillID: think.ID, SkillName: think.Name, Score: 75},
	}, t1)
	sub2 := testutil.CreateSubmission(t, subRepo, tsk2.ID, student.ID, "Second piece.")
	sub2 = testutil.GradeSubmission(t, subRepo, sub2, 70, []submission.SkillAssessment{
		{SkillID: collab.ID, SkillName: collab.Name, Score: 90},
		{SkillID: comm.ID, SkillName: comm.Name, Score: 50},
	}, t2)

	wantReport := submission.PerformanceReport{
		Skills: []submission.SkillPerformance{
			{Skill: "Collaboration", Count: 2, Average: 80, Trend: submission.TrendImproving},
			{Skill: "Communication", Count: 2, Average: 65, Trend: submission.TrendDeclining},
			{Skill: "Critical Thinking", Count: 1, Average: 75, Trend: submission.TrendSteady},
		},
		OverallAverage: 73.33,
		Strengths:      []string{"Collaboration"},
		Weaknesses:     []string{"Communication"},
	}
	emptyReport := submission.PerformanceReport{
		Skills:     []submission.SkillPerformance{},
		Strengths:  []string{},
		Weaknesses: []string{},
	}

	path := "/v1/students/" + student.ID + "/performance"

	tests := []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Student sees own report", path: path, token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallObj(t, wantReport)},
		{name: "Same-school teacher sees report", path: path, token: getToken(t, teacher), wantCode: http.StatusOK, wantData: marchallObj(t, wantReport)},
		{name: "Admin sees report", path: path, token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, wantReport)},
		{
			name: "Other-school teacher", path: path, token: getToken(t, otherTeacher),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "Classmate", path: path, token: getToken(t, mate),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "Unknown student", path: "/v1/students/lol/performance", token: getToken(t, teacher),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "No grades yet", path: "/v1/students/" + mate.ID + "/performance", token: getToken(t, mate),
			wantCode: http.StatusOK, wantData: marchallObj(t, emptyReport),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
