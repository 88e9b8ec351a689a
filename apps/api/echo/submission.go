package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/stadi/core/skill"
	"github.com/trezcool/stadi/core/submission"
	"github.com/trezcool/stadi/core/task"
	"github.com/trezcool/stadi/core/user"
)

var errSubNotFoundInCtx = errors.New("submission object not found in echo.Context")

type submissionApi struct {
	svc      submission.Service
	taskSvc  task.Service
	skillSvc skill.Service
	usrSvc   user.Service
}

func registerSubmissionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc submission.Service,
	taskSvc task.Service,
	skillSvc skill.Service,
	usrSvc user.Service,
) {
	api := submissionApi{svc: svc, taskSvc: taskSvc, skillSvc: skillSvc, usrSvc: usrSvc}

	sg := g.Group("/submissions", jwt)
	sg.GET("", api.query)
	sg.DELETE("", api.destroyMultiple, adminMiddleware())

	dg := sg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/grade", api.grade, teacherMiddleware())

	// per-student aggregated view over all graded submissions
	g.GET("/students/:id/performance", api.performance, jwt)
}

// objectMiddleware loads the requested submission and checks the caller can
// see it: the submitting student, the task's teacher or an admin.
func (api *submissionApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ctxUsr, err := getContextUser(ctx, api.usrSvc)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}

		sub, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == submission.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding submission by ID")
		}

		if !(ctxUsr.IsAdmin() || sub.StudentID == ctxUsr.ID) {
			tsk, err := api.taskSvc.GetByID(ctx.Request().Context(), sub.TaskID)
			if err != nil {
				return errors.Wrap(err, "finding submission's task")
			}
			if tsk.TeacherID != ctxUsr.ID {
				return errHttpNotFound
			}
			ctx.Set("task", tsk)
		}
		ctx.Set("object", sub)
		return next(ctx)
	}
}

// contextTask returns the submission's task, loading it if the object
// middleware did not already.
func (api *submissionApi) contextTask(ctx echo.Context, sub submission.Submission) (task.Task, error) {
	if tsk, ok := ctx.Get("task").(task.Task); ok {
		return tsk, nil
	}
	return api.taskSvc.GetByID(ctx.Request().Context(), sub.TaskID)
}

// Handlers

func (api *submissionApi) query(ctx echo.Context) error {
	filter := new(submission.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []submission.Submission{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	// students only see their own work; teachers only their tasks'
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	switch {
	case ctxUsr.IsAdmin():
	case ctxUsr.IsTeacher():
		filter.TeacherID = ctxUsr.ID
	default:
		filter.StudentID = ctxUsr.ID
	}

	subs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *submissionApi) retrieve(ctx echo.Context) error {
	sub, ok := ctx.Get("object").(submission.Submission)
	if !ok {
		return errors.Wrap(errSubNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) update(ctx echo.Context) error {
	sub, ok := ctx.Get("object").(submission.Submission)
	if !ok {
		return errors.Wrap(errSubNotFoundInCtx, "retrieving object from context")
	}

	// only the submitting student may rework their submission
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if sub.StudentID != ctxUsr.ID {
		return errHttpForbidden
	}

	var data submission.UpdateSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubmission")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sub, err = api.svc.Update(ctx.Request().Context(), sub, data)
	if err != nil {
		return errors.Wrap(err, "updating submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) destroy(ctx echo.Context) error {
	sub, ok := ctx.Get("object").(submission.Submission)
	if !ok {
		return errors.Wrap(errSubNotFoundInCtx, "retrieving object from context")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !(ctxUsr.IsAdmin() || sub.StudentID == ctxUsr.ID) {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), sub.ID); err != nil {
		return errors.Wrap(err, "deleting submission")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *submissionApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting submissions")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// grade runs the submission through the grading model and stores the outcome.
// Only the task's teacher or an admin may grade; regrading replaces the
// previous assessment.
func (api *submissionApi) grade(ctx echo.Context) error {
	sub, ok := ctx.Get("object").(submission.Submission)
	if !ok {
		return errors.Wrap(errSubNotFoundInCtx, "retrieving object from context")
	}
	reqCtx := ctx.Request().Context()

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	tsk, err := api.contextTask(ctx, sub)
	if err != nil {
		return errors.Wrap(err, "finding submission's task")
	}
	if !(ctxUsr.IsAdmin() || tsk.TeacherID == ctxUsr.ID) {
		return errHttpForbidden
	}

	skills, err := api.skillSvc.GetByIDs(reqCtx, tsk.SkillIDs...)
	if err != nil {
		return errors.Wrap(err, "finding task skills")
	}
	student, err := api.usrSvc.GetByID(reqCtx, sub.StudentID)
	if err != nil {
		return errors.Wrap(err, "finding submitting student")
	}

	sub, err = api.svc.Grade(reqCtx, sub, tsk, skills, student)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

// performance returns a student's per-skill averages, strengths, weaknesses
// and trends. Students may only view their own; teachers only their school's.
func (api *submissionApi) performance(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	studentID := ctx.Param("id")
	if !ctxUsr.IsAdmin() && ctxUsr.ID != studentID {
		if !ctxUsr.IsTeacher() {
			return errHttpNotFound
		}
		student, err := api.usrSvc.GetByID(ctx.Request().Context(), studentID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding student")
		}
		if !(student.SchoolID.Valid && ctxUsr.InSchool(student.SchoolID.String)) {
			return errHttpNotFound
		}
	}

	report, err := api.svc.Performance(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "computing performance")
	}
	return ctx.JSON(http.StatusOK, report)
}
