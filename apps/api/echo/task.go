package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/stadi/core"
	"github.com/trezcool/stadi/core/submission"
	"github.com/trezcool/stadi/core/task"
	"github.com/trezcool/stadi/core/user"
)

var (
	errTskNotFoundInCtx = errors.New("task object not found in echo.Context")
	errNoSchool         = errors.New("a school membership is required to create tasks")
)

type taskApi struct {
	svc    task.Service
	subSvc submission.Service
	usrSvc user.Service
}

func registerTaskAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc task.Service, subSvc submission.Service, usrSvc user.Service) {
	api := taskApi{svc: svc, subSvc: subSvc, usrSvc: usrSvc}

	tg := g.Group("/tasks", jwt)
	tg.POST("", api.create, teacherMiddleware())
	tg.GET("", api.query)
	tg.DELETE("", api.destroyMultiple, adminMiddleware())

	// detail endpoints; visible to the task's school and admins
	dg := tg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)

	// a task's submissions
	dg.POST("/submissions", api.submit, studentMiddleware())
	dg.GET("/submissions", api.querySubmissions)
}

// objectMiddleware loads the requested task and checks the caller can see it:
// admins see all tasks, everyone else only their school's.
func (api *taskApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ctxUsr, err := getContextUser(ctx, api.usrSvc)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}

		tsk, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == task.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding task by ID")
		}
		if !(ctxUsr.IsAdmin() || ctxUsr.InSchool(tsk.SchoolID)) {
			return errHttpNotFound
		}
		ctx.Set("object", tsk)
		return next(ctx)
	}
}

// canEdit reports whether the user may modify the task: its teacher or an admin.
func (api *taskApi) canEdit(usr user.User, tsk task.Task) bool {
	return usr.IsAdmin() || tsk.TeacherID == usr.ID
}

// Handlers

func (api *taskApi) create(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.SchoolID.Valid {
		return core.NewValidationError(errNoSchool)
	}

	tsk, err := api.svc.Create(ctx.Request().Context(), ctxUsr.SchoolID.String, ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, tsk)
}

func (api *taskApi) query(ctx echo.Context) error {
	filter := new(task.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []task.Task{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	// non-admins only see their own school's tasks
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() {
		if !ctxUsr.SchoolID.Valid {
			return ctx.JSON(http.StatusOK, []task.Task{})
		}
		filter.SchoolID = ctxUsr.SchoolID.String
	}

	tasks, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	tsk, ok := ctx.Get("object").(task.Task)
	if !ok {
		return errors.Wrap(errTskNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, tsk)
}

func (api *taskApi) update(ctx echo.Context) error {
	tsk, ok := ctx.Get("object").(task.Task)
	if !ok {
		return errors.Wrap(errTskNotFoundInCtx, "retrieving object from context")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !api.canEdit(ctxUsr, tsk) {
		return errHttpForbidden
	}

	var data task.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err := data.Validate(tsk); err != nil {
		return err
	}

	tsk, err = api.svc.Update(ctx.Request().Context(), tsk, data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, tsk)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	tsk, ok := ctx.Get("object").(task.Task)
	if !ok {
		return errors.Wrap(errTskNotFoundInCtx, "retrieving object from context")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !api.canEdit(ctxUsr, tsk) {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), tsk.ID); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *taskApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting tasks")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// submit creates the calling student's submission for the task.
func (api *taskApi) submit(ctx echo.Context) error {
	tsk, ok := ctx.Get("object").(task.Task)
	if !ok {
		return errors.Wrap(errTskNotFoundInCtx, "retrieving object from context")
	}

	var data submission.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.subSvc.Create(ctx.Request().Context(), tsk.ID, ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating submission")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

// querySubmissions lists the task's submissions for its teacher or an admin;
// a student only sees their own.
func (api *taskApi) querySubmissions(ctx echo.Context) error {
	tsk, ok := ctx.Get("object").(task.Task)
	if !ok {
		return errors.Wrap(errTskNotFoundInCtx, "retrieving object from context")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := &submission.QueryFilter{TaskID: tsk.ID}
	if ctxUsr.IsStudent() {
		filter.StudentID = ctxUsr.ID
	} else if !api.canEdit(ctxUsr, tsk) {
		return errHttpForbidden
	}

	subs, err := api.subSvc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}
