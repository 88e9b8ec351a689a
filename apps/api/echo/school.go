package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/stadi/core/school"
	"github.com/trezcool/stadi/core/user"
)

var errSchNotFoundInCtx = errors.New("school object not found in echo.Context")

type schoolApi struct {
	svc    school.Service
	usrSvc user.Service
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc school.Service, usrSvc user.Service) {
	api := schoolApi{svc: svc, usrSvc: usrSvc}

	sg := g.Group("/schools", jwt)
	sg.POST("", api.create, adminMiddleware(user.RoleAdminOwner))
	sg.GET("", api.query, adminMiddleware())
	sg.DELETE("", api.destroyMultiple, adminMiddleware(user.RoleAdminOwner))

	// detail endpoints; any member of the school or an admin may look
	dg := sg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware(user.RoleAdminOwner))
}

// objectMiddleware loads the requested school and checks the caller can see it:
// admins see all schools, everyone else only their own.
func (api *schoolApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ctxUsr, err := getContextUser(ctx, api.usrSvc)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}

		if ctxUsr.IsAdmin() || ctxUsr.InSchool(ctx.Param("id")) {
			if sch, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
				ctx.Set("object", sch)
				return next(ctx)
			} else if errors.Cause(err) != school.ErrNotFound {
				return errors.Wrap(err, "finding school by ID")
			}
		}
		return errHttpNotFound
	}
}

// Handlers

func (api *schoolApi) create(ctx echo.Context) error {
	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}

	sch, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *schoolApi) query(ctx echo.Context) error {
	filter := new(school.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.School{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	schools, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	if schools == nil {
		schools = []school.School{}
	}
	return ctx.JSON(http.StatusOK, schools)
}

func (api *schoolApi) retrieve(ctx echo.Context) error {
	sch, ok := ctx.Get("object").(school.School)
	if !ok {
		return errors.Wrap(errSchNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) update(ctx echo.Context) error {
	sch, ok := ctx.Get("object").(school.School)
	if !ok {
		return errors.Wrap(errSchNotFoundInCtx, "retrieving object from context")
	}

	var data school.UpdateSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err := data.Validate(ctx.Request().Context(), sch, api.svc); err != nil {
		return err
	}

	sch, err := api.svc.Update(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) destroy(ctx echo.Context) error {
	sch, ok := ctx.Get("object").(school.School)
	if !ok {
		return errors.Wrap(errSchNotFoundInCtx, "retrieving object from context")
	}

	if err := api.svc.Delete(ctx.Request().Context(), sch.ID); err != nil {
		return errors.Wrap(err, "deleting school")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting schools")
	}
	return ctx.NoContent(http.StatusNoContent)
}
