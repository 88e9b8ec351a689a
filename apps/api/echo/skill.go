package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/stadi/core/skill"
)

type skillApi struct {
	svc skill.Service
}

func registerSkillAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc skill.Service) {
	api := skillApi{svc: svc}

	sg := g.Group("/skills", jwt)

	// the catalog is readable by anyone signed in; only admins curate it
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.POST("", api.create, adminMiddleware())
	sg.PUT("/:id", api.update, adminMiddleware())
	sg.DELETE("/:id", api.destroy, adminMiddleware())
	sg.DELETE("", api.destroyMultiple, adminMiddleware())
}

// Handlers

func (api *skillApi) create(ctx echo.Context) error {
	var data skill.NewSkill
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSkill")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}

	sk, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating skill")
	}
	return ctx.JSON(http.StatusCreated, sk)
}

func (api *skillApi) query(ctx echo.Context) error {
	filter := new(skill.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []skill.Skill{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	skills, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying skills")
	}
	if skills == nil {
		skills = []skill.Skill{}
	}
	return ctx.JSON(http.StatusOK, skills)
}

func (api *skillApi) retrieve(ctx echo.Context) error {
	sk, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == skill.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding skill by ID")
	}
	return ctx.JSON(http.StatusOK, sk)
}

func (api *skillApi) update(ctx echo.Context) error {
	sk, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == skill.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding skill by ID")
	}

	var data skill.UpdateSkill
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSkill")
	}
	if err := data.Validate(ctx.Request().Context(), sk, api.svc); err != nil {
		return err
	}

	sk, err = api.svc.Update(ctx.Request().Context(), sk.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating skill")
	}
	return ctx.JSON(http.StatusOK, sk)
}

func (api *skillApi) destroy(ctx echo.Context) error {
	sk, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == skill.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding skill by ID")
	}

	if err := api.svc.Delete(ctx.Request().Context(), sk.ID); err != nil {
		return errors.Wrap(err, "deleting skill")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *skillApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting skills")
	}
	return ctx.NoContent(http.StatusNoContent)
}
