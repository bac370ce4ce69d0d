package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusphere/backend/core/course"
	"github.com/edusphere/backend/core/user"
)

type courseApi struct {
	svc     *course.Service
	userSvc *user.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *course.Service, userSvc *user.Service) {
	api := courseApi{svc: svc, userSvc: userSvc}

	cg := g.Group("/courses")
	cg.GET("", api.list)
	cg.GET("/:id", api.retrieve)
	cg.POST("", api.create, jwt)
	cg.PUT("/:id", api.update, jwt)
	cg.DELETE("/:id", api.destroy, jwt)

	lg := g.Group("/lessons")
	lg.GET("", api.listLessons)
	lg.POST("", api.createLesson, jwt)
	lg.PUT("/:id", api.updateLesson, jwt)
	lg.DELETE("/:id", api.destroyLesson, jwt)

	rg := g.Group("/resources")
	rg.GET("", api.listResources)
	rg.POST("", api.createResource, jwt)
	rg.PUT("/:id", api.updateResource, jwt)
	rg.DELETE("/:id", api.destroyResource, jwt)

	sg := g.Group("/class-schedules")
	sg.GET("", api.listSchedules)
	sg.GET("/:id", api.retrieveSchedule)
	sg.POST("", api.createSchedule, jwt)
	sg.PUT("/:id", api.updateSchedule, jwt)
	sg.DELETE("/:id", api.destroySchedule, jwt)
}

// Courses

func (api *courseApi) list(ctx echo.Context) error {
	var flt course.CourseFilter
	if err := ctx.Bind(&flt); err != nil {
		flt = course.CourseFilter{}
	}

	page, err := api.svc.ListCourses(ctx.Request().Context(), flt)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	crs, err := api.svc.GetCourse(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) create(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}

	crs, err := api.svc.CreateCourse(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data course.CourseUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CourseUpdate")
	}

	crs, err := api.svc.UpdateCourse(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteCourse(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Lessons

func (api *courseApi) listLessons(ctx echo.Context) error {
	lessons, err := api.svc.ListLessons(ctx.Request().Context(), optIntQuery(ctx, "course_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *courseApi) createLesson(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	var data course.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}

	lsn, err := api.svc.CreateLesson(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, lsn)
}

func (api *courseApi) updateLesson(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data course.LessonUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LessonUpdate")
	}

	lsn, err := api.svc.UpdateLesson(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *courseApi) destroyLesson(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteLesson(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Resources

func (api *courseApi) listResources(ctx echo.Context) error {
	resources, err := api.svc.ListResources(ctx.Request().Context(), optIntQuery(ctx, "course_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, resources)
}

func (api *courseApi) createResource(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	var data course.NewResource
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResource")
	}

	res, err := api.svc.CreateResource(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *courseApi) updateResource(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data course.ResourceUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResourceUpdate")
	}

	res, err := api.svc.UpdateResource(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *courseApi) destroyResource(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteResource(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Class schedules

func (api *courseApi) listSchedules(ctx echo.Context) error {
	schedules, err := api.svc.ListSchedules(ctx.Request().Context(), optIntQuery(ctx, "course_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, schedules)
}

func (api *courseApi) retrieveSchedule(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	sch, err := api.svc.GetSchedule(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *courseApi) createSchedule(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	var data course.NewSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}

	sch, err := api.svc.CreateSchedule(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *courseApi) updateSchedule(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data course.ScheduleUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScheduleUpdate")
	}

	sch, err := api.svc.UpdateSchedule(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *courseApi) destroySchedule(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteSchedule(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
