package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusphere/backend/core/enroll"
	"github.com/edusphere/backend/core/user"
)

type enrollApi struct {
	svc     *enroll.Service
	userSvc *user.Service
}

func registerEnrollAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *enroll.Service, userSvc *user.Service) {
	api := enrollApi{svc: svc, userSvc: userSvc}

	eg := g.Group("/enrollments", jwt)
	eg.POST("", api.enroll)
	eg.GET("/me", api.mine)
	eg.GET("", api.list)
	eg.DELETE("/:id", api.withdraw)

	ag := g.Group("/attendance", jwt)
	ag.POST("", api.mark)
	ag.GET("", api.listAttendance)
	ag.PUT("/:id", api.updateAttendance)
	ag.DELETE("/:id", api.destroyAttendance)

	cg := g.Group("/certificates")
	cg.GET("/verify/:serial", api.verify) // public lookup
	cg.POST("", api.issue, jwt)
	cg.GET("", api.listCertificates, jwt)

	ng := g.Group("/nonformal", jwt)
	ng.GET("/enrollments", api.nonFormalEnrollments)
	ng.GET("/progress", api.nonFormalProgress)
	ng.GET("/certificates", api.nonFormalCertificates)
}

// Enrollments

func (api *enrollApi) enroll(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	var data enroll.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollApi) mine(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	enrollments, err := api.svc.MyEnrollments(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *enrollApi) list(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	enrollments, err := api.svc.ListEnrollments(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *enrollApi) withdraw(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Withdraw(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Attendance

func (api *enrollApi) mark(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	var data enroll.AttendanceMark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AttendanceMark")
	}

	att, err := api.svc.Mark(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *enrollApi) listAttendance(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	flt := enroll.AttendanceFilter{
		ScheduleID: optIntQuery(ctx, "schedule_id"),
		StudentID:  optIntQuery(ctx, "student_id"),
	}
	records, err := api.svc.ListAttendance(ctx.Request().Context(), actor, flt)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *enrollApi) updateAttendance(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data struct {
		Status string `json:"status"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding attendance status")
	}

	att, err := api.svc.UpdateAttendance(ctx.Request().Context(), actor, id, data.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *enrollApi) destroyAttendance(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteAttendance(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Certificates

func (api *enrollApi) issue(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	var data enroll.NewCertificate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCertificate")
	}

	cert, err := api.svc.Issue(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cert)
}

func (api *enrollApi) listCertificates(ctx echo.Context) error {
	flt := enroll.CertificateFilter{
		StudentID: optIntQuery(ctx, "student_id"),
		CourseID:  optIntQuery(ctx, "course_id"),
	}
	certs, err := api.svc.ListCertificates(ctx.Request().Context(), flt)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, certs)
}

func (api *enrollApi) verify(ctx echo.Context) error {
	cert, err := api.svc.Verify(ctx.Request().Context(), ctx.Param("serial"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cert)
}

// Non-formal surface

func (api *enrollApi) nonFormalEnrollments(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	enrollments, err := api.svc.MyNonFormalEnrollments(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *enrollApi) nonFormalProgress(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	progress, err := api.svc.MyNonFormalProgress(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, progress)
}

func (api *enrollApi) nonFormalCertificates(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	certs, err := api.svc.MyNonFormalCertificates(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, certs)
}
