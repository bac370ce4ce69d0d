package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusphere/backend/core/assess"
	"github.com/edusphere/backend/core/user"
)

type assessApi struct {
	svc     *assess.Service
	userSvc *user.Service
}

func registerAssessAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *assess.Service, userSvc *user.Service) {
	api := assessApi{svc: svc, userSvc: userSvc}

	ag := g.Group("/assignments")
	ag.GET("", api.listAssignments)
	ag.POST("", api.createAssignment, jwt)
	ag.PUT("/:id", api.updateAssignment, jwt)
	ag.DELETE("/:id", api.destroyAssignment, jwt)
	ag.POST("/:id/submissions", api.submit, jwt)
	ag.GET("/:id/submissions", api.listSubmissions, jwt)

	sg := g.Group("/submissions", jwt)
	sg.GET("", api.listAllSubmissions)
	sg.PUT("/:id/review", api.review)

	qg := g.Group("/quizzes")
	qg.GET("", api.listQuizzes)
	qg.POST("", api.createQuiz, jwt)
	qg.DELETE("/:id", api.destroyQuiz, jwt)
	qg.GET("/:id/questions", api.listQuestions)
	qg.POST("/:id/questions", api.addQuestion, jwt)
	qg.POST("/:id/submissions", api.submitQuiz, jwt)
	qg.GET("/:id/submissions", api.listQuizSubmissions, jwt)

	g.DELETE("/questions/:id", api.destroyQuestion, jwt)
}

// Assignments

func (api *assessApi) listAssignments(ctx echo.Context) error {
	assignments, err := api.svc.ListAssignments(ctx.Request().Context(), optIntQuery(ctx, "course_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *assessApi) createAssignment(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	var data assess.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}

	asg, err := api.svc.CreateAssignment(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assessApi) updateAssignment(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data assess.AssignmentUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignmentUpdate")
	}

	asg, err := api.svc.UpdateAssignment(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assessApi) destroyAssignment(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteAssignment(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Submissions

func (api *assessApi) submit(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data assess.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assessApi) listSubmissions(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	subs, err := api.svc.ListSubmissions(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *assessApi) listAllSubmissions(ctx echo.Context) error {
	subs, err := api.svc.ListAllSubmissions(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *assessApi) review(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data assess.SubmissionReview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmissionReview")
	}

	sub, err := api.svc.Review(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

// Quizzes

func (api *assessApi) listQuizzes(ctx echo.Context) error {
	quizzes, err := api.svc.ListQuizzes(ctx.Request().Context(), optIntQuery(ctx, "course_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *assessApi) createQuiz(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	var data assess.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}

	qz, err := api.svc.CreateQuiz(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, qz)
}

func (api *assessApi) destroyQuiz(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteQuiz(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Quiz questions

func (api *assessApi) listQuestions(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	questions, err := api.svc.ListQuestions(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *assessApi) addQuestion(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data assess.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}

	q, err := api.svc.AddQuestion(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *assessApi) destroyQuestion(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteQuestion(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Quiz submissions

func (api *assessApi) submitQuiz(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data assess.NewQuizSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuizSubmission")
	}

	sub, err := api.svc.SubmitQuiz(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assessApi) listQuizSubmissions(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	subs, err := api.svc.ListQuizSubmissions(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subs)
}
