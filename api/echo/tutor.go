package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusphere/backend/core/chat"
	"github.com/edusphere/backend/core/user"
	aisvc "github.com/edusphere/backend/services/ai"
	codesvc "github.com/edusphere/backend/services/coderun"
)

type tutorApi struct {
	chatSvc *chat.Service
	tutor   aisvc.Service
	codeRun codesvc.Service
	userSvc *user.Service
}

func registerTutorAPI(
	g *echo.Group,
	jwt, tutorLimit echo.MiddlewareFunc,
	chatSvc *chat.Service,
	tutor aisvc.Service,
	codeRun codesvc.Service,
	userSvc *user.Service,
) {
	api := tutorApi{chatSvc: chatSvc, tutor: tutor, codeRun: codeRun, userSvc: userSvc}

	g.POST("/ai-tutor/ask", api.ask, tutorLimit)

	cg := g.Group("/ai-tutor-chats", jwt)
	cg.POST("", api.createChat)
	cg.GET("", api.listChats)
	cg.GET("/:id", api.retrieveChat)
	cg.PUT("/:id", api.updateChat)
	cg.DELETE("/:id", api.destroyChat)

	g.POST("/code-execution/run", api.runCode)
}

// AI tutor

func (api *tutorApi) ask(ctx echo.Context) error {
	var data aisvc.Ask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Ask")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	answer, err := api.tutor.Ask(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, AskResponse{Response: answer})
}

// Chat history

func (api *tutorApi) createChat(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	var data chat.NewChat
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChat")
	}

	tc, err := api.chatSvc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, tc)
}

func (api *tutorApi) listChats(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	chats, err := api.chatSvc.List(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, chats)
}

func (api *tutorApi) retrieveChat(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	tc, err := api.chatSvc.Get(ctx.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tc)
}

func (api *tutorApi) updateChat(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data chat.ChatUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatUpdate")
	}

	tc, err := api.chatSvc.Update(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tc)
}

func (api *tutorApi) destroyChat(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.chatSvc.Delete(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Code execution

func (api *tutorApi) runCode(ctx echo.Context) error {
	var data codesvc.RunRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RunRequest")
	}

	result, err := api.codeRun.Run(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, result)
}

type AskResponse struct {
	Response string `json:"response"`
}
