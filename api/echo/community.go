package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusphere/backend/core/community"
	"github.com/edusphere/backend/core/user"
)

type communityApi struct {
	svc     *community.Service
	userSvc *user.Service
}

func registerCommunityAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *community.Service, userSvc *user.Service) {
	api := communityApi{svc: svc, userSvc: userSvc}

	pg := g.Group("/informal-posts")
	pg.GET("", api.listPosts)
	pg.GET("/:id", api.retrievePost)
	pg.POST("", api.createPost, jwt)
	pg.DELETE("/:id", api.destroyPost, jwt)
	pg.POST("/:id/like", api.toggleLike, jwt)
	pg.POST("/:id/save", api.toggleSave, jwt)
	pg.POST("/:id/comment", api.addComment, jwt)
	pg.DELETE("/:id/comment/:commentID", api.destroyComment, jwt)

	tg := g.Group("/topics")
	tg.GET("", api.listTopics)
	tg.GET("/followed", api.followedTopics, jwt)
	tg.POST("/:id/follow", api.follow, jwt)
	tg.POST("/:id/unfollow", api.unfollow, jwt)

	cg := g.Group("/contact-messages")
	cg.POST("", api.submitContact)
	cg.GET("", api.listContacts)
}

// Posts

func (api *communityApi) listPosts(ctx echo.Context) error {
	var flt community.PostFilter
	if err := ctx.Bind(&flt); err != nil {
		flt = community.PostFilter{}
	}

	page, err := api.svc.ListPosts(ctx.Request().Context(), flt)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *communityApi) retrievePost(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	post, err := api.svc.GetPost(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *communityApi) createPost(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	var data community.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}

	post, err := api.svc.CreatePost(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, post)
}

func (api *communityApi) destroyPost(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeletePost(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *communityApi) toggleLike(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	post, err := api.svc.ToggleLike(ctx.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *communityApi) toggleSave(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	post, err := api.svc.ToggleSave(ctx.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *communityApi) addComment(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data community.NewComment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}

	post, err := api.svc.AddComment(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, post)
}

func (api *communityApi) destroyComment(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	post, err := api.svc.DeleteComment(ctx.Request().Context(), actor, id, ctx.Param("commentID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, post)
}

// Topics

func (api *communityApi) listTopics(ctx echo.Context) error {
	topics, err := api.svc.ListTopics(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *communityApi) followedTopics(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	topics, err := api.svc.FollowedTopics(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *communityApi) follow(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Follow(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *communityApi) unfollow(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Unfollow(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Contact messages

func (api *communityApi) submitContact(ctx echo.Context) error {
	var data community.NewContactMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContactMessage")
	}

	msg, err := api.svc.SubmitContact(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *communityApi) listContacts(ctx echo.Context) error {
	msgs, err := api.svc.ListContacts(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, msgs)
}
