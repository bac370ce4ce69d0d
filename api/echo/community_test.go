package echoapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/backend/core/community"
)

func (env *testEnv) createPost(t *testing.T, token, title, topic string) community.InformalPost {
	t.Helper()
	body := marshalObj(t, map[string]string{
		"title":   title,
		"content": "Some thoughts.",
		"topic":   topic,
		"tags":    "go,learning",
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/informal-posts", token, body)
	env.do(req, rec)
	if rec.Code != http.StatusCreated {
		t.Fatalf("createPost(%s) = %d: %s", title, rec.Code, rec.Body.String())
	}
	var post community.InformalPost
	decodeBody(t, rec, &post)
	return post
}

func Test_communityApi_posts(t *testing.T) {
	env := setup(t)
	author, authorTk := env.registerUser(t, "author@test.cd", "student")
	_, otherTk := env.registerUser(t, "other@test.cd", "student")

	// posting requires auth
	req, rec := newRequest(http.MethodPost, "/v1/informal-posts", marshalObj(t, map[string]string{"title": "hi", "content": "..."}))
	env.do(req, rec)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	post := env.createPost(t, authorTk, "Struct embedding", "golang")
	assert.Equal(t, author.ID, post.AuthorID)
	assert.Empty(t, post.Likers)
	assert.Empty(t, post.Comments)

	env.createPost(t, authorTk, "Channels vs mutexes", "golang")
	env.createPost(t, authorTk, "Study schedule tips", "general")

	// public listing, newest first
	req, rec = newRequest(http.MethodGet, "/v1/informal-posts")
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var page community.PostList
	decodeBody(t, rec, &page)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Data, 3)
	assert.Equal(t, "Study schedule tips", page.Data[0].Title)

	// topic filter
	req, rec = newRequest(http.MethodGet, "/v1/informal-posts?topic=golang")
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &page)
	assert.Equal(t, 2, page.Total)

	// public retrieval
	req, rec = newRequest(http.MethodGet, fmt.Sprintf("/v1/informal-posts/%d", post.ID))
	env.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)

	// only the author may delete
	req, rec = newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/informal-posts/%d", post.ID), otherTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/informal-posts/%d", post.ID), authorTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newRequest(http.MethodGet, fmt.Sprintf("/v1/informal-posts/%d", post.ID))
	env.do(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_communityApi_likesAndSaves(t *testing.T) {
	env := setup(t)
	_, authorTk := env.registerUser(t, "author@test.cd", "student")
	fan, fanTk := env.registerUser(t, "fan@test.cd", "student")

	post := env.createPost(t, authorTk, "Struct embedding", "golang")
	likeURL := fmt.Sprintf("/v1/informal-posts/%d/like", post.ID)
	saveURL := fmt.Sprintf("/v1/informal-posts/%d/save", post.ID)

	req, rec := newAuthRequest(http.MethodPost, likeURL, fanTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var got community.InformalPost
	decodeBody(t, rec, &got)
	assert.Equal(t, 1, got.Likes)
	assert.Equal(t, []int{fan.ID}, got.Likers)

	// liking again removes the like
	req, rec = newAuthRequest(http.MethodPost, likeURL, fanTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &got)
	assert.Zero(t, got.Likes)
	assert.Empty(t, got.Likers)

	// saving works the same way
	req, rec = newAuthRequest(http.MethodPost, saveURL, fanTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &got)
	assert.Equal(t, []int{fan.ID}, got.Savers)

	req, rec = newAuthRequest(http.MethodPost, saveURL, fanTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &got)
	assert.Empty(t, got.Savers)
}

func Test_communityApi_comments(t *testing.T) {
	env := setup(t)
	_, authorTk := env.registerUser(t, "author@test.cd", "student")
	_, otherTk := env.registerUser(t, "other@test.cd", "student")

	post := env.createPost(t, authorTk, "Struct embedding", "golang")
	commentsURL := fmt.Sprintf("/v1/informal-posts/%d/comment", post.ID)

	req, rec := newAuthRequest(http.MethodPost, commentsURL, otherTk, marshalObj(t, map[string]string{"text": "Nice writeup!"}))
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)
	var got community.InformalPost
	decodeBody(t, rec, &got)
	require.Len(t, got.Comments, 1)
	cmt := got.Comments[0]
	assert.Equal(t, "other@test.cd", cmt.Author)
	assert.NotEmpty(t, cmt.ID)

	// a comment can only be removed by its author
	req, rec = newAuthRequest(http.MethodDelete, commentsURL+"/"+cmt.ID, authorTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req, rec = newAuthRequest(http.MethodDelete, commentsURL+"/"+cmt.ID, otherTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &got)
	assert.Empty(t, got.Comments)
}

func Test_communityApi_topics(t *testing.T) {
	env := setup(t)
	_, token := env.registerUser(t, "stud@test.cd", "student")

	golang := env.communityRepo.AddTopic("golang")
	env.communityRepo.AddTopic("mathematics")

	// topics are public
	req, rec := newRequest(http.MethodGet, "/v1/topics")
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var topics []community.Topic
	decodeBody(t, rec, &topics)
	require.Len(t, topics, 2)
	assert.Equal(t, "golang", topics[0].Name)

	followURL := fmt.Sprintf("/v1/topics/%d/follow", golang.ID)

	req, rec = newAuthRequest(http.MethodPost, followURL, token)
	env.do(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// following twice conflicts
	req, rec = newAuthRequest(http.MethodPost, followURL, token)
	env.do(req, rec)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// unknown topic
	req, rec = newAuthRequest(http.MethodPost, "/v1/topics/9999/follow", token)
	env.do(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/topics/followed", token)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &topics)
	require.Len(t, topics, 1)
	assert.Equal(t, "golang", topics[0].Name)

	req, rec = newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/topics/%d/unfollow", golang.ID), token)
	env.do(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/topics/followed", token)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &topics)
	assert.Empty(t, topics)
}

func Test_communityApi_contact(t *testing.T) {
	env := setup(t)

	// anyone may write in, no account needed
	body := marshalObj(t, map[string]string{
		"name":    "Visitor",
		"email":   "visitor@test.cd",
		"subject": "Signup help",
		"message": "I cannot register.",
	})
	req, rec := newRequest(http.MethodPost, "/v1/contact-messages", body)
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)

	// missing email is rejected
	req, rec = newRequest(http.MethodPost, "/v1/contact-messages", marshalObj(t, map[string]string{"name": "X"}))
	env.do(req, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req, rec = newRequest(http.MethodGet, "/v1/contact-messages")
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []community.ContactMessage
	decodeBody(t, rec, &msgs)
	require.Len(t, msgs, 1)
	assert.Equal(t, "visitor@test.cd", msgs[0].Email)
}
