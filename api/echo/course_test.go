package echoapi

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/backend/core/course"
)

// createCourse drives POST /v1/courses with a teacher token.
func (env *testEnv) createCourse(t *testing.T, token, title, typ string) course.Course {
	t.Helper()
	body := marshalObj(t, map[string]string{
		"title":       title,
		"description": "An introduction.",
		"type":        typ,
		"category":    "programming",
		"level":       "beginner",
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/courses", token, body)
	env.do(req, rec)
	if rec.Code != http.StatusCreated {
		t.Fatalf("createCourse(%s) = %d: %s", title, rec.Code, rec.Body.String())
	}
	var crs course.Course
	decodeBody(t, rec, &crs)
	return crs
}

func Test_courseApi_create(t *testing.T) {
	env := setup(t)
	_, teacherTk := env.registerUser(t, "prof@test.cd", "teacher")
	_, studentTk := env.registerUser(t, "stud@test.cd", "student")

	// unauthenticated
	req, rec := newRequest(http.MethodPost, "/v1/courses", marshalObj(t, map[string]string{"title": "Go 101"}))
	env.do(req, rec)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// students cannot create courses
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses", studentTk, marshalObj(t, map[string]string{"title": "Go 101"}))
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	var herr httpErr
	decodeBody(t, rec, &herr)
	assert.Equal(t, "permission denied", herr.Error)

	// teachers can
	crs := env.createCourse(t, teacherTk, "Go 101", "formal")
	assert.Equal(t, "Go 101", crs.Title)
	assert.Equal(t, "formal", crs.Type)
	assert.NotZero(t, crs.InstructorID)

	// title is required
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses", teacherTk, marshalObj(t, map[string]string{"description": "no title"}))
	env.do(req, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_courseApi_listAndRetrieve(t *testing.T) {
	env := setup(t)
	_, teacherTk := env.registerUser(t, "prof@test.cd", "teacher")

	env.createCourse(t, teacherTk, "Go 101", "formal")
	crs := env.createCourse(t, teacherTk, "Rust for Gophers", "nonformal")

	// listing is public
	req, rec := newRequest(http.MethodGet, "/v1/courses")
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var page course.CourseList
	decodeBody(t, rec, &page)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Data, 2)

	// filter by type
	req, rec = newRequest(http.MethodGet, "/v1/courses?type=nonformal")
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &page)
	assert.Equal(t, 1, page.Total)

	// retrieve is public too
	req, rec = newRequest(http.MethodGet, fmt.Sprintf("/v1/courses/%d", crs.ID))
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var got course.Course
	decodeBody(t, rec, &got)
	assert.Equal(t, crs.ID, got.ID)

	req, rec = newRequest(http.MethodGet, "/v1/courses/9999")
	env.do(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_courseApi_updateOwnership(t *testing.T) {
	env := setup(t)
	_, ownerTk := env.registerUser(t, "owner@test.cd", "teacher")
	_, otherTk := env.registerUser(t, "other@test.cd", "teacher")

	crs := env.createCourse(t, ownerTk, "Go 101", "formal")

	body := marshalObj(t, map[string]string{"title": "Go 102"})

	// only the instructor who owns the course may update it
	req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/courses/%d", crs.ID), otherTk, body)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/courses/%d", crs.ID), ownerTk, body)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var got course.Course
	decodeBody(t, rec, &got)
	assert.Equal(t, "Go 102", got.Title)
}

func Test_courseApi_lessons(t *testing.T) {
	env := setup(t)
	_, teacherTk := env.registerUser(t, "prof@test.cd", "teacher")
	_, studentTk := env.registerUser(t, "stud@test.cd", "student")
	crs := env.createCourse(t, teacherTk, "Go 101", "formal")

	newLesson := func(title string, order int) []byte {
		return marshalObj(t, map[string]interface{}{
			"course_id":   crs.ID,
			"title":       title,
			"content":     "...",
			"order_index": order,
		})
	}

	// students cannot add lessons
	req, rec := newAuthRequest(http.MethodPost, "/v1/lessons", studentTk, newLesson("Basics", 1))
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/lessons", teacherTk, newLesson("Concurrency", 2))
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/lessons", teacherTk, newLesson("Basics", 1))
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)

	// listing is public and ordered by order_index
	req, rec = newRequest(http.MethodGet, fmt.Sprintf("/v1/lessons?course_id=%d", crs.ID))
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var lessons []course.Lesson
	decodeBody(t, rec, &lessons)
	require.Len(t, lessons, 2)
	assert.Equal(t, "Basics", lessons[0].Title)
	assert.Equal(t, "Concurrency", lessons[1].Title)
}

func Test_courseApi_resources(t *testing.T) {
	env := setup(t)
	_, teacherTk := env.registerUser(t, "prof@test.cd", "teacher")
	crs := env.createCourse(t, teacherTk, "Go 101", "formal")

	body := marshalObj(t, map[string]interface{}{
		"course_id": crs.ID,
		"name":      "Effective Go",
		"url":       "https://go.dev/doc/effective_go",
		"type":      "article",
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/resources", teacherTk, body)
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)
	var res course.Resource
	decodeBody(t, rec, &res)
	assert.Equal(t, "Effective Go", res.Name)

	// a resource needs a valid url
	body = marshalObj(t, map[string]interface{}{"course_id": crs.ID, "name": "bad", "url": "not a url"})
	req, rec = newAuthRequest(http.MethodPost, "/v1/resources", teacherTk, body)
	env.do(req, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req, rec = newRequest(http.MethodGet, fmt.Sprintf("/v1/resources?course_id=%d", crs.ID))
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var resources []course.Resource
	decodeBody(t, rec, &resources)
	assert.Len(t, resources, 1)
}

func Test_courseApi_schedules(t *testing.T) {
	env := setup(t)
	_, teacherTk := env.registerUser(t, "prof@test.cd", "teacher")
	_, studentTk := env.registerUser(t, "stud@test.cd", "student")
	crs := env.createCourse(t, teacherTk, "Go 101", "formal")

	// the timetable is public
	req, rec := newRequest(http.MethodGet, "/v1/class-schedules")
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var schedules []course.ClassSchedule
	decodeBody(t, rec, &schedules)
	assert.Empty(t, schedules)

	body := marshalObj(t, map[string]interface{}{
		"course_id":  crs.ID,
		"title":      "Live session",
		"start_time": time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"duration":   60,
		"meet_link":  "https://meet.test.cd/go101",
	})
	req, rec = newAuthRequest(http.MethodPost, "/v1/class-schedules", teacherTk, body)
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sch course.ClassSchedule
	decodeBody(t, rec, &sch)

	req, rec = newRequest(http.MethodGet, fmt.Sprintf("/v1/class-schedules/%d", sch.ID))
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)

	req, rec = newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/class-schedules/%d", sch.ID), studentTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/class-schedules/%d", sch.ID), teacherTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func Test_courseApi_cascadeDelete(t *testing.T) {
	env := setup(t)
	_, teacherTk := env.registerUser(t, "prof@test.cd", "teacher")
	crs := env.createCourse(t, teacherTk, "Go 101", "formal")

	body := marshalObj(t, map[string]interface{}{"course_id": crs.ID, "title": "Basics", "order_index": 1})
	req, rec := newAuthRequest(http.MethodPost, "/v1/lessons", teacherTk, body)
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)

	req, rec = newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/courses/%d", crs.ID), teacherTk)
	env.do(req, rec)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newRequest(http.MethodGet, fmt.Sprintf("/v1/courses/%d", crs.ID))
	env.do(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// lessons go with the course
	req, rec = newRequest(http.MethodGet, fmt.Sprintf("/v1/lessons?course_id=%d", crs.ID))
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var lessons []course.Lesson
	decodeBody(t, rec, &lessons)
	assert.Empty(t, lessons)
}
