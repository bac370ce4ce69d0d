package echoapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/backend/core/assess"
)

func (env *testEnv) createAssignment(t *testing.T, token string, courseID int, title string) assess.Assignment {
	t.Helper()
	body := marshalObj(t, map[string]interface{}{
		"course_id":   courseID,
		"title":       title,
		"description": "Ship something small.",
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/assignments", token, body)
	env.do(req, rec)
	if rec.Code != http.StatusCreated {
		t.Fatalf("createAssignment(%s) = %d: %s", title, rec.Code, rec.Body.String())
	}
	var asg assess.Assignment
	decodeBody(t, rec, &asg)
	return asg
}

func Test_assessApi_assignments(t *testing.T) {
	env := setup(t)
	_, ownerTk := env.registerUser(t, "owner@test.cd", "teacher")
	_, otherTk := env.registerUser(t, "other@test.cd", "teacher")
	_, studentTk := env.registerUser(t, "stud@test.cd", "student")
	crs := env.createCourse(t, ownerTk, "Go 101", "formal")

	body := marshalObj(t, map[string]interface{}{"course_id": crs.ID, "title": "Build a CLI"})

	// students cannot create assignments
	req, rec := newAuthRequest(http.MethodPost, "/v1/assignments", studentTk, body)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// neither can a teacher who does not run the course
	req, rec = newAuthRequest(http.MethodPost, "/v1/assignments", otherTk, body)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	asg := env.createAssignment(t, ownerTk, crs.ID, "Build a CLI")
	assert.Equal(t, crs.ID, asg.CourseID)

	// any authenticated user can browse assignments by course
	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/assignments?course_id=%d", crs.ID), studentTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var assignments []assess.Assignment
	decodeBody(t, rec, &assignments)
	assert.Len(t, assignments, 1)

	// updates are owner-only too
	update := marshalObj(t, map[string]string{"title": "Build a better CLI"})
	req, rec = newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/assignments/%d", asg.ID), otherTk, update)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/assignments/%d", asg.ID), ownerTk, update)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &asg)
	assert.Equal(t, "Build a better CLI", asg.Title)

	req, rec = newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/assignments/%d", asg.ID), ownerTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func Test_assessApi_submissions(t *testing.T) {
	env := setup(t)
	_, teacherTk := env.registerUser(t, "prof@test.cd", "teacher")
	stud, studentTk := env.registerUser(t, "stud@test.cd", "student")
	_, otherTk := env.registerUser(t, "other@test.cd", "student")

	crs := env.createCourse(t, teacherTk, "Go 101", "formal")
	asg := env.createAssignment(t, teacherTk, crs.ID, "Build a CLI")
	enr := env.enrollIn(t, studentTk, crs.ID)

	submitURL := fmt.Sprintf("/v1/assignments/%d/submissions", asg.ID)
	submission := marshalObj(t, map[string]interface{}{
		"enrollment_id": enr.ID,
		"content":       "https://github.com/stud/cli",
	})

	// teachers do not submit work
	req, rec := newAuthRequest(http.MethodPost, submitURL, teacherTk, submission)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// a student cannot submit through someone else's enrollment
	req, rec = newAuthRequest(http.MethodPost, submitURL, otherTk, submission)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, submitURL, studentTk, submission)
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sub assess.Submission
	decodeBody(t, rec, &sub)
	assert.Equal(t, int(stud.StudentID.Int), sub.StudentID)
	assert.Equal(t, "submitted", sub.Status)

	// one submission per assignment
	req, rec = newAuthRequest(http.MethodPost, submitURL, studentTk, submission)
	env.do(req, rec)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// per-assignment listing
	req, rec = newAuthRequest(http.MethodGet, submitURL, teacherTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var subs []assess.Submission
	decodeBody(t, rec, &subs)
	require.Len(t, subs, 1)

	// grading
	review := marshalObj(t, map[string]string{"status": "graded", "grade": "A", "feedback": "Clean work."})
	reviewURL := fmt.Sprintf("/v1/submissions/%d/review", sub.ID)

	req, rec = newAuthRequest(http.MethodPut, reviewURL, studentTk, review)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPut, reviewURL, teacherTk, review)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &sub)
	assert.Equal(t, "graded", sub.Status)
	assert.Equal(t, "A", sub.Grade.String)
	assert.Equal(t, "Clean work.", sub.Feedback.String)
}

func Test_assessApi_quizzes(t *testing.T) {
	env := setup(t)
	_, teacherTk := env.registerUser(t, "prof@test.cd", "teacher")
	_, studentTk := env.registerUser(t, "stud@test.cd", "student")
	crs := env.createCourse(t, teacherTk, "Go 101", "formal")

	quizBody := marshalObj(t, map[string]interface{}{
		"course_id":   crs.ID,
		"title":       "Week 1 check",
		"description": "Covers the basics.",
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/quizzes", studentTk, quizBody)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/quizzes", teacherTk, quizBody)
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)
	var qz assess.Quiz
	decodeBody(t, rec, &qz)

	questionsURL := fmt.Sprintf("/v1/quizzes/%d/questions", qz.ID)
	question := marshalObj(t, map[string]string{
		"question":       "What keyword starts a goroutine?",
		"options":        `["go","run","spawn","async"]`,
		"correct_answer": "go",
	})
	req, rec = newAuthRequest(http.MethodPost, questionsURL, teacherTk, question)
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)
	var q assess.Question
	decodeBody(t, rec, &q)
	assert.Equal(t, qz.ID, q.QuizID)

	req, rec = newAuthRequest(http.MethodGet, questionsURL, studentTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var questions []assess.Question
	decodeBody(t, rec, &questions)
	assert.Len(t, questions, 1)

	// taking the quiz
	submitURL := fmt.Sprintf("/v1/quizzes/%d/submissions", qz.ID)
	attempt := marshalObj(t, map[string]float64{"score": 80})

	req, rec = newAuthRequest(http.MethodPost, submitURL, teacherTk, attempt)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, submitURL, studentTk, attempt)
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sub assess.QuizSubmission
	decodeBody(t, rec, &sub)
	assert.Equal(t, float64(80), sub.Score)

	// one attempt per quiz
	req, rec = newAuthRequest(http.MethodPost, submitURL, studentTk, attempt)
	env.do(req, rec)
	assert.Equal(t, http.StatusConflict, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, submitURL, teacherTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var attempts []assess.QuizSubmission
	decodeBody(t, rec, &attempts)
	assert.Len(t, attempts, 1)

	// removing a question
	req, rec = newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/questions/%d", q.ID), teacherTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// deleting the quiz takes its questions and attempts with it
	req, rec = newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/quizzes/%d", qz.ID), teacherTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/quizzes?course_id=%d", crs.ID), teacherTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var quizzes []assess.Quiz
	decodeBody(t, rec, &quizzes)
	assert.Empty(t, quizzes)
}
