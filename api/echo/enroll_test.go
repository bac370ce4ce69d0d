package echoapi

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/backend/core/course"
	"github.com/edusphere/backend/core/enroll"
)

func (env *testEnv) enrollIn(t *testing.T, token string, courseID int) enroll.Enrollment {
	t.Helper()
	body := marshalObj(t, map[string]int{"course_id": courseID})
	req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments", token, body)
	env.do(req, rec)
	if rec.Code != http.StatusCreated {
		t.Fatalf("enrollIn(%d) = %d: %s", courseID, rec.Code, rec.Body.String())
	}
	var enr enroll.Enrollment
	decodeBody(t, rec, &enr)
	return enr
}

func Test_enrollApi_enroll(t *testing.T) {
	env := setup(t)
	_, teacherTk := env.registerUser(t, "prof@test.cd", "teacher")
	stud, studentTk := env.registerUser(t, "stud@test.cd", "student")
	crs := env.createCourse(t, teacherTk, "Go 101", "formal")

	// teachers do not enroll
	body := marshalObj(t, map[string]int{"course_id": crs.ID})
	req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments", teacherTk, body)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	enr := env.enrollIn(t, studentTk, crs.ID)
	assert.Equal(t, stud.ID, enr.UserID)
	assert.Equal(t, crs.ID, enr.CourseID)
	assert.Zero(t, enr.Progress)

	// enrolling twice in the same course conflicts
	req, rec = newAuthRequest(http.MethodPost, "/v1/enrollments", studentTk, body)
	env.do(req, rec)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// unknown course
	req, rec = newAuthRequest(http.MethodPost, "/v1/enrollments", studentTk, marshalObj(t, map[string]int{"course_id": 9999}))
	env.do(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// the student sees it under /enrollments/me
	req, rec = newAuthRequest(http.MethodGet, "/v1/enrollments/me", studentTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []enroll.Enrollment
	decodeBody(t, rec, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, enr.ID, mine[0].ID)

	// the full listing is for teachers only
	req, rec = newAuthRequest(http.MethodGet, "/v1/enrollments", studentTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	req, rec = newAuthRequest(http.MethodGet, "/v1/enrollments", teacherTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_enrollApi_withdraw(t *testing.T) {
	env := setup(t)
	_, teacherTk := env.registerUser(t, "prof@test.cd", "teacher")
	_, studentTk := env.registerUser(t, "stud@test.cd", "student")
	_, otherTk := env.registerUser(t, "other@test.cd", "student")
	crs := env.createCourse(t, teacherTk, "Go 101", "formal")

	enr := env.enrollIn(t, studentTk, crs.ID)

	// a student cannot withdraw someone else
	req, rec := newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/enrollments/%d", enr.ID), otherTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/enrollments/%d", enr.ID), studentTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/enrollments/%d", enr.ID), studentTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_enrollApi_attendance(t *testing.T) {
	env := setup(t)
	_, teacherTk := env.registerUser(t, "prof@test.cd", "teacher")
	stud, studentTk := env.registerUser(t, "stud@test.cd", "student")
	crs := env.createCourse(t, teacherTk, "Go 101", "formal")
	studentID := int(stud.StudentID.Int)

	schBody := marshalObj(t, map[string]interface{}{
		"course_id":  crs.ID,
		"title":      "Week 1",
		"start_time": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"duration":   90,
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/class-schedules", teacherTk, schBody)
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sch course.ClassSchedule
	decodeBody(t, rec, &sch)

	mark := marshalObj(t, map[string]interface{}{
		"schedule_id": sch.ID,
		"student_id":  studentID,
		"status":      "present",
	})

	// students cannot mark attendance
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance", studentTk, mark)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance", teacherTk, mark)
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)
	var att enroll.Attendance
	decodeBody(t, rec, &att)
	assert.Equal(t, "present", att.Status)

	// a second mark for the same session conflicts
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance", teacherTk, mark)
	env.do(req, rec)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// students see their own records only
	req, rec = newAuthRequest(http.MethodGet, "/v1/attendance", studentTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []enroll.Attendance
	decodeBody(t, rec, &records)
	require.Len(t, records, 1)
	assert.Equal(t, studentID, records[0].StudentID)

	// correcting a record
	req, rec = newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/attendance/%d", att.ID), teacherTk,
		marshalObj(t, map[string]string{"status": "absent"}))
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &att)
	assert.Equal(t, "absent", att.Status)

	req, rec = newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/attendance/%d", att.ID), teacherTk)
	env.do(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func Test_enrollApi_certificates(t *testing.T) {
	env := setup(t)
	_, teacherTk := env.registerUser(t, "prof@test.cd", "teacher")
	stud, studentTk := env.registerUser(t, "stud@test.cd", "student")
	crs := env.createCourse(t, teacherTk, "Go 101", "formal")
	env.enrollIn(t, studentTk, crs.ID)
	studentID := int(stud.StudentID.Int)

	issue := marshalObj(t, map[string]interface{}{
		"student_id": studentID,
		"course_id":  crs.ID,
	})

	// only teachers issue certificates
	req, rec := newAuthRequest(http.MethodPost, "/v1/certificates", studentTk, issue)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/certificates", teacherTk, issue)
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)
	var cert enroll.Certificate
	decodeBody(t, rec, &cert)
	assert.NotEmpty(t, cert.SerialCode)

	// one certificate per student per course
	req, rec = newAuthRequest(http.MethodPost, "/v1/certificates", teacherTk, issue)
	env.do(req, rec)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// public verification by serial
	req, rec = newRequest(http.MethodGet, "/v1/certificates/verify/"+cert.SerialCode)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var got enroll.Certificate
	decodeBody(t, rec, &got)
	assert.Equal(t, cert.ID, got.ID)

	req, rec = newRequest(http.MethodGet, "/v1/certificates/verify/not-a-serial")
	env.do(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// filtered listing
	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/certificates?student_id=%d", studentID), teacherTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var certs []enroll.Certificate
	decodeBody(t, rec, &certs)
	assert.Len(t, certs, 1)

	// a serial crafted to look like a filter pair stays a plain lookup miss,
	// even right after that filtered listing was cached
	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/certificates?student_id=%d&course_id=%d", studentID, crs.ID), teacherTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)

	req, rec = newRequest(http.MethodGet, fmt.Sprintf("/v1/certificates/verify/%d:%d", studentID, crs.ID))
	env.do(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_enrollApi_nonFormal(t *testing.T) {
	env := setup(t)
	_, teacherTk := env.registerUser(t, "prof@test.cd", "teacher")
	stud, studentTk := env.registerUser(t, "stud@test.cd", "student")

	formal := env.createCourse(t, teacherTk, "Go 101", "formal")
	workshop := env.createCourse(t, teacherTk, "Weekend Workshop", "nonformal")

	env.enrollIn(t, studentTk, formal.ID)
	env.enrollIn(t, studentTk, workshop.ID)

	// only the non-formal enrollment shows up
	req, rec := newAuthRequest(http.MethodGet, "/v1/nonformal/enrollments", studentTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var enrollments []enroll.Enrollment
	decodeBody(t, rec, &enrollments)
	require.Len(t, enrollments, 1)
	assert.Equal(t, workshop.ID, enrollments[0].CourseID)

	req, rec = newAuthRequest(http.MethodGet, "/v1/nonformal/progress", studentTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var progress []enroll.ProgressEntry
	decodeBody(t, rec, &progress)
	require.Len(t, progress, 1)
	assert.Equal(t, "Weekend Workshop", progress[0].Title)

	// a certificate for the workshop appears on the non-formal surface
	issue := marshalObj(t, map[string]interface{}{
		"student_id": int(stud.StudentID.Int),
		"course_id":  workshop.ID,
	})
	req, rec = newAuthRequest(http.MethodPost, "/v1/certificates", teacherTk, issue)
	env.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/nonformal/certificates", studentTk)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var certs []enroll.Certificate
	decodeBody(t, rec, &certs)
	assert.Len(t, certs, 1)
}
