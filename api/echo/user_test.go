package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/backend/core/user"
)

func Test_userApi_registerAndLogin(t *testing.T) {
	env := setup(t)

	usr, token := env.registerUser(t, "jane@test.cd", "student")
	assert.Equal(t, user.RoleStudent, usr.Role)
	assert.NotEmpty(t, token)
	assert.True(t, usr.StudentID.Valid)
	assert.False(t, usr.TeacherID.Valid)

	// duplicate email is rejected
	body := marshalObj(t, map[string]string{
		"first_name": "Jane", "last_name": "Doe",
		"email": "jane@test.cd", "password": "s3cretpass", "role": "teacher",
	})
	req, rec := newRequest(http.MethodPost, "/v1/auth/register", body)
	env.do(req, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// login with the right role
	body = marshalObj(t, map[string]string{"email": "jane@test.cd", "password": "s3cretpass", "role": "student"})
	req, rec = newRequest(http.MethodPost, "/v1/auth/login", body)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp AuthResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, usr.ID, resp.User.ID)
	assert.NotEmpty(t, resp.Token)

	// a student token can never act as a teacher
	body = marshalObj(t, map[string]string{"email": "jane@test.cd", "password": "s3cretpass", "role": "teacher"})
	req, rec = newRequest(http.MethodPost, "/v1/auth/login", body)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// wrong password
	body = marshalObj(t, map[string]string{"email": "jane@test.cd", "password": "wrongpass1", "role": "student"})
	req, rec = newRequest(http.MethodPost, "/v1/auth/login", body)
	env.do(req, rec)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_userApi_me(t *testing.T) {
	env := setup(t)
	usr, token := env.registerUser(t, "john@test.cd", "teacher")

	// auth required
	req, rec := newRequest(http.MethodGet, "/v1/users/me")
	env.do(req, rec)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/users/me", token)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var me user.User
	decodeBody(t, rec, &me)
	assert.Equal(t, usr.ID, me.ID)
	assert.Equal(t, "john@test.cd", me.Email)
}

func Test_userApi_updateProfile(t *testing.T) {
	env := setup(t)
	_, token := env.registerUser(t, "amina@test.cd", "student")

	body := marshalObj(t, map[string]string{"bio": "I love Go", "city": "Kinshasa"})
	req, rec := newAuthRequest(http.MethodPut, "/v1/users/me", token, body)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var me user.User
	decodeBody(t, rec, &me)
	assert.Equal(t, "I love Go", me.Bio.String)
	assert.Equal(t, "Kinshasa", me.City.String)

	// an empty update is rejected
	req, rec = newAuthRequest(http.MethodPut, "/v1/users/me", token, marshalObj(t, map[string]string{}))
	env.do(req, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_userApi_forgotPassword(t *testing.T) {
	env := setup(t)
	env.registerUser(t, "kim@test.cd", "student")

	body := marshalObj(t, map[string]string{"email": "kim@test.cd", "new_password": "news3cret1"})
	req, rec := newRequest(http.MethodPost, "/v1/auth/forgot-password", body)
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)

	// the old password no longer works
	body = marshalObj(t, map[string]string{"email": "kim@test.cd", "password": "s3cretpass", "role": "student"})
	req, rec = newRequest(http.MethodPost, "/v1/auth/login", body)
	env.do(req, rec)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// the new one does
	body = marshalObj(t, map[string]string{"email": "kim@test.cd", "password": "news3cret1", "role": "student"})
	req, rec = newRequest(http.MethodPost, "/v1/auth/login", body)
	env.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
}
