package routes

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorSessionScenario(t *testing.T) {
	env := newTestEnv(t, nil)

	// signup doctor
	resp, body := env.do(t, http.MethodPost, "/users/signup", signupBody("a@x.com", "doctor"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Nil(t, sessionCookie(resp), "signup must not start a session")
	var signedUp userData
	decode(t, body.Data, &signedUp)
	assert.Equal(t, "doctor", signedUp.User.Role)

	// login
	resp, body = env.do(t, http.MethodPost, "/users/login", fiber.Map{"email": "a@x.com", "password": "p1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.NotContains(t, string(body.Data), "password")
	session := &http.Cookie{Name: cookie.Name, Value: cookie.Value}

	// who am i
	resp, body = env.do(t, http.MethodGet, "/users/me", nil, session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me userData
	decode(t, body.Data, &me)
	assert.Equal(t, signedUp.User.ID, me.User.ID)
	assert.Equal(t, "doctor", me.User.Role)

	// register hospital
	resp, body = env.do(t, http.MethodPost, "/hospitals/registerHospital", hospitalBody(), session)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Hospital struct {
			ID     uint `json:"id"`
			Doctor uint `json:"doctor"`
		} `json:"hospital"`
	}
	decode(t, body.Data, &created)
	assert.NotZero(t, created.Hospital.ID)
	assert.Equal(t, signedUp.User.ID, created.Hospital.Doctor)

	// logout clears the cookie
	resp, _ = env.do(t, http.MethodPost, "/users/logout", nil, session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cleared := sessionCookie(resp)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.Expires.Before(time.Now()))

	// the browser drops the cookie; who-am-i is now unauthenticated
	resp, _ = env.do(t, http.MethodGet, "/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_InvalidToken(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodGet, "/users/me", nil, &http.Cookie{Name: "token", Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_BearerFallback(t *testing.T) {
	env := newTestEnv(t, nil)
	id, session := env.loginAs(t, "a@x.com", "patient")

	req := map[string]string{"Authorization": "Bearer " + session.Value}
	resp, err := env.app.Test(newRequest(http.MethodGet, "/users/me", req), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	env.users.Delete(id)
	resp, _ = env.do(t, http.MethodGet, "/users/me", nil, session)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserRoutesAreNotCached(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodPost, "/users/logout", nil)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = true
	env := newTestEnv(t, cfg)

	var last int
	for i := 0; i < 6; i++ {
		resp, _ := env.do(t, http.MethodPost, "/users/login", fiber.Map{"email": "nobody@x.com", "password": "p1"})
		last = resp.StatusCode
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestAPIPrefixMount(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodPost, "/api/users/signup", signupBody("a@x.com", "doctor"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/users/login", fiber.Map{"email": "a@x.com", "password": "p1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)

	resp, _ = env.do(t, http.MethodGet, "/users/me", nil, &http.Cookie{Name: cookie.Name, Value: cookie.Value})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/hospitals/all", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
