package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"hospital-directory/internal/adapters/http/middleware"
	"hospital-directory/internal/adapters/persistence/repositories/repotest"
	"hospital-directory/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	app       *fiber.App
	cfg       *config.Config
	users     *repotest.Users
	hospitals *repotest.Hospitals
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Field   string          `json:"field"`
}

func testConfig() *config.Config {
	return &config.Config{
		AppMode:    "dev",
		Port:       "3000",
		JWT:        config.JWTConfig{Secret: "test-secret", TokenDays: 7},
		Cookie:     config.CookieConfig{SameSite: "lax"},
		OTP:        config.OTPConfig{Minutes: 10},
		BcryptCost: bcrypt.MinCost,
	}
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}

	env := &testEnv{
		app:       fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler}),
		cfg:       cfg,
		users:     repotest.NewUsers(),
		hospitals: repotest.NewHospitals(),
	}
	Register(env.app, Repositories{Users: env.users, Hospitals: env.hospitals}, cfg, func() error { return nil })
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

type userData struct {
	User struct {
		ID    uint   `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

func signupBody(email, role string) fiber.Map {
	return fiber.Map{
		"name":            "Dr Test",
		"email":           email,
		"password":        "p1",
		"confirmPassword": "p1",
		"role":            role,
	}
}

func hospitalBody() fiber.Map {
	return fiber.Map{
		"hospitalName":       "City Care",
		"phoneNumber":        "9876543210",
		"address":            "12 MG Road",
		"city":               "Pune",
		"state":              "Maharashtra",
		"pincode":            "411001",
		"registrationFees":   500,
		"hospitalType":       "Private",
		"emergencyAvailable": true,
		"specialities":       []string{"Cardiology"},
	}
}

// loginAs signs up and logs in, returning the user id and session cookie
func (e *testEnv) loginAs(t *testing.T, email, role string) (uint, *http.Cookie) {
	t.Helper()

	resp, _ := e.do(t, http.MethodPost, "/users/signup", signupBody(email, role))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := e.do(t, http.MethodPost, "/users/login", fiber.Map{"email": email, "password": "p1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)

	var data userData
	decode(t, body.Data, &data)
	return data.User.ID, &http.Cookie{Name: cookie.Name, Value: cookie.Value}
}

func newRequest(method, path string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}
