package routes

import (
	"fmt"
	"net/http"
	"testing"

	"hospital-directory/internal/core/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hospitalData struct {
	Hospital struct {
		ID           uint     `json:"id"`
		HospitalName string   `json:"hospitalName"`
		City         string   `json:"city"`
		Doctor       uint     `json:"doctor"`
		Specialities []string `json:"specialities"`
	} `json:"hospital"`
}

func (e *testEnv) registerHospital(t *testing.T, session *http.Cookie, body fiber.Map) uint {
	t.Helper()
	resp, env := e.do(t, http.MethodPost, "/hospitals/registerHospital", body, session)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Error)
	var data hospitalData
	decode(t, env.Data, &data)
	return data.Hospital.ID
}

func TestRegisterHospital_Auth(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodPost, "/hospitals/registerHospital", hospitalBody())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, patient := env.loginAs(t, "p@x.com", "patient")
	resp, body := env.do(t, http.MethodPost, "/hospitals/registerHospital", hospitalBody(), patient)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, body.Success)
}

func TestRegisterHospital_DemotedDoctor(t *testing.T) {
	env := newTestEnv(t, nil)
	id, session := env.loginAs(t, "d@x.com", "doctor")

	// the token still says doctor; the live record does not
	env.users.SetRole(id, domain.RolePatient)

	resp, _ := env.do(t, http.MethodPost, "/hospitals/registerHospital", hospitalBody(), session)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRegisterHospital_PromotedPatient(t *testing.T) {
	env := newTestEnv(t, nil)
	id, session := env.loginAs(t, "p@x.com", "patient")

	// the token still says patient; the live record is a doctor
	env.users.SetRole(id, domain.RoleDoctor)

	resp, body := env.do(t, http.MethodPost, "/hospitals/registerHospital", hospitalBody(), session)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Error)

	var data hospitalData
	decode(t, body.Data, &data)
	assert.Equal(t, id, data.Hospital.Doctor)
}

func TestRegisterHospital_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	_, session := env.loginAs(t, "d@x.com", "doctor")

	b := hospitalBody()
	b["pincode"] = "12"
	resp, body := env.do(t, http.MethodPost, "/hospitals/registerHospital", b, session)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "pincode", body.Field)
}

func TestHospital_CRUD(t *testing.T) {
	env := newTestEnv(t, nil)
	ownerID, owner := env.loginAs(t, "owner@x.com", "doctor")
	_, rival := env.loginAs(t, "rival@x.com", "doctor")
	id := env.registerHospital(t, owner, hospitalBody())
	path := fmt.Sprintf("/hospitals/%d", id)

	// public read
	resp, body := env.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got hospitalData
	decode(t, body.Data, &got)
	assert.Equal(t, ownerID, got.Hospital.Doctor)

	// another doctor can neither update nor delete
	resp, _ = env.do(t, http.MethodPut, path, fiber.Map{"city": "Mumbai"}, rival)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = env.do(t, http.MethodDelete, path, nil, rival)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// anonymous callers are rejected before ownership is checked
	resp, _ = env.do(t, http.MethodPut, path, fiber.Map{"city": "Mumbai"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// owner update
	resp, body = env.do(t, http.MethodPut, path, fiber.Map{"city": "Mumbai", "doctor": 999}, owner)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, body.Data, &got)
	assert.Equal(t, "Mumbai", got.Hospital.City)
	assert.Equal(t, "City Care", got.Hospital.HospitalName)
	assert.Equal(t, ownerID, got.Hospital.Doctor)

	// owner delete
	resp, _ = env.do(t, http.MethodDelete, path, nil, owner)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = env.do(t, http.MethodDelete, path, nil, owner)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetHospital_BadID(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodGet, "/hospitals/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/hospitals/77", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListHospitals(t *testing.T) {
	env := newTestEnv(t, nil)
	_, session := env.loginAs(t, "d@x.com", "doctor")

	for _, city := range []string{"Pune", "Pune", "Nagpur"} {
		b := hospitalBody()
		b["city"] = city
		env.registerHospital(t, session, b)
	}

	resp, body := env.do(t, http.MethodGet, "/hospitals/all?city=Pune&limit=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		Hospitals []struct {
			ID   uint   `json:"id"`
			City string `json:"city"`
		} `json:"hospitals"`
		Pagination struct {
			Page       int   `json:"page"`
			Limit      int   `json:"limit"`
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
			HasNext    bool  `json:"has_next"`
		} `json:"pagination"`
	}
	decode(t, body.Data, &page)
	require.Len(t, page.Hospitals, 1)
	assert.Equal(t, "Pune", page.Hospitals[0].City)
	assert.Equal(t, int64(2), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNext)

	resp, _ = env.do(t, http.MethodGet, "/hospitals/all?emergency=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/hospitals/all?type=Clinic", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body.Data), `"hospitals":[]`)
}
