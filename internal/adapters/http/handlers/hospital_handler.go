package handlers

import (
	"errors"
	"strconv"
	"strings"

	"hospital-directory/internal/adapters/http/middleware"
	"hospital-directory/internal/adapters/persistence/repositories"
	"hospital-directory/internal/core/domain"
	"hospital-directory/internal/core/services"
	"hospital-directory/internal/pkg/pagination"
	"hospital-directory/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// HospitalHandler handles hospital directory endpoints
type HospitalHandler struct {
	hospitalService *services.HospitalService
}

// NewHospitalHandler creates a new hospital handler
func NewHospitalHandler(hospitalService *services.HospitalService) *HospitalHandler {
	return &HospitalHandler{hospitalService: hospitalService}
}

// RegisterHospital creates a hospital owned by the calling doctor
// @Summary Register hospital
// @Description Register a hospital (doctors only). The caller becomes its owner.
// @Tags Hospitals
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param body body services.HospitalInput true "Hospital data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /hospitals/registerHospital [post]
func (h *HospitalHandler) RegisterHospital(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthenticated")
	}

	var req services.HospitalInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	hospital, err := h.hospitalService.Register(c.Context(), userID, &req)
	if err != nil {
		return h.hospitalError(c, err, "Failed to register hospital")
	}

	return response.Created(c, "Hospital registered successfully", fiber.Map{
		"hospital": hospital,
	})
}

// ListHospitals lists hospitals with filters
// @Summary List hospitals
// @Tags Hospitals
// @Produce json
// @Param q query string false "Search name or description"
// @Param city query string false "City"
// @Param state query string false "State"
// @Param type query string false "Hospital type"
// @Param speciality query string false "Speciality"
// @Param emergency query bool false "Emergency available"
// @Param doctor query int false "Owning doctor ID"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /hospitals/all [get]
func (h *HospitalHandler) ListHospitals(c *fiber.Ctx) error {
	filter := repositories.HospitalFilter{
		Search:       strings.TrimSpace(c.Query("q")),
		City:         strings.TrimSpace(c.Query("city")),
		State:        strings.TrimSpace(c.Query("state")),
		HospitalType: strings.TrimSpace(c.Query("type")),
		Speciality:   strings.TrimSpace(c.Query("speciality")),
	}
	if v := c.Query("emergency"); v != "" {
		emergency, err := strconv.ParseBool(v)
		if err != nil {
			return response.ValidationFailed(c, "emergency", "emergency must be true or false")
		}
		filter.Emergency = &emergency
	}
	if v := c.Query("doctor"); v != "" {
		doctorID, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return response.ValidationFailed(c, "doctor", "Invalid doctor ID")
		}
		filter.DoctorID = uint(doctorID)
	}

	page, err := h.hospitalService.List(c.Context(), filter, pagination.GetParams(c))
	if err != nil {
		return writeError(c, err, "Failed to list hospitals")
	}

	return response.Success(c, "Hospitals retrieved successfully", fiber.Map{
		"hospitals":  page.Items,
		"pagination": page.Meta,
	})
}

// GetHospital gets a hospital by ID
// @Summary Get hospital
// @Tags Hospitals
// @Produce json
// @Param id path int true "Hospital ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /hospitals/{id} [get]
func (h *HospitalHandler) GetHospital(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid ID")
	}

	hospital, err := h.hospitalService.Get(c.Context(), uint(id))
	if err != nil {
		return h.hospitalError(c, err, "Failed to get hospital")
	}

	return response.Success(c, "Hospital retrieved successfully", fiber.Map{
		"hospital": hospital,
	})
}

// UpdateHospital updates a hospital owned by the caller
// @Summary Update hospital
// @Description Partially update a hospital (owning doctor only)
// @Tags Hospitals
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param id path int true "Hospital ID"
// @Param body body services.HospitalPatch true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /hospitals/{id} [put]
func (h *HospitalHandler) UpdateHospital(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid ID")
	}

	var req services.HospitalPatch
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	hospital, err := h.hospitalService.Update(c.Context(), userID, uint(id), &req)
	if err != nil {
		return h.hospitalError(c, err, "Failed to update hospital")
	}

	return response.Success(c, "Hospital updated successfully", fiber.Map{
		"hospital": hospital,
	})
}

// DeleteHospital deletes a hospital owned by the caller
// @Summary Delete hospital
// @Tags Hospitals
// @Produce json
// @Security CookieAuth
// @Param id path int true "Hospital ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /hospitals/{id} [delete]
func (h *HospitalHandler) DeleteHospital(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid ID")
	}

	if err := h.hospitalService.Delete(c.Context(), userID, uint(id)); err != nil {
		return h.hospitalError(c, err, "Failed to delete hospital")
	}

	return response.Success(c, "Hospital deleted successfully", nil)
}

func (h *HospitalHandler) hospitalError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrHospitalNotFound):
		return response.NotFound(c, "Hospital not found")
	case errors.Is(err, services.ErrNotDoctor):
		return response.Forbidden(c, "Only doctors can manage hospitals")
	case errors.Is(err, services.ErrNotOwner):
		return response.Forbidden(c, "You can only manage your own hospitals")
	case errors.Is(err, domain.ErrUnauthenticated):
		return response.Unauthorized(c, "Unauthenticated")
	default:
		return writeError(c, err, fallback)
	}
}
