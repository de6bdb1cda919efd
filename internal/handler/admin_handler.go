package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"dsas/internal/model"
	"dsas/internal/service"
)

// AdminHandler serves the admin dashboard.
type AdminHandler struct {
	gate     service.ApprovalGate
	registry service.AssignmentRegistry
	admin    service.AdminService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(gate service.ApprovalGate, registry service.AssignmentRegistry, admin service.AdminService) *AdminHandler {
	return &AdminHandler{gate: gate, registry: registry, admin: admin}
}

// ApprovalRequest approves or rejects a pending account.
type ApprovalRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

// AssignmentRequest names a doctor/patient pair.
type AssignmentRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" validate:"required"`
	PatientID uuid.UUID `json:"patient_id" validate:"required"`
}

// UsersResponse wraps a list of accounts.
type UsersResponse struct {
	Users []model.User `json:"users"`
}

// AssignmentResponse wraps a created assignment.
type AssignmentResponse struct {
	Message    string            `json:"message"`
	Assignment *model.Assignment `json:"assignment"`
}

// SetApproval godoc
// @Summary Approve or reject an account
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param request body ApprovalRequest true "Decision"
// @Success 200 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/users/{userId}/verify [put]
func (h *AdminHandler) SetApproval(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	userID, err := uuidParam(c, "userId")
	if err != nil {
		return err
	}
	var req ApprovalRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.gate.SetApproval(c.Request().Context(), actor, userID, *req.Approved)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, UserResponse{User: user})
}

// PendingUsers godoc
// @Summary List accounts awaiting approval
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param role query string false "patient or doctor"
// @Success 200 {object} UsersResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/pending-users [get]
func (h *AdminHandler) PendingUsers(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}

	users, err := h.gate.ListPending(c.Request().Context(), actor, model.Role(c.QueryParam("role")))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, UsersResponse{Users: users})
}

// UsersByRole godoc
// @Summary List accounts of a role
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param role path string true "patient, doctor or admin"
// @Success 200 {object} UsersResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/users/{role} [get]
func (h *AdminHandler) UsersByRole(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}

	users, err := h.admin.UsersByRole(c.Request().Context(), actor, model.Role(c.Param("role")))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, UsersResponse{Users: users})
}

// AssignDoctor godoc
// @Summary Assign a doctor to a patient
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AssignmentRequest true "Pair"
// @Success 201 {object} AssignmentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/assign-doctor [post]
func (h *AdminHandler) AssignDoctor(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req AssignmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	assignment, err := h.registry.Assign(c.Request().Context(), actor, req.DoctorID, req.PatientID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, AssignmentResponse{
		Message:    "doctor assigned successfully",
		Assignment: assignment,
	})
}

// UnassignDoctor godoc
// @Summary Remove a doctor/patient assignment
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AssignmentRequest true "Pair"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/unassign-doctor [post]
func (h *AdminHandler) UnassignDoctor(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req AssignmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.registry.Unassign(c.Request().Context(), actor, req.DoctorID, req.PatientID); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "doctor unassigned successfully"})
}

// AssignmentData godoc
// @Summary Unassigned patients and available doctors
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.AssignmentData
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/assignment-data [get]
func (h *AdminHandler) AssignmentData(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}

	data, err := h.registry.AssignmentData(c.Request().Context(), actor)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, data)
}

// AllRecords godoc
// @Summary Metadata and ciphertext of every record
// @Description Records are returned exactly as stored. No plaintext is ever produced here.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.AdminRecord
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/all-records [get]
func (h *AdminHandler) AllRecords(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}

	records, err := h.admin.AllRecords(c.Request().Context(), actor)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, records)
}

// AccessLogs godoc
// @Summary Recent record access decisions
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max entries (default 100, max 1000)"
// @Success 200 {array} model.AccessLog
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/access-logs [get]
func (h *AdminHandler) AccessLogs(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return badRequest("invalid limit", "INVALID_LIMIT")
		}
	}

	logs, err := h.admin.AccessLogs(c.Request().Context(), actor, limit)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, logs)
}
