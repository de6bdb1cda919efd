package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"dsas/internal/service"
)

// DoctorHandler serves doctors their assigned patients and decrypted records.
type DoctorHandler struct {
	doctors service.DoctorService
	records service.RecordService
}

// NewDoctorHandler creates a new doctor handler.
func NewDoctorHandler(doctors service.DoctorService, records service.RecordService) *DoctorHandler {
	return &DoctorHandler{doctors: doctors, records: records}
}

// AssignedPatients godoc
// @Summary Patients assigned to the caller
// @Tags doctor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UsersResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /doctor/assigned-patients [get]
func (h *DoctorHandler) AssignedPatients(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	patients, err := h.doctors.AssignedPatients(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, UsersResponse{Users: patients})
}

// SearchPatients godoc
// @Summary Search the caller's patients
// @Tags doctor
// @Produce json
// @Security BearerAuth
// @Param query query string false "Name, email or username fragment"
// @Success 200 {object} UsersResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /doctor/search-patients [get]
func (h *DoctorHandler) SearchPatients(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	patients, err := h.doctors.SearchPatients(c.Request().Context(), id, c.QueryParam("query"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, UsersResponse{Users: patients})
}

// PatientRecords godoc
// @Summary Decrypted records of an assigned patient
// @Tags doctor
// @Produce json
// @Security BearerAuth
// @Param patientId path string true "Patient ID"
// @Success 200 {array} model.DecryptedRecord
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /doctor/patients/{patientId}/records [get]
func (h *DoctorHandler) PatientRecords(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	patientID, err := uuidParam(c, "patientId")
	if err != nil {
		return err
	}

	records, err := h.records.PatientRecords(c.Request().Context(), id, patientID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, records)
}

// Record godoc
// @Summary One decrypted record
// @Tags doctor
// @Produce json
// @Security BearerAuth
// @Param recordId path string true "Record ID"
// @Success 200 {object} model.DecryptedRecord
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /doctor/record/{recordId} [get]
func (h *DoctorHandler) Record(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	recordID, err := uuidParam(c, "recordId")
	if err != nil {
		return err
	}

	record, err := h.records.RecordForDoctor(c.Request().Context(), id, recordID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, record)
}
