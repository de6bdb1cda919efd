package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"dsas/internal/model"
	"dsas/internal/service"
)

// PatientHandler serves a patient's own records.
type PatientHandler struct {
	records service.RecordService
}

// NewPatientHandler creates a new patient handler.
func NewPatientHandler(records service.RecordService) *PatientHandler {
	return &PatientHandler{records: records}
}

// UploadRequest is a JSON document to encrypt and store.
type UploadRequest struct {
	DataType string         `json:"data_type" validate:"required"`
	Data     map[string]any `json:"data" validate:"required"`
	FileName string         `json:"file_name"`
	FileSize int64          `json:"file_size"`
}

// UploadResponse acknowledges a stored record.
type UploadResponse struct {
	Message string                `json:"message"`
	Record  *model.RecordMetadata `json:"record"`
}

// DoctorResponse wraps the assigned doctor, null when there is none.
type DoctorResponse struct {
	Doctor *model.User `json:"doctor"`
}

// Upload godoc
// @Summary Upload a health record
// @Description The document is encrypted before it is stored.
// @Tags patient
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UploadRequest true "Record"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /patient/upload [post]
func (h *PatientHandler) Upload(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req UploadRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	meta, err := h.records.Upload(c.Request().Context(), id, service.UploadInput{
		DataType: req.DataType,
		Document: req.Data,
		FileName: req.FileName,
		FileSize: req.FileSize,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, UploadResponse{Message: "record uploaded successfully", Record: meta})
}

// Records godoc
// @Summary List own records
// @Tags patient
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.RecordMetadata
// @Failure 403 {object} errors.ErrorResponse
// @Router /patient/records [get]
func (h *PatientHandler) Records(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	records, err := h.records.OwnRecords(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, records)
}

// Record godoc
// @Summary Get one own record as stored
// @Tags patient
// @Produce json
// @Security BearerAuth
// @Param recordId path string true "Record ID"
// @Success 200 {object} model.HealthRecord
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /patient/records/{recordId} [get]
func (h *PatientHandler) Record(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	recordID, err := uuidParam(c, "recordId")
	if err != nil {
		return err
	}

	record, err := h.records.OwnRecord(c.Request().Context(), id, recordID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, record)
}

// MyDoctor godoc
// @Summary Assigned doctor
// @Tags patient
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DoctorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /patient/my-doctor [get]
func (h *PatientHandler) MyDoctor(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	doctor, err := h.records.MyDoctor(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, DoctorResponse{Doctor: doctor})
}
