package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"hospital-management-system/internal/delivery/dto"
	"hospital-management-system/internal/usecase"
	"hospital-management-system/pkg/response"
	"hospital-management-system/pkg/validator"

	"github.com/gorilla/mux"
)

type SlotHandler struct {
	slotUsecase usecase.SlotUsecase
	validator   *validator.CustomValidator
}

func NewSlotHandler(slotUsecase usecase.SlotUsecase, validator *validator.CustomValidator) *SlotHandler {
	return &SlotHandler{
		slotUsecase: slotUsecase,
		validator:   validator,
	}
}

// Generate bulk-creates a doctor's slots over a date range (admin only)
// @Summary Generate slots for a doctor
// @Tags Slots
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.GenerateSlotsRequest true "Generate Slots Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /slots/generate [post]
func (h *SlotHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	slots, err := h.slotUsecase.GenerateSlots(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrDoctorNotFound:
			response.NotFound(w, "Doctor not found")
		case usecase.ErrInvalidDate:
			response.BadRequest(w, "Invalid date format, use YYYY-MM-DD")
		case usecase.ErrInvalidSlotRange:
			response.BadRequest(w, "Range end must not be before range start")
		case usecase.ErrInvalidID:
			response.BadRequest(w, "Invalid doctor ID")
		default:
			response.InternalServerError(w, "Failed to generate slots")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Slots generated successfully", slots)
}

// Purge deletes slots that ended before the retention window (admin only)
// @Summary Purge old slots
// @Tags Slots
// @Security BearerAuth
// @Produce json
// @Param retention_days query int false "Retention window in days (default 90)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/slots/purge [delete]
func (h *SlotHandler) Purge(w http.ResponseWriter, r *http.Request) {
	retentionDays := 90
	if raw := r.URL.Query().Get("retention_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.BadRequest(w, "retention_days must be a positive integer")
			return
		}
		retentionDays = parsed
	}

	purged, err := h.slotUsecase.PurgePastSlots(r.Context(), time.Duration(retentionDays)*24*time.Hour)
	if err != nil {
		response.InternalServerError(w, "Failed to purge slots")
		return
	}

	response.Success(w, http.StatusOK, "Slots purged successfully", map[string]int64{"purged": purged})
}

// Available lists a doctor's free future slots
// @Summary List available slots for a doctor
// @Tags Slots
// @Security BearerAuth
// @Produce json
// @Param doctorId path string true "Doctor ID"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Success 200 {object} response.Response
// @Router /doctors/{doctorId}/slots [get]
func (h *SlotHandler) Available(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &dto.AvailableSlotsRequest{
		DoctorID: mux.Vars(r)["doctorId"],
		From:     query.Get("from"),
		To:       query.Get("to"),
	}

	if err := h.validator.Validate(req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	slots, err := h.slotUsecase.GetAvailableSlots(r.Context(), req)
	if err != nil {
		switch err {
		case usecase.ErrInvalidID:
			response.BadRequest(w, "Invalid doctor ID")
		case usecase.ErrInvalidDate:
			response.BadRequest(w, "Invalid date format, use RFC3339")
		default:
			response.InternalServerError(w, "Failed to list available slots")
		}
		return
	}

	response.Success(w, http.StatusOK, "Available slots retrieved", slots)
}
