package handler

import (
	"encoding/json"
	"net/http"

	"hospital-management-system/internal/delivery/dto"
	"hospital-management-system/internal/usecase"
	"hospital-management-system/pkg/response"
	"hospital-management-system/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

// Book creates a new appointment
// @Summary Book an appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.BookAppointmentRequest true "Book Appointment Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments [post]
func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req dto.BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.Book(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to book appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment booked successfully", appointment)
}

// List returns appointments visible to the caller
// @Summary List appointments
// @Tags Appointments
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /appointments [get]
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &dto.AppointmentFilterRequest{
		Status: query.Get("status"),
		Type:   query.Get("type"),
		From:   query.Get("from"),
		To:     query.Get("to"),
	}

	if err := h.validator.Validate(req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointments, err := h.appointmentUsecase.List(r.Context(), req)
	if err != nil {
		h.writeError(w, err, "Failed to list appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved", appointments)
}

// Get returns a single appointment
// @Summary Get appointment by ID
// @Tags Appointments
// @Security BearerAuth
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.GetByID(r.Context(), appointmentID)
	if err != nil {
		h.writeError(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved", appointment)
}

// Confirm transitions a scheduled appointment to confirmed
// @Summary Confirm an appointment
// @Tags Appointments
// @Security BearerAuth
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments/{id}/confirm [post]
func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.Confirm(r.Context(), appointmentID)
	if err != nil {
		h.writeError(w, err, "Failed to confirm appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment confirmed", appointment)
}

// Reschedule moves an appointment to a new slot
// @Summary Reschedule an appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body dto.RescheduleAppointmentRequest true "Reschedule Request"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments/{id}/reschedule [post]
func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req dto.RescheduleAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.Reschedule(r.Context(), appointmentID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to reschedule appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment rescheduled", appointment)
}

// Cancel cancels an appointment with a reason
// @Summary Cancel an appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body dto.CancelAppointmentRequest true "Cancel Request"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req dto.CancelAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.Cancel(r.Context(), appointmentID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to cancel appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment cancelled", appointment)
}

// Complete closes the visit with the doctor's findings
// @Summary Complete an appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body dto.CompleteAppointmentRequest true "Complete Request"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments/{id}/complete [post]
func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req dto.CompleteAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.Complete(r.Context(), appointmentID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to complete appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment completed", appointment)
}

// NoShow flags a patient who never arrived
// @Summary Mark an appointment as no-show
// @Tags Appointments
// @Security BearerAuth
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments/{id}/no-show [post]
func (h *AppointmentHandler) NoShow(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.MarkNoShow(r.Context(), appointmentID)
	if err != nil {
		h.writeError(w, err, "Failed to mark appointment as no-show")
		return
	}

	response.Success(w, http.StatusOK, "Appointment marked as no-show", appointment)
}

func (h *AppointmentHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid appointment ID")
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps usecase sentinel errors onto HTTP statuses
func (h *AppointmentHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch err {
	case usecase.ErrAppointmentNotFound:
		response.NotFound(w, "Appointment not found")
	case usecase.ErrPatientNotFound:
		response.NotFound(w, "Patient not found")
	case usecase.ErrDoctorNotFound:
		response.NotFound(w, "Doctor not found")
	case usecase.ErrSlotNotFound:
		response.NotFound(w, "Slot not found")
	case usecase.ErrSlotAlreadyBooked:
		response.Conflict(w, "Slot is already booked")
	case usecase.ErrAlreadyCancelled:
		response.Conflict(w, "Appointment is already cancelled")
	case usecase.ErrInvalidTransition:
		response.Conflict(w, "Appointment status does not allow this operation")
	case usecase.ErrSlotInPast, usecase.ErrPastAppointmentTime:
		response.BadRequest(w, "Appointment time must be in the future")
	case usecase.ErrSlotWrongDoctor:
		response.BadRequest(w, "Slot belongs to a different doctor")
	case usecase.ErrAppointmentNotStarted:
		response.BadRequest(w, "Appointment time has not passed yet")
	case usecase.ErrAppointmentNotOwned:
		response.Forbidden(w, "You do not have access to this appointment")
	case usecase.ErrInvalidID:
		response.BadRequest(w, "Invalid identifier")
	case usecase.ErrInvalidDate:
		response.BadRequest(w, "Invalid date format, use RFC3339")
	default:
		response.InternalServerError(w, fallback)
	}
}
