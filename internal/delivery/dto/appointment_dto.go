package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type BookAppointmentRequest struct {
	PatientID       string `json:"patient_id" validate:"omitempty,uuid"` // admin only; patients book for themselves
	DoctorID        string `json:"doctor_id" validate:"required,uuid"`
	SlotID          string `json:"slot_id" validate:"omitempty,uuid"`
	AppointmentDate string `json:"appointment_date" validate:"omitempty"` // RFC3339; ignored when slot_id is set
	Type            string `json:"type" validate:"required,oneof=consultation follow_up emergency routine_checkup"`
	Reason          string `json:"reason" validate:"required,min=3"`
	Symptoms        string `json:"symptoms" validate:"omitempty"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=10,max=240"`
}

type RescheduleAppointmentRequest struct {
	NewSlotID string `json:"new_slot_id" validate:"required,uuid"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type CompleteAppointmentRequest struct {
	Diagnosis string `json:"diagnosis" validate:"required,min=3"`
	Treatment string `json:"treatment" validate:"omitempty"`
	Notes     string `json:"notes" validate:"omitempty"`
}

type AppointmentFilterRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=scheduled confirmed cancelled completed no_show"`
	Type   string `json:"type" validate:"omitempty,oneof=consultation follow_up emergency routine_checkup"`
	From   string `json:"from" validate:"omitempty"`
	To     string `json:"to" validate:"omitempty"`
}

// Response DTOs

type AppointmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	DoctorID        uuid.UUID  `json:"doctor_id"`
	SlotID          *uuid.UUID `json:"slot_id,omitempty"`
	AppointmentDate time.Time  `json:"appointment_date"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	Type            string     `json:"type"`
	Reason          string     `json:"reason"`
	Symptoms        string     `json:"symptoms,omitempty"`
	Diagnosis       string     `json:"diagnosis,omitempty"`
	Treatment       string     `json:"treatment,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	PatientName     string     `json:"patient_name,omitempty"`
	DoctorName      string     `json:"doctor_name,omitempty"`
	Specialization  string     `json:"specialization,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}
