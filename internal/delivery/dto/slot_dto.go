package dto

import (
	"time"

	"github.com/google/uuid"
)

type GenerateSlotsRequest struct {
	DoctorID string `json:"doctor_id" validate:"required,uuid"`
	From     string `json:"from" validate:"required"`
	To       string `json:"to" validate:"required"`
}

type AvailableSlotsRequest struct {
	DoctorID string `json:"doctor_id" validate:"required,uuid"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
}

type SlotResponse struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	IsBooked  bool      `json:"is_booked"`
}

type SlotListResponse struct {
	Slots []SlotResponse `json:"slots"`
	Total int            `json:"total"`
}
