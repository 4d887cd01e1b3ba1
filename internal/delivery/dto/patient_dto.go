package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type UpdatePatientRequest struct {
	FullName    string `json:"full_name" validate:"omitempty,min=2"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,min=10,max=20"`
	Address     string `json:"address" validate:"omitempty"`
}

// Response DTOs

type PatientProfileResponse struct {
	UserID              uuid.UUID `json:"user_id"`
	MedicalRecordNumber string    `json:"medical_record_number"`
	PhoneNumber         string    `json:"phone_number,omitempty"`
	DateOfBirth         string    `json:"date_of_birth"`
	Gender              string    `json:"gender"`
	Address             string    `json:"address,omitempty"`
}

type PatientResponse struct {
	ID                  uuid.UUID `json:"id"`
	Email               string    `json:"email"`
	FullName            string    `json:"full_name"`
	MedicalRecordNumber string    `json:"medical_record_number"`
	PhoneNumber         string    `json:"phone_number,omitempty"`
	DateOfBirth         string    `json:"date_of_birth"`
	Gender              string    `json:"gender"`
	Address             string    `json:"address,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type PatientListResponse struct {
	Patients []PatientResponse `json:"patients"`
	Total    int               `json:"total"`
}
