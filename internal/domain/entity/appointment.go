package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// AppointmentType represents the kind of visit
type AppointmentType string

const (
	AppointmentTypeConsultation   AppointmentType = "consultation"
	AppointmentTypeFollowUp       AppointmentType = "follow_up"
	AppointmentTypeEmergency      AppointmentType = "emergency"
	AppointmentTypeRoutineCheckup AppointmentType = "routine_checkup"
)

// appointmentTransitions encodes the allowed status transitions.
// cancelled, completed and no_show are terminal.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled: {
		AppointmentStatusConfirmed,
		AppointmentStatusCancelled,
		AppointmentStatusCompleted,
		AppointmentStatusNoShow,
	},
	AppointmentStatusConfirmed: {
		AppointmentStatusCancelled,
		AppointmentStatusCompleted,
		AppointmentStatusNoShow,
	},
}

// IsTerminal reports whether no further transitions are allowed from s
func (s AppointmentStatus) IsTerminal() bool {
	return len(appointmentTransitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to target is a legal transition
func (s AppointmentStatus) CanTransitionTo(target AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsValidAppointmentType checks a request-supplied visit type
func IsValidAppointmentType(t AppointmentType) bool {
	switch t {
	case AppointmentTypeConsultation, AppointmentTypeFollowUp, AppointmentTypeEmergency, AppointmentTypeRoutineCheckup:
		return true
	}
	return false
}

// Appointment represents a patient visit with a doctor.
// SlotID is an explicit reference to the booked slot so cancel/reschedule can
// release exactly the slot that was booked.
type Appointment struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	SlotID          *uuid.UUID        `gorm:"type:uuid;index" json:"slot_id,omitempty"`
	AppointmentDate time.Time         `gorm:"not null;index" json:"appointment_date"`
	DurationMinutes int               `gorm:"not null;default:30" json:"duration_minutes"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Type            AppointmentType   `gorm:"type:varchar(20);not null" json:"type"`
	Reason          string            `gorm:"type:text;not null" json:"reason"`
	Symptoms        string            `gorm:"type:text" json:"symptoms,omitempty"`
	Diagnosis       string            `gorm:"type:text" json:"diagnosis,omitempty"`
	Treatment       string            `gorm:"type:text" json:"treatment,omitempty"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient PatientProfile `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  DoctorProfile  `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Slot    *Slot          `gorm:"foreignKey:SlotID" json:"slot,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsScheduled checks if the appointment has not been confirmed or closed yet
func (a *Appointment) IsScheduled() bool {
	return a.Status == AppointmentStatusScheduled
}

// IsCancelled checks if the appointment was cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// IsCompleted checks if the appointment was completed
func (a *Appointment) IsCompleted() bool {
	return a.Status == AppointmentStatusCompleted
}

// AppointmentFilter is a domain-level filter for querying appointments.
// Used by repository layer to avoid coupling with delivery DTOs.
type AppointmentFilter struct {
	Status AppointmentStatus
	Type   AppointmentType
	From   *time.Time
	To     *time.Time
}
