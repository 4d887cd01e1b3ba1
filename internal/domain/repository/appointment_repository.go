package repository

import (
	"time"

	"hospital-management-system/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	Update(db *gorm.DB, appointment *entity.Appointment) error
	// UpdateStatus transitions the appointment only when its current status is
	// one of from. Returns affected rows so callers can detect lost races.
	UpdateStatus(db *gorm.DB, id uuid.UUID, from []entity.AppointmentStatus, to entity.AppointmentStatus) (int64, error)
	// Cancel transitions to cancelled and appends the reason to notes in a
	// single conditional update.
	Cancel(db *gorm.DB, id uuid.UUID, reason string) (int64, error)
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindByPatientID(db *gorm.DB, patientID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error)
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error)
	FindAll(db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, error)
	FindInTimeWindow(db *gorm.DB, from, to time.Time, statuses []entity.AppointmentStatus) ([]entity.Appointment, error)
}
