package repository

import (
	"time"

	"hospital-management-system/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationSettingRepository interface {
	FindByPatientID(db *gorm.DB, patientID uuid.UUID) (*entity.NotificationSetting, error)
	Create(db *gorm.DB, setting *entity.NotificationSetting) error
	Update(db *gorm.DB, setting *entity.NotificationSetting) error
}

type NotificationLogRepository interface {
	Create(db *gorm.DB, row *entity.NotificationLog) error
	// FindDue returns up to limit pending rows whose scheduled_for has passed,
	// oldest first.
	FindDue(db *gorm.DB, now time.Time, limit int) ([]entity.NotificationLog, error)
	FindByPatientID(db *gorm.DB, patientID uuid.UUID, limit int) ([]entity.NotificationLog, error)
	FindByAppointmentID(db *gorm.DB, appointmentID uuid.UUID) ([]entity.NotificationLog, error)
	// MarkSent flips a pending row to sent. Returns affected rows: 0 means the
	// row was already resolved by another sweep.
	MarkSent(db *gorm.DB, id uuid.UUID) (int64, error)
	MarkFailed(db *gorm.DB, id uuid.UUID, reason string) error
	DeletePendingByAppointment(db *gorm.DB, appointmentID uuid.UUID) (int64, error)
}
