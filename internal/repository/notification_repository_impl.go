package repository

import (
	"errors"
	"time"

	"hospital-management-system/internal/domain/entity"
	domainRepo "hospital-management-system/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type notificationSettingRepository struct{}

func NewNotificationSettingRepository() domainRepo.NotificationSettingRepository {
	return &notificationSettingRepository{}
}

func (r *notificationSettingRepository) FindByPatientID(db *gorm.DB, patientID uuid.UUID) (*entity.NotificationSetting, error) {
	var setting entity.NotificationSetting
	err := db.Where("patient_id = ?", patientID).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

func (r *notificationSettingRepository) Create(db *gorm.DB, setting *entity.NotificationSetting) error {
	return db.Create(setting).Error
}

func (r *notificationSettingRepository) Update(db *gorm.DB, setting *entity.NotificationSetting) error {
	return db.Omit("Patient").Save(setting).Error
}

type notificationLogRepository struct{}

func NewNotificationLogRepository() domainRepo.NotificationLogRepository {
	return &notificationLogRepository{}
}

func (r *notificationLogRepository) Create(db *gorm.DB, row *entity.NotificationLog) error {
	return db.Create(row).Error
}

func (r *notificationLogRepository) FindDue(db *gorm.DB, now time.Time, limit int) ([]entity.NotificationLog, error) {
	var rows []entity.NotificationLog
	err := db.Where("status = ? AND scheduled_for <= ?", entity.NotificationStatusPending, now).
		Order("scheduled_for ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *notificationLogRepository) FindByPatientID(db *gorm.DB, patientID uuid.UUID, limit int) ([]entity.NotificationLog, error) {
	var rows []entity.NotificationLog
	err := db.Where("patient_id = ?", patientID).
		Order("scheduled_for DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *notificationLogRepository) FindByAppointmentID(db *gorm.DB, appointmentID uuid.UUID) ([]entity.NotificationLog, error) {
	var rows []entity.NotificationLog
	err := db.Where("appointment_id = ?", appointmentID).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkSent only succeeds on a row that is still pending, so a row claimed by
// two overlapping sweeps is dispatched at most once per status flip.
func (r *notificationLogRepository) MarkSent(db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.Model(&entity.NotificationLog{}).
		Where("id = ? AND status = ?", id, entity.NotificationStatusPending).
		Update("status", entity.NotificationStatusSent)
	return result.RowsAffected, result.Error
}

func (r *notificationLogRepository) MarkFailed(db *gorm.DB, id uuid.UUID, reason string) error {
	return db.Model(&entity.NotificationLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         entity.NotificationStatusFailed,
			"failure_reason": reason,
		}).Error
}

func (r *notificationLogRepository) DeletePendingByAppointment(db *gorm.DB, appointmentID uuid.UUID) (int64, error) {
	result := db.Where("appointment_id = ? AND status = ?", appointmentID, entity.NotificationStatusPending).
		Delete(&entity.NotificationLog{})
	return result.RowsAffected, result.Error
}
