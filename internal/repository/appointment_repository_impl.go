package repository

import (
	"errors"
	"time"

	"hospital-management-system/internal/domain/entity"
	domainRepo "hospital-management-system/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Create(appointment).Error
}

func (r *appointmentRepository) Update(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Omit("Patient", "Doctor", "Slot").Save(appointment).Error
}

// UpdateStatus performs the transition as one conditional statement so a
// concurrent transition on the same appointment loses cleanly (0 rows).
func (r *appointmentRepository) UpdateStatus(db *gorm.DB, id uuid.UUID, from []entity.AppointmentStatus, to entity.AppointmentStatus) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) Cancel(db *gorm.DB, id uuid.UUID, reason string) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status IN ?", id,
			[]entity.AppointmentStatus{entity.AppointmentStatusScheduled, entity.AppointmentStatusConfirmed}).
		Updates(map[string]interface{}{
			"status": entity.AppointmentStatusCancelled,
			"notes":  gorm.Expr("TRIM(COALESCE(notes, '') || ?)", "\nCancellation reason: "+reason),
		})
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Preload("Patient.User").Preload("Doctor.User").Preload("Slot").
		Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindByPatientID(db *gorm.DB, patientID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	return r.find(db.Where("patient_id = ?", patientID), filter)
}

func (r *appointmentRepository) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	return r.find(db.Where("doctor_id = ?", doctorID), filter)
}

func (r *appointmentRepository) FindAll(db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	return r.find(db, filter)
}

func (r *appointmentRepository) find(query *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	if filter != nil {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.Type != "" {
			query = query.Where("type = ?", filter.Type)
		}
		if filter.From != nil {
			query = query.Where("appointment_date >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("appointment_date < ?", *filter.To)
		}
	}

	var appointments []entity.Appointment
	err := query.Preload("Patient.User").Preload("Doctor.User").
		Order("appointment_date DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindInTimeWindow(db *gorm.DB, from, to time.Time, statuses []entity.AppointmentStatus) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where("appointment_date >= ? AND appointment_date < ? AND status IN ?", from, to, statuses).
		Order("appointment_date ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}
