package repository

import (
	"errors"
	"time"

	"hospital-management-system/internal/domain/entity"
	domainRepo "hospital-management-system/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type slotRepository struct{}

func NewSlotRepository() domainRepo.SlotRepository {
	return &slotRepository{}
}

func (r *slotRepository) CreateBatch(db *gorm.DB, slots []entity.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	return db.CreateInBatches(slots, 200).Error
}

func (r *slotRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Slot, error) {
	var slot entity.Slot
	err := db.Where("id = ?", id).First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) FindAvailable(db *gorm.DB, doctorID uuid.UUID, from, to time.Time) ([]entity.Slot, error) {
	var slots []entity.Slot
	err := db.Where("doctor_id = ? AND is_booked = ? AND start_time >= ? AND start_time < ?",
		doctorID, false, from, to).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// Book is a single conditional update so two concurrent bookings for the same
// slot can never both succeed. Callers classify a zero row count by re-reading
// the slot.
func (r *slotRepository) Book(db *gorm.DB, id uuid.UUID, now time.Time) (int64, error) {
	result := db.Model(&entity.Slot{}).
		Where("id = ? AND is_booked = ? AND start_time > ?", id, false, now).
		Update("is_booked", true)
	return result.RowsAffected, result.Error
}

func (r *slotRepository) Release(db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.Model(&entity.Slot{}).
		Where("id = ? AND is_booked = ?", id, true).
		Update("is_booked", false)
	return result.RowsAffected, result.Error
}

func (r *slotRepository) DeleteUnbookedInRange(db *gorm.DB, doctorID uuid.UUID, from, to time.Time) (int64, error) {
	result := db.Where("doctor_id = ? AND is_booked = ? AND start_time >= ? AND start_time < ?",
		doctorID, false, from, to).
		Delete(&entity.Slot{})
	return result.RowsAffected, result.Error
}

func (r *slotRepository) PurgeBefore(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("end_time < ?", cutoff).Delete(&entity.Slot{})
	return result.RowsAffected, result.Error
}
