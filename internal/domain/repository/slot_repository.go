package repository

import (
	"time"

	"hospital-management-system/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SlotRepository interface {
	CreateBatch(db *gorm.DB, slots []entity.Slot) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Slot, error)
	FindAvailable(db *gorm.DB, doctorID uuid.UUID, from, to time.Time) ([]entity.Slot, error)
	// Book atomically flips a free future slot to booked.
	// Returns affected rows: 1 = booked, 0 = missing, already booked or in the past.
	Book(db *gorm.DB, id uuid.UUID, now time.Time) (int64, error)
	// Release atomically flips a booked slot back to free.
	Release(db *gorm.DB, id uuid.UUID) (int64, error)
	DeleteUnbookedInRange(db *gorm.DB, doctorID uuid.UUID, from, to time.Time) (int64, error)
	PurgeBefore(db *gorm.DB, cutoff time.Time) (int64, error)
}
