package entity

import (
	"time"

	"github.com/google/uuid"
)

// Slot represents a fixed time interval during which a doctor can be booked.
// Slots are bulk-generated ahead of time and flipped between free and booked
// by the appointment lifecycle.
type Slot struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_slots_doctor_start" json:"doctor_id"`
	StartTime time.Time `gorm:"not null;uniqueIndex:idx_slots_doctor_start;index" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`
	IsBooked  bool      `gorm:"not null;default:false;index" json:"is_booked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Doctor DoctorProfile `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Slot) TableName() string {
	return "slots"
}

// IsPast checks whether the slot can no longer be booked
func (s *Slot) IsPast(now time.Time) bool {
	return !s.StartTime.After(now)
}
