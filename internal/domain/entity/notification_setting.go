package entity

import (
	"time"

	"github.com/google/uuid"
)

// NotificationSetting holds per-patient opt-in flags per reminder category.
// Rows are lazily created with everything enabled on first access.
type NotificationSetting struct {
	PatientID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"patient_id"`
	NotificationsEnabled   bool      `gorm:"not null;default:true" json:"notifications_enabled"`
	Reminder24h            bool      `gorm:"column:reminder_24h;not null;default:true" json:"reminder_24h"`
	Reminder1h             bool      `gorm:"column:reminder_1h;not null;default:true" json:"reminder_1h"`
	AppointmentConfirmed   bool      `gorm:"not null;default:true" json:"appointment_confirmed"`
	AppointmentCancelled   bool      `gorm:"not null;default:true" json:"appointment_cancelled"`
	AppointmentRescheduled bool      `gorm:"not null;default:true" json:"appointment_rescheduled"`
	CreatedAt              time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient PatientProfile `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
}

func (NotificationSetting) TableName() string {
	return "notification_settings"
}

// DefaultNotificationSetting returns the defaults-on settings created when a
// patient is seen for the first time.
func DefaultNotificationSetting(patientID uuid.UUID) *NotificationSetting {
	return &NotificationSetting{
		PatientID:              patientID,
		NotificationsEnabled:   true,
		Reminder24h:            true,
		Reminder1h:             true,
		AppointmentConfirmed:   true,
		AppointmentCancelled:   true,
		AppointmentRescheduled: true,
	}
}

// CanSend reports whether a notification of the given category may be
// delivered to this patient. The master switch wins; unknown categories are
// never sent.
func (s *NotificationSetting) CanSend(t ReminderType) bool {
	if !s.NotificationsEnabled {
		return false
	}
	switch t {
	case ReminderType24h:
		return s.Reminder24h
	case ReminderType1h:
		return s.Reminder1h
	case ReminderTypeConfirmed:
		return s.AppointmentConfirmed
	case ReminderTypeCancelled:
		return s.AppointmentCancelled
	case ReminderTypeRescheduled:
		return s.AppointmentRescheduled
	}
	return false
}
