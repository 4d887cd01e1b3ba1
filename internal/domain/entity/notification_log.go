package entity

import (
	"time"

	"github.com/google/uuid"
)

// ReminderType classifies a scheduled or immediate notification
type ReminderType string

const (
	ReminderType24h         ReminderType = "REMINDER_24H"
	ReminderType1h          ReminderType = "REMINDER_1H"
	ReminderTypeConfirmed   ReminderType = "CONFIRMED"
	ReminderTypeCancelled   ReminderType = "CANCELLED"
	ReminderTypeRescheduled ReminderType = "RESCHEDULED"
)

// NotificationStatus represents the delivery state of a ledger row
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// NotificationLog is one scheduled-or-sent reminder instance tied to one
// appointment. Pending rows are picked up by the sweep; a failed row stays
// failed until external intervention.
type NotificationLog struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AppointmentID uuid.UUID          `gorm:"type:uuid;not null;index" json:"appointment_id"`
	PatientID     uuid.UUID          `gorm:"type:uuid;not null;index" json:"patient_id"`
	ReminderType  ReminderType       `gorm:"type:varchar(20);not null" json:"reminder_type"`
	ScheduledFor  time.Time          `gorm:"not null;index" json:"scheduled_for"`
	Status        NotificationStatus `gorm:"type:varchar(10);not null;default:'pending';index" json:"status"`
	Title         string             `gorm:"type:varchar(255);not null" json:"title"`
	Body          string             `gorm:"type:text;not null" json:"body"`
	FailureReason string             `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (NotificationLog) TableName() string {
	return "notification_logs"
}

// IsPending checks if the row is still awaiting dispatch
func (n *NotificationLog) IsPending() bool {
	return n.Status == NotificationStatusPending
}
