package dto

import (
	"time"

	"github.com/google/uuid"
)

// UpdateNotificationSettingRequest uses pointers so a partial update only
// touches the fields the client actually sent.
type UpdateNotificationSettingRequest struct {
	NotificationsEnabled *bool `json:"notifications_enabled,omitempty"`
	Reminder24hEnabled   *bool `json:"reminder_24h_enabled,omitempty"`
	Reminder1hEnabled    *bool `json:"reminder_1h_enabled,omitempty"`
	ConfirmationEnabled  *bool `json:"confirmation_enabled,omitempty"`
	CancellationEnabled  *bool `json:"cancellation_enabled,omitempty"`
	RescheduleEnabled    *bool `json:"reschedule_enabled,omitempty"`
}

type NotificationSettingResponse struct {
	PatientID            uuid.UUID `json:"patient_id"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	Reminder24hEnabled   bool      `json:"reminder_24h_enabled"`
	Reminder1hEnabled    bool      `json:"reminder_1h_enabled"`
	ConfirmationEnabled  bool      `json:"confirmation_enabled"`
	CancellationEnabled  bool      `json:"cancellation_enabled"`
	RescheduleEnabled    bool      `json:"reschedule_enabled"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type NotificationLogResponse struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	ReminderType  string    `json:"reminder_type"`
	Status        string    `json:"status"`
	ScheduledFor  time.Time `json:"scheduled_for"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []NotificationLogResponse `json:"notifications"`
	Total         int                       `json:"total"`
}
