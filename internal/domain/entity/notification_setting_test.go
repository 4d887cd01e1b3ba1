package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNotificationSettingCanSend(t *testing.T) {
	patientID := uuid.New()

	t.Run("defaults allow every known category", func(t *testing.T) {
		setting := DefaultNotificationSetting(patientID)

		for _, reminderType := range []ReminderType{
			ReminderType24h,
			ReminderType1h,
			ReminderTypeConfirmed,
			ReminderTypeCancelled,
			ReminderTypeRescheduled,
		} {
			assert.True(t, setting.CanSend(reminderType), "expected %s to be allowed by default", reminderType)
		}
	})

	t.Run("master switch suppresses everything", func(t *testing.T) {
		setting := DefaultNotificationSetting(patientID)
		setting.NotificationsEnabled = false

		for _, reminderType := range []ReminderType{
			ReminderType24h,
			ReminderType1h,
			ReminderTypeConfirmed,
			ReminderTypeCancelled,
			ReminderTypeRescheduled,
		} {
			assert.False(t, setting.CanSend(reminderType))
		}
	})

	t.Run("per-category flags are independent", func(t *testing.T) {
		setting := DefaultNotificationSetting(patientID)
		setting.Reminder24h = false
		setting.AppointmentCancelled = false

		assert.False(t, setting.CanSend(ReminderType24h))
		assert.False(t, setting.CanSend(ReminderTypeCancelled))
		assert.True(t, setting.CanSend(ReminderType1h))
		assert.True(t, setting.CanSend(ReminderTypeConfirmed))
		assert.True(t, setting.CanSend(ReminderTypeRescheduled))
	})

	t.Run("unknown category is never sent", func(t *testing.T) {
		setting := DefaultNotificationSetting(patientID)
		assert.False(t, setting.CanSend(ReminderType("MARKETING")))
	})
}
