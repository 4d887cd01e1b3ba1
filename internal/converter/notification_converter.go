package converter

import (
	"hospital-management-system/internal/delivery/dto"
	"hospital-management-system/internal/domain/entity"
)

// NotificationSettingToResponse converts a NotificationSetting entity to its DTO
func NotificationSettingToResponse(setting *entity.NotificationSetting) *dto.NotificationSettingResponse {
	if setting == nil {
		return nil
	}

	return &dto.NotificationSettingResponse{
		PatientID:            setting.PatientID,
		NotificationsEnabled: setting.NotificationsEnabled,
		Reminder24hEnabled:   setting.Reminder24h,
		Reminder1hEnabled:    setting.Reminder1h,
		ConfirmationEnabled:  setting.AppointmentConfirmed,
		CancellationEnabled:  setting.AppointmentCancelled,
		RescheduleEnabled:    setting.AppointmentRescheduled,
		UpdatedAt:            setting.UpdatedAt,
	}
}

// NotificationLogToResponse converts a NotificationLog entity to its DTO
func NotificationLogToResponse(log *entity.NotificationLog) *dto.NotificationLogResponse {
	if log == nil {
		return nil
	}

	return &dto.NotificationLogResponse{
		ID:            log.ID,
		AppointmentID: log.AppointmentID,
		PatientID:     log.PatientID,
		ReminderType:  string(log.ReminderType),
		Status:        string(log.Status),
		ScheduledFor:  log.ScheduledFor,
		Title:         log.Title,
		Body:          log.Body,
		FailureReason: log.FailureReason,
		CreatedAt:     log.CreatedAt,
	}
}

// NotificationLogsToResponses converts a slice of NotificationLog entities to slice of DTOs
func NotificationLogsToResponses(logs []entity.NotificationLog) []dto.NotificationLogResponse {
	responses := make([]dto.NotificationLogResponse, len(logs))
	for i, log := range logs {
		resp := NotificationLogToResponse(&log)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
