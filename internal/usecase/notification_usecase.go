package usecase

import (
	"context"
	"errors"

	"hospital-management-system/internal/converter"
	"hospital-management-system/internal/delivery/dto"
	"hospital-management-system/internal/delivery/http/middleware"
	"hospital-management-system/internal/domain/entity"
	"hospital-management-system/internal/domain/repository"
	"hospital-management-system/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const notificationHistoryLimit = 100

type NotificationUsecase interface {
	GetMySettings(ctx context.Context) (*dto.NotificationSettingResponse, error)
	UpdateMySettings(ctx context.Context, req *dto.UpdateNotificationSettingRequest) (*dto.NotificationSettingResponse, error)
	GetMyNotifications(ctx context.Context) (*dto.NotificationListResponse, error)
}

type notificationUsecase struct {
	db          *gorm.DB
	log         *logrus.Logger
	settingRepo repository.NotificationSettingRepository
	logRepo     repository.NotificationLogRepository
	audit       service.AuditService
}

func NewNotificationUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	settingRepo repository.NotificationSettingRepository,
	logRepo repository.NotificationLogRepository,
	audit service.AuditService,
) NotificationUsecase {
	return &notificationUsecase{
		db:          db,
		log:         log,
		settingRepo: settingRepo,
		logRepo:     logRepo,
		audit:       audit,
	}
}

// GetMySettings returns the caller's notification preferences, creating the
// defaults-on row on first access.
func (u *notificationUsecase) GetMySettings(ctx context.Context) (*dto.NotificationSettingResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	setting, err := u.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return converter.NotificationSettingToResponse(setting), nil
}

// UpdateMySettings merges the provided fields into the caller's preferences
func (u *notificationUsecase) UpdateMySettings(ctx context.Context, req *dto.UpdateNotificationSettingRequest) (*dto.NotificationSettingResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	setting, err := u.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.NotificationsEnabled != nil {
		setting.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.Reminder24hEnabled != nil {
		setting.Reminder24h = *req.Reminder24hEnabled
	}
	if req.Reminder1hEnabled != nil {
		setting.Reminder1h = *req.Reminder1hEnabled
	}
	if req.ConfirmationEnabled != nil {
		setting.AppointmentConfirmed = *req.ConfirmationEnabled
	}
	if req.CancellationEnabled != nil {
		setting.AppointmentCancelled = *req.CancellationEnabled
	}
	if req.RescheduleEnabled != nil {
		setting.AppointmentRescheduled = *req.RescheduleEnabled
	}

	db := u.db.WithContext(ctx)
	if err := u.settingRepo.Update(db, setting); err != nil {
		u.log.Warnf("Failed to update notification settings for patient %s: %+v", userID, err)
		return nil, err
	}

	u.audit.Record(db, &userID, entity.AuditActionSettingsUpdate, nil)

	return converter.NotificationSettingToResponse(setting), nil
}

// GetMyNotifications returns the caller's recent notification history
func (u *notificationUsecase) GetMyNotifications(ctx context.Context) (*dto.NotificationListResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	logs, err := u.logRepo.FindByPatientID(u.db.WithContext(ctx), userID, notificationHistoryLimit)
	if err != nil {
		u.log.Warnf("Failed to list notifications for patient %s: %+v", userID, err)
		return nil, err
	}

	return &dto.NotificationListResponse{
		Notifications: converter.NotificationLogsToResponses(logs),
		Total:         len(logs),
	}, nil
}

func (u *notificationUsecase) getOrCreate(ctx context.Context, patientID uuid.UUID) (*entity.NotificationSetting, error) {
	db := u.db.WithContext(ctx)

	setting, err := u.settingRepo.FindByPatientID(db, patientID)
	if err != nil {
		u.log.Warnf("Failed to find notification settings for patient %s: %+v", patientID, err)
		return nil, err
	}
	if setting != nil {
		return setting, nil
	}

	setting = entity.DefaultNotificationSetting(patientID)
	if err := u.settingRepo.Create(db, setting); err != nil {
		u.log.Warnf("Failed to create default notification settings for patient %s: %+v", patientID, err)
		return nil, err
	}
	return setting, nil
}
