package handler

import (
	"encoding/json"
	"net/http"

	"hospital-management-system/internal/delivery/dto"
	"hospital-management-system/internal/usecase"
	"hospital-management-system/pkg/response"
	"hospital-management-system/pkg/validator"
)

type NotificationHandler struct {
	notificationUsecase usecase.NotificationUsecase
	validator           *validator.CustomValidator
}

func NewNotificationHandler(notificationUsecase usecase.NotificationUsecase, validator *validator.CustomValidator) *NotificationHandler {
	return &NotificationHandler{
		notificationUsecase: notificationUsecase,
		validator:           validator,
	}
}

// GetSettings returns the caller's notification preferences
// @Summary Get my notification settings
// @Tags Notifications
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /notifications/settings [get]
func (h *NotificationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.notificationUsecase.GetMySettings(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get notification settings")
		return
	}

	response.Success(w, http.StatusOK, "Notification settings retrieved", settings)
}

// UpdateSettings merges partial preference changes
// @Summary Update my notification settings
// @Tags Notifications
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.UpdateNotificationSettingRequest true "Update Settings Request"
// @Success 200 {object} response.Response
// @Router /notifications/settings [put]
func (h *NotificationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateNotificationSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	settings, err := h.notificationUsecase.UpdateMySettings(r.Context(), &req)
	if err != nil {
		response.InternalServerError(w, "Failed to update notification settings")
		return
	}

	response.Success(w, http.StatusOK, "Notification settings updated", settings)
}

// History returns the caller's recent notifications
// @Summary List my notifications
// @Tags Notifications
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /notifications [get]
func (h *NotificationHandler) History(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.notificationUsecase.GetMyNotifications(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to list notifications")
		return
	}

	response.Success(w, http.StatusOK, "Notifications retrieved", notifications)
}
