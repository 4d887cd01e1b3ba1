package handler

import (
	"net/http"
	"strconv"

	"hospital-management-system/internal/delivery/dto"
	"hospital-management-system/internal/usecase"
	"hospital-management-system/pkg/response"
	"hospital-management-system/pkg/validator"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
	validator       *validator.CustomValidator
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase, validator *validator.CustomValidator) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
		validator:       validator,
	}
}

// List returns audit trail entries (admin only)
// @Summary List audit logs
// @Tags Audit
// @Security BearerAuth
// @Produce json
// @Param user_id query string false "Filter by user ID"
// @Param action query string false "Filter by action"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Response
// @Router /audit-logs [get]
func (h *AuditLogHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	req := &dto.AuditLogFilterRequest{
		UserID: query.Get("user_id"),
		Action: query.Get("action"),
		Limit:  limit,
		Offset: offset,
	}

	if err := h.validator.Validate(req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	logs, err := h.auditLogUsecase.List(r.Context(), req)
	if err != nil {
		switch err {
		case usecase.ErrInvalidID:
			response.BadRequest(w, "Invalid user ID")
		default:
			response.InternalServerError(w, "Failed to list audit logs")
		}
		return
	}

	response.Success(w, http.StatusOK, "Audit logs retrieved", logs)
}
