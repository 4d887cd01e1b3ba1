package usecase

import (
	"context"

	"hospital-management-system/internal/converter"
	"hospital-management-system/internal/delivery/dto"
	"hospital-management-system/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultAuditLogLimit = 50

type AuditLogUsecase interface {
	List(ctx context.Context, req *dto.AuditLogFilterRequest) (*dto.AuditLogListResponse, error)
}

type auditLogUsecase struct {
	db        *gorm.DB
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(db *gorm.DB, log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditLogUsecase {
	return &auditLogUsecase{
		db:        db,
		log:       log,
		auditRepo: auditRepo,
	}
}

// List returns audit trail entries, newest first. Admin only (enforced at the route).
func (u *auditLogUsecase) List(ctx context.Context, req *dto.AuditLogFilterRequest) (*dto.AuditLogListResponse, error) {
	var userID *uuid.UUID
	action := ""
	limit := defaultAuditLogLimit
	offset := 0

	if req != nil {
		if req.UserID != "" {
			parsed, err := uuid.Parse(req.UserID)
			if err != nil {
				return nil, ErrInvalidID
			}
			userID = &parsed
		}
		action = req.Action
		if req.Limit > 0 {
			limit = req.Limit
		}
		if req.Offset > 0 {
			offset = req.Offset
		}
	}

	logs, err := u.auditRepo.FindAll(u.db.WithContext(ctx), userID, action, limit, offset)
	if err != nil {
		u.log.Warnf("Failed to list audit logs: %+v", err)
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: len(logs),
	}, nil
}
