package dto

import (
	"time"

	"github.com/google/uuid"
)

type AuditLogFilterRequest struct {
	UserID string `json:"user_id,omitempty" validate:"omitempty,uuid"`
	Action string `json:"action,omitempty"`
	Limit  int    `json:"limit,omitempty" validate:"omitempty,min=1,max=200"`
	Offset int    `json:"offset,omitempty" validate:"omitempty,min=0"`
}

type AuditLogResponse struct {
	ID        int64                  `json:"id"`
	UserID    *uuid.UUID             `json:"user_id,omitempty"`
	Action    string                 `json:"action"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int                `json:"total"`
}
