package handler

import (
	"encoding/json"
	"net/http"

	"hospital-management-system/internal/delivery/dto"
	"hospital-management-system/internal/service"
	"hospital-management-system/pkg/response"
	"hospital-management-system/pkg/validator"
)

// ChatHandler exposes the rule-based assistant: classify the message intent
// and answer with a scripted reply.
type ChatHandler struct {
	validator *validator.CustomValidator
}

func NewChatHandler(validator *validator.CustomValidator) *ChatHandler {
	return &ChatHandler{validator: validator}
}

// Message classifies a chat message and returns the scripted reply
// @Summary Send a chat message
// @Tags Chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ChatMessageRequest true "Chat Message Request"
// @Success 200 {object} response.Response
// @Router /chat [post]
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	intent := service.ClassifyIntent(req.Message)

	response.Success(w, http.StatusOK, "Message processed", &dto.ChatMessageResponse{
		Intent: string(intent),
		Reply:  service.ScriptedReply(intent),
	})
}
