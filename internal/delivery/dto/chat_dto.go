package dto

type ChatMessageRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

type ChatMessageResponse struct {
	Intent string `json:"intent"`
	Reply  string `json:"reply"`
}
