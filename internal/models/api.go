package models

import "errors"

// API response status values.
const (
	APIStatusOK    = "ok"
	APIStatusError = "error"
)

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success wraps a result in an ok envelope.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: APIStatusOK, Result: result}
}

// SuccessWithMessage wraps a result in an ok envelope with a message.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: APIStatusOK, Message: message, Result: result}
}

// Error builds an error envelope.
func Error(message string) APIResponse {
	return APIResponse{Status: APIStatusError, Message: message}
}

// MessageRequest is the inbound payload for the message endpoint.
type MessageRequest struct {
	SessionID string `json:"sessionId"`
	TenantID  string `json:"tenantId"`
	Message   string `json:"message"`
}

// Validate checks required fields.
func (r MessageRequest) Validate() error {
	if r.SessionID == "" {
		return errors.New("sessionId is required")
	}
	if r.TenantID == "" {
		return errors.New("tenantId is required")
	}
	if r.Message == "" {
		return errors.New("message is required")
	}
	return nil
}

// MessageResponse is the engine's answer to one inbound message.
type MessageResponse struct {
	Response     string           `json:"response"`
	CurrentStep  ConversationStep `json:"currentStep"`
	PaymentStage PaymentStage     `json:"paymentStage"`
	Language     string           `json:"language"`
}
