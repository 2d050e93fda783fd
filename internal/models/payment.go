// Package models defines payment sub-flow structures shared across modules.
package models

import "time"

// PaymentStage identifies a node in the nested payment sub-flow state machine.
type PaymentStage string

const (
	StageIdle                        PaymentStage = "idle"
	StageAwaitingProduct             PaymentStage = "awaiting_product"
	StageAwaitingName                PaymentStage = "awaiting_name"
	StageAwaitingEmail               PaymentStage = "awaiting_email"
	StageAwaitingConfirmation        PaymentStage = "awaiting_confirmation"
	StageCompleted                   PaymentStage = "completed"
	StageHistory                     PaymentStage = "history"
	StageAwaitingNewLinkConfirmation PaymentStage = "awaiting_new_link_confirmation"
)

// PaymentContext is the nested sub-state embedded in ConversationState.
// Product fields are a snapshot frozen at selection time so the price cannot
// drift mid-flow.
type PaymentContext struct {
	Stage           PaymentStage `json:"stage"`
	ProductID       string       `json:"productId,omitempty"`
	ProductName     string       `json:"productName,omitempty"`
	AmountCents     int64        `json:"amountCents,omitempty"`
	Currency        string       `json:"currency,omitempty"`
	CustomerName    string       `json:"customerName,omitempty"`
	CustomerEmail   string       `json:"customerEmail,omitempty"`
	NameConfirmed   bool         `json:"nameConfirmed"`
	EmailConfirmed  bool         `json:"emailConfirmed"`
	LinkToken       string       `json:"linkToken,omitempty"`
	LinkURL         string       `json:"linkUrl,omitempty"`
	LinkRoute       string       `json:"linkRoute,omitempty"`
	LastGeneratedAt *time.Time   `json:"lastGeneratedAt,omitempty"`
	Confirmed       bool         `json:"confirmed"`
	HistoryOffset   int          `json:"historyOffset"`
	HistoryPageSize int          `json:"historyPageSize"`
	LastViewedAt    *time.Time   `json:"lastViewedAt,omitempty"`
}

// Active reports whether the sub-flow currently owns message processing.
// A completed context is not active on its own; re-entry goes through the
// payment keyword path.
func (pc *PaymentContext) Active() bool {
	switch pc.Stage {
	case StageAwaitingProduct, StageAwaitingName, StageAwaitingEmail,
		StageAwaitingConfirmation, StageAwaitingNewLinkConfirmation, StageHistory:
		return true
	default:
		return false
	}
}

// Product is a catalog item returned by the payment gateway.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ProductCode string `json:"productCode"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}
