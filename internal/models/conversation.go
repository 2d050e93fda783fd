// Package models defines the core data structures for ConvoDesk.
//
// It includes the conversation state machine vocabulary (steps, intents,
// transition records) and the per-session ConversationState owned by the
// session store.
package models

import "time"

// ConversationStep identifies a node in the main conversation state machine.
type ConversationStep string

const (
	StepGreeting        ConversationStep = "GREETING"
	StepAwaitingIntent  ConversationStep = "AWAITING_INTENT"
	StepCollectingName  ConversationStep = "COLLECTING_NAME"
	StepCollectingEmail ConversationStep = "COLLECTING_EMAIL"
	StepCollectingPhone ConversationStep = "COLLECTING_PHONE"
	StepShowingSlots    ConversationStep = "SHOWING_SLOTS"
	StepConfirming      ConversationStep = "CONFIRMING"
	StepCompleted       ConversationStep = "COMPLETED"
)

// Intent is a classified category of user message, supplied by the classifier.
type Intent string

const (
	IntentGreeting            Intent = "GREETING"
	IntentPricingQuestion     Intent = "PRICING_QUESTION"
	IntentTechnicalSpecs      Intent = "TECHNICAL_SPECS"
	IntentCompanyInfo         Intent = "COMPANY_INFO"
	IntentScheduleAppointment Intent = "SCHEDULE_APPOINTMENT"
	IntentConfirmAppointment  Intent = "CONFIRM_APPOINTMENT"
	IntentSelectTimeSlot      Intent = "SELECT_TIME_SLOT"
	IntentRequestNextWeek     Intent = "REQUEST_NEXT_WEEK"
	IntentRequestSpecificDate Intent = "REQUEST_SPECIFIC_DATE"
	IntentProvideName         Intent = "PROVIDE_NAME"
	IntentProvideEmail        Intent = "PROVIDE_EMAIL"
	IntentProvidePhone        Intent = "PROVIDE_PHONE"
	IntentDeclinePhone        Intent = "DECLINE_PHONE"
	IntentAskQuestion         Intent = "ASK_QUESTION"
	IntentViewPaymentHistory  Intent = "VIEW_PAYMENT_HISTORY"
	IntentRequestPaymentLink  Intent = "REQUEST_PAYMENT_LINK"
	IntentOffTopic            Intent = "OFF_TOPIC"
	IntentHarmfulContent      Intent = "HARMFUL_CONTENT"
	IntentUnknown             Intent = "UNKNOWN"

	// IntentAny is the wildcard bucket in the transition table. It is never
	// produced by a classifier.
	IntentAny Intent = "ANY"
)

// AllIntents lists the classifier taxonomy (excluding the ANY wildcard).
var AllIntents = []Intent{
	IntentGreeting, IntentPricingQuestion, IntentTechnicalSpecs, IntentCompanyInfo,
	IntentScheduleAppointment, IntentConfirmAppointment, IntentSelectTimeSlot,
	IntentRequestNextWeek, IntentRequestSpecificDate, IntentProvideName,
	IntentProvideEmail, IntentProvidePhone, IntentDeclinePhone, IntentAskQuestion,
	IntentViewPaymentHistory, IntentRequestPaymentLink, IntentOffTopic,
	IntentHarmfulContent, IntentUnknown,
}

// IsValidIntent reports whether the given intent belongs to the taxonomy.
func IsValidIntent(in Intent) bool {
	for _, known := range AllIntents {
		if in == known {
			return true
		}
	}
	return false
}

// TransitionReason records why a step change (or refusal) happened.
type TransitionReason string

const (
	ReasonTransition        TransitionReason = "transition"
	ReasonGuardRail         TransitionReason = "guard_rail"
	ReasonInvalidIntent     TransitionReason = "invalid_intent"
	ReasonInvalidTransition TransitionReason = "invalid_transition"
)

// TransitionRecord is one entry in the session's audit trail of state changes.
type TransitionRecord struct {
	From      ConversationStep `json:"from"`
	To        ConversationStep `json:"to"`
	Intent    Intent           `json:"intent"`
	Reason    TransitionReason `json:"reason"`
	Timestamp time.Time        `json:"timestamp"`
	Source    string           `json:"source"`
}

// ChatMessage is a single entry in the append-only conversation history.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Language  string    `json:"language"`
}

// UserData holds the profile fields collected during the booking flow.
// Fields are populated monotonically and cleared only by a session reset.
type UserData struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// AppointmentData tracks the slot selection progress for a session.
type AppointmentData struct {
	SelectedSlotID    string `json:"selectedSlotId,omitempty"`
	SelectedSlotLabel string `json:"selectedSlotLabel,omitempty"`
	PreferredDate     string `json:"preferredDate,omitempty"`
	PreferredTime     string `json:"preferredTime,omitempty"`
}

// AttemptCounts keeps per-field retry counters used to vary retry prompts.
type AttemptCounts struct {
	Name  int `json:"name"`
	Email int `json:"email"`
	Phone int `json:"phone"`
}

// ConversationState is the canonical per-session state. It is owned by the
// session store and borrowed by the engine for the duration of a single
// message-processing call.
type ConversationState struct {
	SessionID           string             `json:"sessionId"`
	TenantID            string             `json:"tenantId"`
	CurrentStep         ConversationStep   `json:"currentStep"`
	Language            string             `json:"language"`
	UserData            UserData           `json:"userData"`
	AppointmentData     AppointmentData    `json:"appointmentData"`
	ConversationHistory []ChatMessage      `json:"conversationHistory"`
	AttemptCount        AttemptCounts      `json:"attemptCount"`
	ShownWeeks          int                `json:"shownWeeks"`
	ShownSlotIDs        StringSet          `json:"shownSlotIds"`
	PhoneDeclined       bool               `json:"phoneDeclined"`
	QuestionsAsked      StringSet          `json:"questionsAsked"`
	TopicsDiscussed     StringSet          `json:"topicsDiscussed"`
	PendingAction       string             `json:"pendingAction,omitempty"`
	PaymentContext      PaymentContext     `json:"paymentContext"`
	TransitionLog       []TransitionRecord `json:"transitionLog"`
	LastActivity        time.Time          `json:"lastActivity"`
}

// NewConversationState creates a fresh state for a session at its first message.
func NewConversationState(sessionID, tenantID string, now time.Time) *ConversationState {
	return &ConversationState{
		SessionID:           sessionID,
		TenantID:            tenantID,
		CurrentStep:         StepGreeting,
		Language:            "en",
		ConversationHistory: []ChatMessage{},
		TransitionLog:       []TransitionRecord{},
		PaymentContext:      PaymentContext{Stage: StageIdle},
		LastActivity:        now,
	}
}

// ExpiredAt reports whether the session is logically expired at the given
// instant for the given inactivity window.
func (s *ConversationState) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActivity) > ttl
}
