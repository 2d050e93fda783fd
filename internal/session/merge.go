package session

import (
	"time"

	"github.com/convodesk/convodesk/internal/models"
)

// StateUpdate is a partial update merged into ConversationState with
// field-specific rules: scalars overwrite only when set (pointer non-nil),
// profile and appointment entities deep-merge, history and the transition
// log append, and set fields accumulate.
type StateUpdate struct {
	CurrentStep *models.ConversationStep
	Language    *string

	UserData        *UserDataUpdate
	AppointmentData *AppointmentDataUpdate
	Payment         *PaymentUpdate

	AppendMessages    []models.ChatMessage
	AppendTransitions []models.TransitionRecord

	AttemptName  *int
	AttemptEmail *int
	AttemptPhone *int

	ShownWeeks      *int
	AddShownSlotIDs []string
	PhoneDeclined   *bool
	AddQuestions    []string
	AddTopics       []string
	PendingAction   *string
}

// UserDataUpdate deep-merges into UserData. Nil fields leave current values
// untouched; profile data is populated monotonically.
type UserDataUpdate struct {
	Name  *string
	Email *string
	Phone *string
}

// AppointmentDataUpdate deep-merges into AppointmentData.
type AppointmentDataUpdate struct {
	SelectedSlotID    *string
	SelectedSlotLabel *string
	PreferredDate     *string
	PreferredTime     *string
}

// PaymentUpdate deep-merges into PaymentContext. Confirmed booleans are
// pointers so an absent field can never clobber a previously confirmed flag.
// Reset wipes the context to idle before the rest of the update is applied.
type PaymentUpdate struct {
	Reset bool

	Stage          *models.PaymentStage
	ProductID      *string
	ProductName    *string
	AmountCents    *int64
	Currency       *string
	CustomerName   *string
	CustomerEmail  *string
	NameConfirmed  *bool
	EmailConfirmed *bool
	LinkToken      *string
	LinkURL        *string
	LinkRoute      *string
	Confirmed      *bool

	HistoryOffset   *int
	HistoryPageSize *int

	// TouchGeneratedAt and TouchViewedAt stamp the corresponding timestamp
	// with the current time.
	TouchGeneratedAt bool
	TouchViewedAt    bool
}

// applyUpdate merges the partial update into state in place. now is the
// store clock, used for the touch stamps so tests with a fixed clock see
// deterministic timestamps.
func applyUpdate(state *models.ConversationState, update StateUpdate, now time.Time) {
	if update.CurrentStep != nil {
		state.CurrentStep = *update.CurrentStep
	}
	if update.Language != nil {
		state.Language = *update.Language
	}
	if update.UserData != nil {
		mergeUserData(&state.UserData, update.UserData)
	}
	if update.AppointmentData != nil {
		mergeAppointmentData(&state.AppointmentData, update.AppointmentData)
	}
	if update.Payment != nil {
		mergePaymentContext(&state.PaymentContext, update.Payment, now)
	}
	state.ConversationHistory = append(state.ConversationHistory, update.AppendMessages...)
	state.TransitionLog = append(state.TransitionLog, update.AppendTransitions...)

	if update.AttemptName != nil {
		state.AttemptCount.Name = *update.AttemptName
	}
	if update.AttemptEmail != nil {
		state.AttemptCount.Email = *update.AttemptEmail
	}
	if update.AttemptPhone != nil {
		state.AttemptCount.Phone = *update.AttemptPhone
	}
	if update.ShownWeeks != nil {
		state.ShownWeeks = *update.ShownWeeks
	}
	for _, id := range update.AddShownSlotIDs {
		state.ShownSlotIDs.Add(id)
	}
	if update.PhoneDeclined != nil {
		state.PhoneDeclined = *update.PhoneDeclined
	}
	for _, q := range update.AddQuestions {
		state.QuestionsAsked.Add(q)
	}
	for _, topic := range update.AddTopics {
		state.TopicsDiscussed.Add(topic)
	}
	if update.PendingAction != nil {
		state.PendingAction = *update.PendingAction
	}
}

func mergeUserData(current *models.UserData, update *UserDataUpdate) {
	if update.Name != nil {
		current.Name = *update.Name
	}
	if update.Email != nil {
		current.Email = *update.Email
	}
	if update.Phone != nil {
		current.Phone = *update.Phone
	}
}

func mergeAppointmentData(current *models.AppointmentData, update *AppointmentDataUpdate) {
	if update.SelectedSlotID != nil {
		current.SelectedSlotID = *update.SelectedSlotID
	}
	if update.SelectedSlotLabel != nil {
		current.SelectedSlotLabel = *update.SelectedSlotLabel
	}
	if update.PreferredDate != nil {
		current.PreferredDate = *update.PreferredDate
	}
	if update.PreferredTime != nil {
		current.PreferredTime = *update.PreferredTime
	}
}

// mergePaymentContext applies a payment update. The confirmed flags only
// move when the update carries an explicit value, so a partial update can
// never regress nameConfirmed or emailConfirmed.
func mergePaymentContext(current *models.PaymentContext, update *PaymentUpdate, now time.Time) {
	if update.Reset {
		*current = models.PaymentContext{Stage: models.StageIdle}
	}
	if update.Stage != nil {
		current.Stage = *update.Stage
	}
	if update.ProductID != nil {
		current.ProductID = *update.ProductID
	}
	if update.ProductName != nil {
		current.ProductName = *update.ProductName
	}
	if update.AmountCents != nil {
		current.AmountCents = *update.AmountCents
	}
	if update.Currency != nil {
		current.Currency = *update.Currency
	}
	if update.CustomerName != nil {
		current.CustomerName = *update.CustomerName
	}
	if update.CustomerEmail != nil {
		current.CustomerEmail = *update.CustomerEmail
	}
	if update.NameConfirmed != nil {
		current.NameConfirmed = *update.NameConfirmed
	}
	if update.EmailConfirmed != nil {
		current.EmailConfirmed = *update.EmailConfirmed
	}
	if update.LinkToken != nil {
		current.LinkToken = *update.LinkToken
	}
	if update.LinkURL != nil {
		current.LinkURL = *update.LinkURL
	}
	if update.LinkRoute != nil {
		current.LinkRoute = *update.LinkRoute
	}
	if update.Confirmed != nil {
		current.Confirmed = *update.Confirmed
	}
	if update.HistoryOffset != nil {
		current.HistoryOffset = *update.HistoryOffset
	}
	if update.HistoryPageSize != nil {
		current.HistoryPageSize = *update.HistoryPageSize
	}
	if update.TouchGeneratedAt {
		stamp := now.UTC()
		current.LastGeneratedAt = &stamp
	}
	if update.TouchViewedAt {
		stamp := now.UTC()
		current.LastViewedAt = &stamp
	}
}
