package flow

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/convodesk/convodesk/internal/i18n"
	"github.com/convodesk/convodesk/internal/intent"
	"github.com/convodesk/convodesk/internal/models"
	"github.com/convodesk/convodesk/internal/payment"
	"github.com/convodesk/convodesk/internal/session"
)

// paymentKeywordRegex detects a payment request in raw text before intent
// classification, in both supported languages. Once a payment stage is
// active the orchestrator interprets raw input itself.
var paymentKeywordRegex = regexp.MustCompile(`(?i)(payment link|pay link|link de pago|link para pagar|enlace de pago|quiero pagar|checkout)`)

// paymentHistoryRegex detects a request for the read-only history sub-mode.
var paymentHistoryRegex = regexp.MustCompile(`(?i)(payment history|my payments|historial de pagos|mis pagos)`)

// Engine is the single entry point for message processing: it tracks the
// session's position in the conversation, validates intents against the
// transition table, applies guard rails, and hands control to the payment
// orchestrator when a payment stage is active.
type Engine struct {
	sessions   *session.Store
	classifier intent.Classifier
	payments   *PaymentFlow
	detector   *i18n.LanguageDetector
	slots      SlotProvider
	now        func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSlotProvider overrides the built-in weekly slot provider.
func WithSlotProvider(p SlotProvider) EngineOption {
	return func(e *Engine) { e.slots = p }
}

// WithClock overrides the engine's time source; used in tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates the conversation engine with its collaborators.
func NewEngine(sessions *session.Store, classifier intent.Classifier, gateway payment.Gateway, detector *i18n.LanguageDetector, opts ...EngineOption) *Engine {
	e := &Engine{
		sessions:   sessions,
		classifier: classifier,
		detector:   detector,
		slots:      WeeklySlotProvider{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.payments = NewPaymentFlow(gateway, e.now)
	return e
}

// ProcessMessage handles one inbound message for a session and returns the
// localized response plus the updated state. All failures are recovered
// locally; the worst case is a recovery prompt, never a propagated panic or
// error from a collaborator.
func (e *Engine) ProcessMessage(ctx context.Context, sessionID, tenantID, message string) (string, *models.ConversationState, error) {
	unlock := e.sessions.LockSession(sessionID, tenantID)
	defer unlock()

	state := e.sessions.Get(ctx, sessionID, tenantID)
	lang := e.detector.Detect(ctx, message, state.Language)
	now := e.now()

	slog.Debug("Engine.ProcessMessage: handling message",
		"sessionID", sessionID, "tenantID", tenantID,
		"step", state.CurrentStep, "paymentStage", state.PaymentContext.Stage, "lang", lang)

	update := session.StateUpdate{
		Language: &lang,
		AppendMessages: []models.ChatMessage{
			{Role: "user", Content: message, Timestamp: now, Language: lang},
		},
	}

	var response string
	switch {
	case state.PaymentContext.Active():
		response = e.payments.Handle(ctx, state, lang, message, &update)
	case paymentHistoryRegex.MatchString(message):
		response = e.payments.StartHistory(ctx, state, lang, &update)
	case paymentKeywordRegex.MatchString(message):
		response = e.payments.Start(ctx, state, lang, &update)
	default:
		response = e.routeIntent(ctx, state, lang, message, &update)
	}

	update.AppendMessages = append(update.AppendMessages, models.ChatMessage{
		Role: "assistant", Content: response, Timestamp: e.now(), Language: lang,
	})

	newState := e.sessions.Update(ctx, sessionID, tenantID, update)
	return response, newState, nil
}

// Reset discards the session state. Testing hook.
func (e *Engine) Reset(ctx context.Context, sessionID, tenantID string) *models.ConversationState {
	unlock := e.sessions.LockSession(sessionID, tenantID)
	defer unlock()
	return e.sessions.Reset(ctx, sessionID, tenantID)
}

// Session returns the current state for diagnostics.
func (e *Engine) Session(ctx context.Context, sessionID, tenantID string) *models.ConversationState {
	unlock := e.sessions.LockSession(sessionID, tenantID)
	defer unlock()
	return e.sessions.Get(ctx, sessionID, tenantID)
}

// routeIntent classifies the message and drives the main state machine.
func (e *Engine) routeIntent(ctx context.Context, state *models.ConversationState, lang, message string, update *session.StateUpdate) string {
	cls, err := e.classifier.Classify(ctx, message, state)
	if err != nil {
		slog.Error("Engine.routeIntent: classifier failed, treating as UNKNOWN", "error", err, "sessionID", state.SessionID)
		cls = intent.Classification{Intent: models.IntentUnknown}
	}
	in := cls.Intent

	// Guard rails answer with a fixed redirect and never advance the step.
	if in == models.IntentOffTopic || in == models.IntentHarmfulContent {
		key := "guardRailOffTopic"
		if in == models.IntentHarmfulContent {
			key = "guardRailHarmful"
		}
		e.record(update, state.CurrentStep, state.CurrentStep, in, models.ReasonGuardRail)
		slog.Info("Engine.routeIntent: guard rail triggered", "intent", in, "sessionID", state.SessionID, "step", state.CurrentStep)
		return i18n.Render(lang, key, nil)
	}

	// Payment intents hand control to the sub-flow regardless of step.
	if in == models.IntentRequestPaymentLink {
		return e.payments.Start(ctx, state, lang, update)
	}
	if in == models.IntentViewPaymentHistory {
		return e.payments.StartHistory(ctx, state, lang, update)
	}

	if !IsIntentAllowed(state.CurrentStep, in) {
		return e.recover(state, lang, in, models.ReasonInvalidIntent, update)
	}

	response, target := e.handleIntent(ctx, state, lang, message, cls, update)

	if target != state.CurrentStep && !IsTransitionAllowed(state.CurrentStep, target, in) {
		return e.recover(state, lang, in, models.ReasonInvalidTransition, update)
	}

	if target != state.CurrentStep {
		update.CurrentStep = &target
		e.record(update, state.CurrentStep, target, in, models.ReasonTransition)
	}
	return response
}

// recover routes the session to the step's fallback with the given reason
// and answers the designated recovery prompt. This is the only path that
// changes the step outside the transition table.
func (e *Engine) recover(state *models.ConversationState, lang string, in models.Intent, reason models.TransitionReason, update *session.StateUpdate) string {
	fallback, ok := FallbackStep(state.CurrentStep)
	if !ok {
		// Unknown step in stored state; force recovery to AWAITING_INTENT.
		fallback = models.StepAwaitingIntent
	}
	slog.Info("Engine.recover: rejected intent, routing to fallback",
		"sessionID", state.SessionID, "step", state.CurrentStep, "intent", in, "reason", reason, "fallback", fallback)

	if fallback != state.CurrentStep {
		update.CurrentStep = &fallback
	}
	e.record(update, state.CurrentStep, fallback, in, reason)
	return i18n.Render(lang, "stateRecovery", nil)
}

// record appends a transition audit entry to the pending update.
func (e *Engine) record(update *session.StateUpdate, from, to models.ConversationStep, in models.Intent, reason models.TransitionReason) {
	update.AppendTransitions = append(update.AppendTransitions, models.TransitionRecord{
		From:      from,
		To:        to,
		Intent:    in,
		Reason:    reason,
		Timestamp: e.now(),
		Source:    "engine",
	})
}

// nextCollectionStep picks the first booking field still missing, modeling
// "skip to the first incomplete field" over the table's candidate set.
func (e *Engine) nextCollectionStep(state *models.ConversationState) models.ConversationStep {
	switch {
	case state.UserData.Name == "":
		return models.StepCollectingName
	case state.UserData.Email == "":
		return models.StepCollectingEmail
	case state.UserData.Phone == "" && !state.PhoneDeclined:
		return models.StepCollectingPhone
	default:
		return models.StepShowingSlots
	}
}
