// Package flow implements the conversation state machine and the nested
// payment sub-flow orchestrator.
package flow

import "github.com/convodesk/convodesk/internal/models"

// stepConfig declares, for one step, which intents are legal, where each
// intent may lead, and where to recover to when an intent or transition is
// rejected. Allowed intents and transition targets are declared separately
// so the same intent can be legal-but-looping in one step and
// legal-and-advancing in another.
type stepConfig struct {
	// AllowedIntents is the set of intents legal in this step. Intents not
	// declared here are rejected even if globally valid elsewhere.
	AllowedIntents []models.Intent

	// Transitions maps an intent to its candidate next steps. Multiple
	// candidates model "skip to the first incomplete field": the engine,
	// not the table, picks the one actual outcome based on which data is
	// already present. The IntentAny bucket declares fallback loops.
	Transitions map[models.Intent][]models.ConversationStep

	// Fallback is the step to recover to when a guard rail fires or an
	// intent/transition is rejected.
	Fallback models.ConversationStep
}

// collectionTargets are the candidate landing steps for intents that start
// or continue the booking data-collection run.
var collectionTargets = []models.ConversationStep{
	models.StepCollectingName,
	models.StepCollectingEmail,
	models.StepCollectingPhone,
	models.StepShowingSlots,
}

var transitionTable = map[models.ConversationStep]stepConfig{
	models.StepGreeting: {
		AllowedIntents: []models.Intent{
			models.IntentGreeting, models.IntentPricingQuestion, models.IntentTechnicalSpecs,
			models.IntentCompanyInfo, models.IntentScheduleAppointment, models.IntentAskQuestion,
			models.IntentRequestPaymentLink, models.IntentViewPaymentHistory, models.IntentUnknown,
		},
		Transitions: map[models.Intent][]models.ConversationStep{
			models.IntentGreeting:            {models.StepAwaitingIntent},
			models.IntentScheduleAppointment: collectionTargets,
			models.IntentAny:                 {models.StepGreeting, models.StepAwaitingIntent},
		},
		Fallback: models.StepAwaitingIntent,
	},
	models.StepAwaitingIntent: {
		AllowedIntents: []models.Intent{
			models.IntentGreeting, models.IntentPricingQuestion, models.IntentTechnicalSpecs,
			models.IntentCompanyInfo, models.IntentScheduleAppointment, models.IntentAskQuestion,
			models.IntentRequestPaymentLink, models.IntentViewPaymentHistory, models.IntentUnknown,
		},
		Transitions: map[models.Intent][]models.ConversationStep{
			models.IntentScheduleAppointment: collectionTargets,
			models.IntentAny:                 {models.StepAwaitingIntent},
		},
		Fallback: models.StepAwaitingIntent,
	},
	models.StepCollectingName: {
		AllowedIntents: []models.Intent{
			models.IntentProvideName, models.IntentAskQuestion, models.IntentUnknown,
		},
		Transitions: map[models.Intent][]models.ConversationStep{
			models.IntentProvideName: {
				models.StepCollectingEmail, models.StepCollectingPhone, models.StepShowingSlots,
			},
			models.IntentAny: {models.StepCollectingName},
		},
		Fallback: models.StepCollectingName,
	},
	models.StepCollectingEmail: {
		AllowedIntents: []models.Intent{
			models.IntentProvideEmail, models.IntentAskQuestion, models.IntentUnknown,
		},
		Transitions: map[models.Intent][]models.ConversationStep{
			models.IntentProvideEmail: {models.StepCollectingPhone, models.StepShowingSlots},
			models.IntentAny:          {models.StepCollectingEmail},
		},
		Fallback: models.StepCollectingEmail,
	},
	models.StepCollectingPhone: {
		AllowedIntents: []models.Intent{
			models.IntentProvidePhone, models.IntentDeclinePhone, models.IntentAskQuestion,
			models.IntentUnknown,
		},
		Transitions: map[models.Intent][]models.ConversationStep{
			models.IntentProvidePhone: {models.StepShowingSlots},
			models.IntentDeclinePhone: {models.StepShowingSlots},
			models.IntentAny:          {models.StepCollectingPhone},
		},
		Fallback: models.StepCollectingPhone,
	},
	models.StepShowingSlots: {
		AllowedIntents: []models.Intent{
			models.IntentSelectTimeSlot, models.IntentRequestNextWeek,
			models.IntentRequestSpecificDate, models.IntentAskQuestion, models.IntentUnknown,
		},
		Transitions: map[models.Intent][]models.ConversationStep{
			models.IntentSelectTimeSlot:      {models.StepConfirming},
			models.IntentRequestNextWeek:     {models.StepShowingSlots},
			models.IntentRequestSpecificDate: {models.StepShowingSlots},
			models.IntentAny:                 {models.StepShowingSlots},
		},
		Fallback: models.StepAwaitingIntent,
	},
	models.StepConfirming: {
		AllowedIntents: []models.Intent{
			models.IntentConfirmAppointment, models.IntentSelectTimeSlot,
			models.IntentAskQuestion, models.IntentUnknown,
		},
		Transitions: map[models.Intent][]models.ConversationStep{
			models.IntentConfirmAppointment: {models.StepCompleted},
			models.IntentSelectTimeSlot:     {models.StepConfirming},
			models.IntentAny:                {models.StepConfirming},
		},
		Fallback: models.StepAwaitingIntent,
	},
	models.StepCompleted: {
		AllowedIntents: []models.Intent{
			models.IntentGreeting, models.IntentAskQuestion, models.IntentPricingQuestion,
			models.IntentTechnicalSpecs, models.IntentCompanyInfo, models.IntentScheduleAppointment,
			models.IntentRequestPaymentLink, models.IntentViewPaymentHistory,
			models.IntentOffTopic, models.IntentUnknown,
		},
		Transitions: map[models.Intent][]models.ConversationStep{
			models.IntentScheduleAppointment: collectionTargets,
			models.IntentAny:                 {models.StepCompleted},
		},
		Fallback: models.StepAwaitingIntent,
	},
}

// IsIntentAllowed reports whether the intent is declared for the step.
func IsIntentAllowed(step models.ConversationStep, in models.Intent) bool {
	cfg, ok := transitionTable[step]
	if !ok {
		return false
	}
	for _, allowed := range cfg.AllowedIntents {
		if allowed == in {
			return true
		}
	}
	return false
}

// IsTransitionAllowed reports whether moving from -> to is declared for the
// intent. The union of the intent's targets and the ANY bucket is consulted.
func IsTransitionAllowed(from, to models.ConversationStep, in models.Intent) bool {
	cfg, ok := transitionTable[from]
	if !ok {
		return false
	}
	for _, candidate := range cfg.Transitions[in] {
		if candidate == to {
			return true
		}
	}
	for _, candidate := range cfg.Transitions[models.IntentAny] {
		if candidate == to {
			return true
		}
	}
	return false
}

// FallbackStep returns the step to recover to for the given step, and
// whether the step is known to the table.
func FallbackStep(step models.ConversationStep) (models.ConversationStep, bool) {
	cfg, ok := transitionTable[step]
	if !ok {
		return "", false
	}
	return cfg.Fallback, true
}

// CandidateTargets returns the declared next steps for (step, intent),
// excluding the ANY bucket.
func CandidateTargets(step models.ConversationStep, in models.Intent) []models.ConversationStep {
	cfg, ok := transitionTable[step]
	if !ok {
		return nil
	}
	return cfg.Transitions[in]
}
