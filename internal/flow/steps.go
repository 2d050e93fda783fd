package flow

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/convodesk/convodesk/internal/i18n"
	"github.com/convodesk/convodesk/internal/intent"
	"github.com/convodesk/convodesk/internal/models"
	"github.com/convodesk/convodesk/internal/session"
)

// handleIntent produces the response and target step for an intent that
// passed the allowed-intent check. A target equal to the current step means
// the conversation loops in place (validation retry, re-prompt).
func (e *Engine) handleIntent(ctx context.Context, state *models.ConversationState, lang, message string, cls intent.Classification, update *session.StateUpdate) (string, models.ConversationStep) {
	switch cls.Intent {
	case models.IntentGreeting:
		return i18n.Render(lang, "greeting", nil), answerTarget(state.CurrentStep)

	case models.IntentPricingQuestion:
		update.AddTopics = append(update.AddTopics, "pricing")
		return i18n.Render(lang, "pricingAnswer", nil), answerTarget(state.CurrentStep)

	case models.IntentTechnicalSpecs:
		update.AddTopics = append(update.AddTopics, "specs")
		return i18n.Render(lang, "specsAnswer", nil), answerTarget(state.CurrentStep)

	case models.IntentCompanyInfo:
		update.AddTopics = append(update.AddTopics, "company")
		return i18n.Render(lang, "companyAnswer", nil), answerTarget(state.CurrentStep)

	case models.IntentAskQuestion:
		update.AddQuestions = append(update.AddQuestions, strings.TrimSpace(message))
		return i18n.Render(lang, "questionAnswer", nil), state.CurrentStep

	case models.IntentScheduleAppointment:
		return e.startCollection(state, lang, update)

	case models.IntentProvideName:
		return e.collectName(state, lang, message, update)

	case models.IntentProvideEmail:
		return e.collectEmail(state, lang, message, update)

	case models.IntentProvidePhone:
		return e.collectPhone(state, lang, message, update)

	case models.IntentDeclinePhone:
		declined := true
		update.PhoneDeclined = &declined
		slots := e.showSlots(state, lang, currentWeekOffset(state), "slotsHeader", update)
		return i18n.Render(lang, "phoneDeclinedOk", nil) + "\n\n" + slots, models.StepShowingSlots

	case models.IntentSelectTimeSlot:
		return e.selectSlot(state, lang, message, update)

	case models.IntentRequestNextWeek:
		return e.showSlots(state, lang, state.ShownWeeks, "slotsNextWeek", update), state.CurrentStep

	case models.IntentRequestSpecificDate:
		preferred := strings.TrimSpace(message)
		update.AppointmentData = &session.AppointmentDataUpdate{PreferredDate: &preferred}
		return e.showSlots(state, lang, currentWeekOffset(state), "slotsHeader", update), state.CurrentStep

	case models.IntentConfirmAppointment:
		return i18n.Render(lang, "appointmentConfirmed", map[string]string{
			"slot":  state.AppointmentData.SelectedSlotLabel,
			"email": state.UserData.Email,
		}), models.StepCompleted

	default:
		return i18n.Render(lang, "stateRecovery", nil), state.CurrentStep
	}
}

// answerTarget keeps informational answers in place except from the
// greeting, which always advances to AWAITING_INTENT.
func answerTarget(step models.ConversationStep) models.ConversationStep {
	if step == models.StepGreeting {
		return models.StepAwaitingIntent
	}
	return step
}

// startCollection begins (or resumes) the booking run at the first
// incomplete field.
func (e *Engine) startCollection(state *models.ConversationState, lang string, update *session.StateUpdate) (string, models.ConversationStep) {
	target := e.nextCollectionStep(state)
	switch target {
	case models.StepCollectingName:
		return i18n.Render(lang, "askName", nil), target
	case models.StepCollectingEmail:
		return i18n.Render(lang, "askEmail", map[string]string{"name": state.UserData.Name}), target
	case models.StepCollectingPhone:
		return i18n.Render(lang, "askPhone", nil), target
	default:
		return e.showSlots(state, lang, currentWeekOffset(state), "slotsHeader", update), models.StepShowingSlots
	}
}

func (e *Engine) collectName(state *models.ConversationState, lang, message string, update *session.StateUpdate) (string, models.ConversationStep) {
	name, err := models.ValidateName(message)
	if err != nil {
		attempts := state.AttemptCount.Name + 1
		update.AttemptName = &attempts
		slog.Debug("Engine.collectName: rejected name", "error", err, "sessionID", state.SessionID, "attempt", attempts)
		return i18n.RenderRetry(lang, "nameRetry", attempts, nil), state.CurrentStep
	}

	update.UserData = &session.UserDataUpdate{Name: &name}
	next := *state
	next.UserData.Name = name
	return e.continueCollection(&next, lang, update)
}

func (e *Engine) collectEmail(state *models.ConversationState, lang, message string, update *session.StateUpdate) (string, models.ConversationStep) {
	email, err := models.ValidateEmail(message)
	if err != nil {
		attempts := state.AttemptCount.Email + 1
		update.AttemptEmail = &attempts
		slog.Debug("Engine.collectEmail: rejected email", "error", err, "sessionID", state.SessionID, "attempt", attempts)
		return i18n.RenderRetry(lang, "emailRetry", attempts, nil), state.CurrentStep
	}

	update.UserData = &session.UserDataUpdate{Email: &email}
	next := *state
	next.UserData.Email = email
	return e.continueCollection(&next, lang, update)
}

func (e *Engine) collectPhone(state *models.ConversationState, lang, message string, update *session.StateUpdate) (string, models.ConversationStep) {
	phone, err := models.ValidatePhone(message)
	if err != nil {
		attempts := state.AttemptCount.Phone + 1
		update.AttemptPhone = &attempts
		slog.Debug("Engine.collectPhone: rejected phone", "error", err, "sessionID", state.SessionID, "attempt", attempts)
		return i18n.RenderRetry(lang, "phoneRetry", attempts, nil), state.CurrentStep
	}

	update.UserData = &session.UserDataUpdate{Phone: &phone}
	next := *state
	next.UserData.Phone = phone
	return e.continueCollection(&next, lang, update)
}

// continueCollection routes to whatever booking field is still missing
// after a successful capture, or to the slot listing when the profile is
// complete.
func (e *Engine) continueCollection(state *models.ConversationState, lang string, update *session.StateUpdate) (string, models.ConversationStep) {
	target := e.nextCollectionStep(state)
	switch target {
	case models.StepCollectingEmail:
		return i18n.Render(lang, "askEmail", map[string]string{"name": state.UserData.Name}), target
	case models.StepCollectingPhone:
		return i18n.Render(lang, "askPhone", nil), target
	default:
		return e.showSlots(state, lang, currentWeekOffset(state), "slotsHeader", update), models.StepShowingSlots
	}
}

// currentWeekOffset is the offset of the most recently shown week, or the
// first week when none has been shown yet.
func currentWeekOffset(state *models.ConversationState) int {
	if state.ShownWeeks > 0 {
		return state.ShownWeeks - 1
	}
	return 0
}

// showSlots renders the numbered slot list for a week and records which
// weeks and slot ids have been offered, so repeated prompts do not reset
// pagination.
func (e *Engine) showSlots(state *models.ConversationState, lang string, weekOffset int, headerKey string, update *session.StateUpdate) string {
	slots := e.slots.SlotsForWeek(state.TenantID, weekOffset, e.now())
	for _, slot := range slots {
		update.AddShownSlotIDs = append(update.AddShownSlotIDs, slot.ID)
	}
	if shown := weekOffset + 1; shown > state.ShownWeeks {
		update.ShownWeeks = &shown
	}
	return i18n.Render(lang, headerKey, map[string]string{"slots": formatSlotList(slots)})
}

// selectSlot resolves a 1-based slot number against the most recently shown
// week and moves to confirmation.
func (e *Engine) selectSlot(state *models.ConversationState, lang, message string, update *session.StateUpdate) (string, models.ConversationStep) {
	slots := e.slots.SlotsForWeek(state.TenantID, currentWeekOffset(state), e.now())
	index, err := strconv.Atoi(strings.TrimSpace(message))
	if err != nil || index < 1 || index > len(slots) {
		slog.Debug("Engine.selectSlot: slot number out of bounds", "sessionID", state.SessionID, "input", message, "available", len(slots))
		return i18n.Render(lang, "slotRetry", nil), state.CurrentStep
	}

	slot := slots[index-1]
	update.AppointmentData = &session.AppointmentDataUpdate{
		SelectedSlotID:    &slot.ID,
		SelectedSlotLabel: &slot.Label,
	}
	return i18n.Render(lang, "confirmSummary", map[string]string{
		"name": state.UserData.Name,
		"slot": slot.Label,
	}), models.StepConfirming
}
