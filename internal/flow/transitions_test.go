package flow

import (
	"testing"

	"github.com/convodesk/convodesk/internal/models"
)

func TestIsIntentAllowed(t *testing.T) {
	tests := []struct {
		step   models.ConversationStep
		intent models.Intent
		want   bool
	}{
		{models.StepGreeting, models.IntentGreeting, true},
		{models.StepGreeting, models.IntentSelectTimeSlot, false},
		{models.StepAwaitingIntent, models.IntentScheduleAppointment, true},
		{models.StepCollectingName, models.IntentProvideName, true},
		{models.StepCollectingName, models.IntentProvideEmail, false},
		{models.StepShowingSlots, models.IntentSelectTimeSlot, true},
		{models.StepShowingSlots, models.IntentGreeting, false},
		{models.StepConfirming, models.IntentConfirmAppointment, true},
		{models.StepCompleted, models.IntentOffTopic, true},
		{models.StepGreeting, models.IntentOffTopic, false},
	}

	for _, tt := range tests {
		if got := IsIntentAllowed(tt.step, tt.intent); got != tt.want {
			t.Errorf("IsIntentAllowed(%s, %s) = %v, want %v", tt.step, tt.intent, got, tt.want)
		}
	}
}

func TestIsTransitionAllowed(t *testing.T) {
	tests := []struct {
		from   models.ConversationStep
		to     models.ConversationStep
		intent models.Intent
		want   bool
	}{
		// Declared intent targets.
		{models.StepAwaitingIntent, models.StepCollectingName, models.IntentScheduleAppointment, true},
		{models.StepAwaitingIntent, models.StepShowingSlots, models.IntentScheduleAppointment, true},
		{models.StepCollectingName, models.StepCollectingEmail, models.IntentProvideName, true},
		{models.StepCollectingPhone, models.StepShowingSlots, models.IntentDeclinePhone, true},
		{models.StepShowingSlots, models.StepConfirming, models.IntentSelectTimeSlot, true},
		{models.StepConfirming, models.StepCompleted, models.IntentConfirmAppointment, true},
		// ANY bucket loops.
		{models.StepCollectingName, models.StepCollectingName, models.IntentUnknown, true},
		{models.StepConfirming, models.StepConfirming, models.IntentAskQuestion, true},
		// Undeclared pairs are rejected even for valid intents.
		{models.StepGreeting, models.StepCompleted, models.IntentGreeting, false},
		{models.StepCollectingName, models.StepConfirming, models.IntentProvideName, false},
		{models.StepShowingSlots, models.StepCollectingName, models.IntentSelectTimeSlot, false},
		{models.StepCompleted, models.StepConfirming, models.IntentConfirmAppointment, false},
	}

	for _, tt := range tests {
		if got := IsTransitionAllowed(tt.from, tt.to, tt.intent); got != tt.want {
			t.Errorf("IsTransitionAllowed(%s, %s, %s) = %v, want %v", tt.from, tt.to, tt.intent, got, tt.want)
		}
	}
}

func TestFallbackStep(t *testing.T) {
	tests := []struct {
		step models.ConversationStep
		want models.ConversationStep
	}{
		{models.StepGreeting, models.StepAwaitingIntent},
		{models.StepCollectingName, models.StepCollectingName},
		{models.StepCollectingEmail, models.StepCollectingEmail},
		{models.StepCollectingPhone, models.StepCollectingPhone},
		{models.StepShowingSlots, models.StepAwaitingIntent},
		{models.StepConfirming, models.StepAwaitingIntent},
		{models.StepCompleted, models.StepAwaitingIntent},
	}

	for _, tt := range tests {
		got, ok := FallbackStep(tt.step)
		if !ok {
			t.Errorf("FallbackStep(%s) reported unknown step", tt.step)
			continue
		}
		if got != tt.want {
			t.Errorf("FallbackStep(%s) = %s, want %s", tt.step, got, tt.want)
		}
	}

	if _, ok := FallbackStep(models.ConversationStep("NOT_A_STEP")); ok {
		t.Error("unknown step should not have a fallback")
	}
}

func TestUnknownStepRejectsEverything(t *testing.T) {
	bogus := models.ConversationStep("NOT_A_STEP")
	if IsIntentAllowed(bogus, models.IntentGreeting) {
		t.Error("unknown step should reject all intents")
	}
	if IsTransitionAllowed(bogus, models.StepGreeting, models.IntentGreeting) {
		t.Error("unknown step should reject all transitions")
	}
}
