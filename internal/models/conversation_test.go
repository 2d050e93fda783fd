package models

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestNewConversationStateDefaults(t *testing.T) {
	now := time.Date(2025, 3, 6, 12, 0, 0, 0, time.UTC)
	state := NewConversationState("sess-1", "tenant-1", now)

	if state.CurrentStep != StepGreeting {
		t.Errorf("expected initial step %s, got %s", StepGreeting, state.CurrentStep)
	}
	if state.Language != "en" {
		t.Errorf("expected default language en, got %s", state.Language)
	}
	if state.PaymentContext.Stage != StageIdle {
		t.Errorf("expected idle payment stage, got %s", state.PaymentContext.Stage)
	}
	if !state.LastActivity.Equal(now) {
		t.Errorf("expected lastActivity %v, got %v", now, state.LastActivity)
	}
}

func TestExpiredAt(t *testing.T) {
	now := time.Date(2025, 3, 6, 12, 0, 0, 0, time.UTC)
	state := NewConversationState("sess-1", "tenant-1", now)
	ttl := 30 * time.Minute

	if state.ExpiredAt(now.Add(29*time.Minute), ttl) {
		t.Error("session should not be expired within the window")
	}
	if state.ExpiredAt(now.Add(30*time.Minute), ttl) {
		t.Error("session should not be expired exactly at the window")
	}
	if !state.ExpiredAt(now.Add(30*time.Minute+time.Second), ttl) {
		t.Error("session should be expired past the window")
	}
}

func TestConversationStateRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 6, 12, 0, 0, 0, time.UTC)
	state := NewConversationState("sess-1", "tenant-1", now)
	state.CurrentStep = StepShowingSlots
	state.Language = "es"
	state.UserData = UserData{Name: "Ana Díaz", Email: "ana@example.com"}
	state.AttemptCount = AttemptCounts{Email: 2}
	state.ShownWeeks = 2
	state.ShownSlotIDs = NewStringSet("slot-a", "slot-b")
	state.TopicsDiscussed = NewStringSet("pricing")
	state.PaymentContext = PaymentContext{
		Stage:         StageAwaitingEmail,
		ProductID:     "prod-1",
		ProductName:   "Monthly Membership",
		AmountCents:   9900,
		Currency:      "USD",
		CustomerName:  "Ana Díaz",
		NameConfirmed: true,
	}
	state.ConversationHistory = []ChatMessage{
		{Role: "user", Content: "hola", Timestamp: now, Language: "es"},
	}
	state.TransitionLog = []TransitionRecord{
		{From: StepGreeting, To: StepAwaitingIntent, Intent: IntentGreeting, Reason: ReasonTransition, Timestamp: now, Source: "engine"},
	}

	first, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var restored ConversationState
	if err := json.Unmarshal(first, &restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	second, err := json.Marshal(&restored)
	if err != nil {
		t.Fatalf("second marshal failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("round trip not byte-identical:\nfirst:  %s\nsecond: %s", first, second)
	}

	if restored.PaymentContext.NameConfirmed != true {
		t.Error("nameConfirmed lost in round trip")
	}
	if restored.ShownSlotIDs.Len() != 2 {
		t.Errorf("shownSlotIds lost in round trip: %v", restored.ShownSlotIDs.Values())
	}
}

func TestIsValidIntent(t *testing.T) {
	if !IsValidIntent(IntentScheduleAppointment) {
		t.Error("SCHEDULE_APPOINTMENT should be valid")
	}
	if IsValidIntent(IntentAny) {
		t.Error("ANY is a table wildcard, not a classifier intent")
	}
	if IsValidIntent(Intent("MADE_UP")) {
		t.Error("unknown intent should be invalid")
	}
}
