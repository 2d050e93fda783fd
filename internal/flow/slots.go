package flow

import (
	"fmt"
	"strings"
	"time"
)

// Slot is one bookable time offered to the user.
type Slot struct {
	ID    string
	Label string
	Start time.Time
}

// SlotProvider produces the bookable slots for a tenant's week. weekOffset 0
// is the week starting next Monday.
type SlotProvider interface {
	SlotsForWeek(tenantID string, weekOffset int, now time.Time) []Slot
}

// slotHours are the daily appointment times offered by the built-in provider.
var slotHours = []int{10, 15}

// WeeklySlotProvider generates deterministic business-hour slots: Monday
// through Wednesday of the requested week at fixed hours. Determinism
// matters because slot selection by number re-derives the same list.
type WeeklySlotProvider struct{}

// SlotsForWeek returns the week's slots in chronological order.
func (WeeklySlotProvider) SlotsForWeek(tenantID string, weekOffset int, now time.Time) []Slot {
	monday := nextMonday(now).AddDate(0, 0, 7*weekOffset)
	var slots []Slot
	for day := 0; day < 3; day++ {
		date := monday.AddDate(0, 0, day)
		for _, hour := range slotHours {
			start := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, now.Location())
			slots = append(slots, Slot{
				ID:    fmt.Sprintf("slot-%s-%02d00", start.Format("2006-01-02"), hour),
				Label: start.Format("Mon Jan 2, 15:04"),
				Start: start,
			})
		}
	}
	return slots
}

// nextMonday returns the Monday strictly after now's date.
func nextMonday(now time.Time) time.Time {
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for {
		date = date.AddDate(0, 0, 1)
		if date.Weekday() == time.Monday {
			return date
		}
	}
}

// formatSlotList renders a numbered slot list for a message body.
func formatSlotList(slots []Slot) string {
	lines := make([]string, len(slots))
	for i, slot := range slots {
		lines[i] = fmt.Sprintf("%d. %s", i+1, slot.Label)
	}
	return strings.Join(lines, "\n")
}
