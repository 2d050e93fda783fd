package scheduler

import (
	"strings"
	"testing"
)

func TestSchedulerAddJob(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	if err := s.AddJob("session-purge", "* * * * *", func() {}); err != nil {
		t.Errorf("Expected no error adding job, got %v", err)
	}
}

func TestSchedulerAddJobInvalidExpression(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	err := s.AddJob("session-purge", "not a cron expr", func() {})
	if err == nil {
		t.Fatal("Expected an error for an invalid cron expression")
	}
	if !strings.Contains(err.Error(), "session-purge") {
		t.Errorf("Error should name the job, got %v", err)
	}
}
