package workers

import (
	"context"
	"testing"
	"time"

	"github.com/parakeep/organizer/internal/queue"
)

func TestScheduler_ScheduleStatisticsJobs(t *testing.T) {
	t.Parallel()

	jq := &mockJobQueue{}
	s := NewScheduler(jq, "/vault", nil)

	if err := s.ScheduleStatisticsJobs(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(jq.enqueued) != 2 {
		t.Fatalf("enqueued = %d, want morning and evening slots", len(jq.enqueued))
	}

	now := time.Now()
	seenHours := map[int]bool{}
	for _, job := range jq.enqueued {
		if job.Type != queue.JobTypeAnalyzeStatistics {
			t.Errorf("job type = %s, want analyze_statistics", job.Type)
		}
		if job.VaultRoot != "/vault" {
			t.Errorf("vault root = %q, want /vault", job.VaultRoot)
		}
		if job.NotBefore == nil || job.NotBefore.Before(now) {
			t.Error("slot must be in the future")
			continue
		}
		seenHours[job.NotBefore.Hour()] = true
		if job.NotAfter == nil || !job.NotAfter.Equal(job.NotBefore.Add(24*time.Hour)) {
			t.Error("jobs should expire a day after their slot")
		}
	}

	if !seenHours[8] || !seenHours[20] {
		t.Errorf("slots at hours %v, want 08:00 and 20:00", seenHours)
	}
}
