package coach

import (
	"testing"
	"time"

	"github.com/nadavital/pulse/internal/models"
	"github.com/nadavital/pulse/internal/profile"
)

func defaultReviewPolicy() ThresholdReviewPolicy {
	return NewReviewPolicy(profile.ReviewConfig{
		AfterDays: 14, DeltaKg: 1.5, RecentEntries: 5, TrendLength: 4,
	})
}

// weightsDesc builds entries newest first, one per day ending at end.
func weightsDesc(end time.Time, kgs ...float64) []models.WeightEntry {
	entries := make([]models.WeightEntry, len(kgs))
	for i, kg := range kgs {
		entries[i] = models.WeightEntry{
			ID:       string(rune('a' + i)),
			WeightKg: kg,
			LoggedAt: end.AddDate(0, 0, -i),
		}
	}
	return entries
}

func TestReviewElapsedWithDelta(t *testing.T) {
	now := day(2026, 1, 28, 9, 0)
	lastReview := now.AddDate(0, 0, -20)
	entries := weightsDesc(now, 78.0, 78.5, 79.2, 79.8, 80.1)

	trigger := defaultReviewPolicy().Evaluate(entries, lastReview, now)

	if trigger == nil {
		t.Fatal("expected a review trigger")
	}
	if trigger.Reason != "elapsed_delta" && trigger.Reason != "sustained_trend" {
		t.Errorf("unexpected reason %q", trigger.Reason)
	}
	if trigger.NetDeltaKg > 0 {
		t.Errorf("expected negative net delta for weight loss, got %v", trigger.NetDeltaKg)
	}
}

func TestReviewElapsedWithoutDelta(t *testing.T) {
	now := day(2026, 1, 28, 9, 0)
	lastReview := now.AddDate(0, 0, -20)
	// Stable weight bouncing around 80, no sustained direction.
	entries := weightsDesc(now, 80.1, 79.9, 80.2, 79.8, 80.0)

	trigger := defaultReviewPolicy().Evaluate(entries, lastReview, now)

	if trigger != nil {
		t.Errorf("expected no trigger for stable weight, got %+v", trigger)
	}
}

func TestReviewRecentButSustainedTrend(t *testing.T) {
	now := day(2026, 1, 28, 9, 0)
	lastReview := now.AddDate(0, 0, -3) // reviewed recently

	// Four consecutive losses fire the trend rule regardless of elapsed time.
	entries := weightsDesc(now, 77.0, 77.6, 78.1, 78.9)

	trigger := defaultReviewPolicy().Evaluate(entries, lastReview, now)

	if trigger == nil {
		t.Fatal("expected sustained-trend trigger")
	}
	if trigger.Reason != "sustained_trend" {
		t.Errorf("expected sustained_trend, got %q", trigger.Reason)
	}
}

func TestReviewNeverReviewedCountsAsOverdue(t *testing.T) {
	now := day(2026, 1, 28, 9, 0)
	entries := weightsDesc(now, 78.0, 79.0, 79.1, 80.0, 80.2)

	trigger := defaultReviewPolicy().Evaluate(entries, time.Time{}, now)

	if trigger == nil {
		t.Fatal("expected trigger when no review ever happened and weight moved")
	}
	if trigger.DaysSince != -1 {
		t.Errorf("DaysSince = %d, want -1 when no review on record", trigger.DaysSince)
	}
}

func TestReviewTooFewEntries(t *testing.T) {
	now := day(2026, 1, 28, 9, 0)
	entries := weightsDesc(now, 80.0)

	if trigger := defaultReviewPolicy().Evaluate(entries, time.Time{}, now); trigger != nil {
		t.Errorf("expected no trigger with one entry, got %+v", trigger)
	}
}

func TestDirectionalRun(t *testing.T) {
	now := day(2026, 1, 28, 9, 0)

	tests := []struct {
		name string
		kgs  []float64
		want int
	}{
		{"strict loss", []float64{77, 78, 79, 80}, 4},
		{"strict gain", []float64{80, 79, 78}, 3},
		{"direction flips", []float64{78, 79, 78.5, 80}, 2},
		{"plateau stops the run", []float64{78, 78, 79}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := directionalRun(weightsDesc(now, tt.kgs...)); got != tt.want {
				t.Errorf("directionalRun(%v) = %d, want %d", tt.kgs, got, tt.want)
			}
		})
	}
}
