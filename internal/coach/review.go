package coach

import (
	"fmt"
	"math"
	"time"

	"github.com/nadavital/pulse/internal/models"
	"github.com/nadavital/pulse/internal/profile"
)

// ReviewTrigger recommends revisiting the plan. Nil means no trigger.
type ReviewTrigger struct {
	Reason     string  `json:"reason"` // "elapsed_delta" or "sustained_trend"
	NetDeltaKg float64 `json:"net_delta_kg"`
	DaysSince  int     `json:"days_since_review"`
}

// ReviewPolicy decides when a plan review is due. The thresholds are
// goal-dependent; hosts may swap in their own mapping.
type ReviewPolicy interface {
	Evaluate(entries []models.WeightEntry, lastReview, now time.Time) *ReviewTrigger
}

// ThresholdReviewPolicy is the default policy: enough elapsed time
// combined with a real net weight change, or a sustained directional
// run regardless of elapsed time.
type ThresholdReviewPolicy struct {
	AfterDays     int
	DeltaKg       float64
	RecentEntries int
	TrendLength   int
}

// NewReviewPolicy builds the default policy from profile configuration.
func NewReviewPolicy(cfg profile.ReviewConfig) ThresholdReviewPolicy {
	return ThresholdReviewPolicy{
		AfterDays:     cfg.AfterDays,
		DeltaKg:       cfg.DeltaKg,
		RecentEntries: cfg.RecentEntries,
		TrendLength:   cfg.TrendLength,
	}
}

// Evaluate implements ReviewPolicy. Entries are most recent first, as
// the store returns them. A zero lastReview counts as long elapsed:
// a user who never reviewed is overdue, not exempt. The trigger
// reports -1 days in that case rather than the internal max.
func (p ThresholdReviewPolicy) Evaluate(entries []models.WeightEntry, lastReview, now time.Time) *ReviewTrigger {
	if len(entries) < 2 {
		return nil
	}

	daysSince := math.MaxInt32
	reported := -1
	if !lastReview.IsZero() {
		daysSince = int(now.Sub(lastReview).Hours() / 24)
		reported = daysSince
	}

	recent := entries
	if len(recent) > p.RecentEntries {
		recent = recent[:p.RecentEntries]
	}
	// net change = newest - oldest of the recent slice
	netDelta := recent[0].WeightKg - recent[len(recent)-1].WeightKg

	if daysSince >= p.AfterDays && math.Abs(netDelta) > p.DeltaKg {
		return &ReviewTrigger{
			Reason:     "elapsed_delta",
			NetDeltaKg: netDelta,
			DaysSince:  reported,
		}
	}

	if run := directionalRun(entries); run >= p.TrendLength {
		return &ReviewTrigger{
			Reason:     "sustained_trend",
			NetDeltaKg: netDelta,
			DaysSince:  reported,
		}
	}

	return nil
}

// directionalRun counts how many consecutive measurements, starting
// from the newest, move strictly in one direction.
func directionalRun(entries []models.WeightEntry) int {
	if len(entries) < 2 {
		return len(entries)
	}

	// entries are newest first; walk backwards in time
	dir := 0
	run := 1
	for i := 0; i < len(entries)-1; i++ {
		newer, older := entries[i].WeightKg, entries[i+1].WeightKg
		step := 0
		switch {
		case newer > older:
			step = 1
		case newer < older:
			step = -1
		default:
			return run
		}
		if dir == 0 {
			dir = step
		} else if step != dir {
			return run
		}
		run++
	}
	return run
}

// Describe renders the trigger for the prompt summary.
func (r *ReviewTrigger) Describe() string {
	if r == nil {
		return ""
	}
	direction := "down"
	if r.NetDeltaKg > 0 {
		direction = "up"
	}
	if r.Reason == "sustained_trend" {
		return fmt.Sprintf("weight trending steadily %s; plan review suggested", direction)
	}
	if r.DaysSince < 0 {
		return fmt.Sprintf("weight moved %.1f kg with no plan review on record; review suggested", math.Abs(r.NetDeltaKg))
	}
	return fmt.Sprintf("weight moved %.1f kg since last review; plan review suggested", math.Abs(r.NetDeltaKg))
}
