package coach

import (
	"time"

	"github.com/nadavital/pulse/internal/models"
)

// HabitPolicy holds the scoring weights. The numbers are empirically
// tuned, not derived from a model; keep them adjustable.
type HabitPolicy struct {
	WindowDays      int     // trailing completion window
	RecencyWeight   float64 // share for how recent the completion is
	TimeWeight      float64 // share for time-of-day proximity
	WeekdayWeight   float64 // flat bonus for matching weekday
	OnTimeBonus     float64 // flat bonus for completing near schedule
	OnTimeSlackMin  int     // minutes around schedule that count as on time
	TimeSpreadMin   float64 // minute distance at which time match reaches zero
	MaxContribution float64 // normalization divisor, the max per-completion sum
	RateTarget      float64 // completions at which the rate term saturates
}

// DefaultHabitPolicy matches the tuned production weights.
func DefaultHabitPolicy() HabitPolicy {
	return HabitPolicy{
		WindowDays:      30,
		RecencyWeight:   0.5,
		TimeWeight:      0.25,
		WeekdayWeight:   0.2,
		OnTimeBonus:     0.15,
		OnTimeSlackMin:  30,
		TimeSpreadMin:   180,
		MaxContribution: 1.35,
		RateTarget:      3,
	}
}

// HabitScore estimates, in [0,1], how likely the user is to perform a
// scheduled action now, from its completion history. Each completion
// inside the trailing window contributes a blend of recency decay,
// time-of-day proximity, weekday match and an on-time bonus; the
// average is normalized by the maximum attainable contribution and
// blended with a sample-size term. No completions at all scores 0:
// silence is low habit strength, not "unknown".
func HabitScore(completions []models.ReminderCompletion, scheduledMinute int, now time.Time, loc *time.Location, policy HabitPolicy) float64 {
	windowDays := float64(policy.WindowDays)
	nowLocal := now.In(loc)

	var sum float64
	var counted int
	for _, c := range completions {
		daysSince := now.Sub(c.CompletedAt).Hours() / 24.0
		if daysSince < 0 || daysSince > windowDays {
			continue
		}

		recency := (windowDays - daysSince) / windowDays

		ct := c.CompletedAt.In(loc)
		completedMinute := ct.Hour()*60 + ct.Minute()
		dist := circularMinuteDistance(completedMinute, scheduledMinute)
		timeMatch := 1 - minFloat(1, float64(dist)/policy.TimeSpreadMin)

		var weekdayMatch float64
		if ct.Weekday() == nowLocal.Weekday() {
			weekdayMatch = policy.WeekdayWeight
		}

		var onTime float64
		if circularMinuteDistance(completedMinute, c.ScheduledMinute) <= policy.OnTimeSlackMin {
			onTime = policy.OnTimeBonus
		}

		sum += policy.RecencyWeight*recency + policy.TimeWeight*timeMatch + weekdayMatch + onTime
		counted++
	}

	if counted == 0 {
		return 0
	}

	avgConfidence := clamp01(sum / float64(counted) / policy.MaxContribution)
	completionRate := minFloat(1, float64(counted)/policy.RateTarget)

	return clamp01(0.75*avgConfidence + 0.25*completionRate)
}

// circularMinuteDistance is the shortest distance between two times of
// day in minutes, wrapping at 24h: 23:50 and 00:10 are 20 minutes
// apart, not 23h40m.
func circularMinuteDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	d %= 24 * 60
	if d > 12*60 {
		d = 24*60 - d
	}
	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
