package coach

import (
	"fmt"
	"strings"
)

// TrendSnapshot summarizes the last week of behavior for the coach.
type TrendSnapshot struct {
	WindowDays           int `json:"window_days"`
	DaysSinceLastWorkout int `json:"days_since_last_workout"` // -1 when none in window
	LowProteinStreak     int `json:"low_protein_streak"`
	DaysWithFood         int `json:"days_with_food"`
	ProteinGoalHits      int `json:"protein_goal_hits"`
}

// BuildTrendSnapshot derives the trend snapshot from a dense daily
// series, oldest first, as produced by AggregateDaily. The low-protein
// streak counts trailing consecutive logged days below the protein
// goal; a day with no food log breaks the streak rather than extending
// it, since silence is not evidence of low protein.
func BuildTrendSnapshot(days []DailyTotals, proteinGoalG float64) TrendSnapshot {
	snap := TrendSnapshot{WindowDays: len(days), DaysSinceLastWorkout: -1}

	for i := len(days) - 1; i >= 0; i-- {
		if days[i].WorkoutCount > 0 {
			snap.DaysSinceLastWorkout = len(days) - 1 - i
			break
		}
	}

	for _, d := range days {
		if d.HasFood() {
			snap.DaysWithFood++
			if d.ProteinG >= proteinGoalG {
				snap.ProteinGoalHits++
			}
		}
	}

	for i := len(days) - 1; i >= 0; i-- {
		if !days[i].HasFood() || days[i].ProteinG >= proteinGoalG {
			break
		}
		snap.LowProteinStreak++
	}

	return snap
}

// Digest is a compact deterministic rendering used in the cache
// fingerprint.
func (t TrendSnapshot) Digest() string {
	return fmt.Sprintf("w%d:lw%d:lp%d:df%d:ph%d",
		t.WindowDays, t.DaysSinceLastWorkout, t.LowProteinStreak, t.DaysWithFood, t.ProteinGoalHits)
}

// Describe renders the snapshot as short phrases for the prompt
// summary. Only notable facts are mentioned.
func (t TrendSnapshot) Describe() []string {
	var lines []string

	switch {
	case t.DaysSinceLastWorkout < 0:
		lines = append(lines, fmt.Sprintf("no workout in the last %d days", t.WindowDays))
	case t.DaysSinceLastWorkout == 0:
		lines = append(lines, "worked out today")
	case t.DaysSinceLastWorkout == 1:
		lines = append(lines, "last workout was yesterday")
	default:
		lines = append(lines, fmt.Sprintf("last workout was %d days ago", t.DaysSinceLastWorkout))
	}

	if t.LowProteinStreak >= 2 {
		lines = append(lines, fmt.Sprintf("protein below goal %d days running", t.LowProteinStreak))
	}
	if t.DaysWithFood > 0 {
		lines = append(lines, fmt.Sprintf("food logged on %d of %d days", t.DaysWithFood, t.WindowDays))
	}
	if t.ProteinGoalHits > 0 {
		lines = append(lines, fmt.Sprintf("hit protein goal %s", pluralDays(t.ProteinGoalHits)))
	}

	return lines
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// joinPhrases is a small helper for prompt assembly.
func joinPhrases(phrases []string) string {
	return strings.Join(phrases, "; ")
}
