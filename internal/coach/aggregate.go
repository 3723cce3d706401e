package coach

import (
	"math"
	"time"

	"github.com/nadavital/pulse/internal/models"
)

// DailyTotals is the derived per-day aggregate. It is recomputed on
// demand and never stored.
type DailyTotals struct {
	Day            time.Time `json:"day"` // local midnight
	Calories       float64   `json:"calories"`
	ProteinG       float64   `json:"protein_g"`
	CarbsG         float64   `json:"carbs_g"`
	FatG           float64   `json:"fat_g"`
	WorkoutCount   int       `json:"workout_count"`
	WorkoutMinutes float64   `json:"workout_minutes"`
	VolumeKg       float64   `json:"volume_kg"`
	RemindersDone  int       `json:"reminders_done"`
}

// HasFood reports whether any food was logged that day. Averages over
// a window must divide by days with data, not window length.
func (d DailyTotals) HasFood() bool {
	return d.Calories > 0 || d.ProteinG > 0 || d.CarbsG > 0 || d.FatG > 0
}

// AggregateDaily buckets events into one DailyTotals per calendar day
// in [start, end). Days without events still appear with zero totals;
// downstream streak and chart logic needs the series dense. Day
// membership comes from each event's timestamp in loc. Runs in O(n)
// over the supplied events; callers pre-filter to a bounded window.
func AggregateDaily(foods []models.FoodEntry, workouts []models.WorkoutSession, completions []models.ReminderCompletion, start, end time.Time, loc *time.Location) []DailyTotals {
	startDay := dayStart(start, loc)
	endDay := dayStart(end, loc)
	n := daysBetween(startDay, endDay)
	if n <= 0 {
		return nil
	}

	days := make([]DailyTotals, n)
	for i := range days {
		days[i] = DailyTotals{Day: startDay.AddDate(0, 0, i)}
	}

	idx := func(t time.Time) int {
		return daysBetween(startDay, dayStart(t, loc))
	}

	for _, f := range foods {
		i := idx(f.LoggedAt)
		if i < 0 || i >= n {
			continue
		}
		days[i].Calories += f.Calories
		days[i].ProteinG += f.ProteinG
		days[i].CarbsG += f.CarbsG
		days[i].FatG += f.FatG
	}

	for _, w := range workouts {
		// In-progress sessions have no final duration or volume and do
		// not count as training yet; the completion re-post replaces
		// the row and lands in the totals then.
		if w.Live {
			continue
		}
		i := idx(w.StartedAt)
		if i < 0 || i >= n {
			continue
		}
		days[i].WorkoutCount++
		days[i].WorkoutMinutes += w.DurationMin
		days[i].VolumeKg += w.VolumeKg
	}

	for _, c := range completions {
		i := idx(c.CompletedAt)
		if i < 0 || i >= n {
			continue
		}
		days[i].RemindersDone++
	}

	return days
}

// AverageCaloriesLoggedDays averages calories over days that have food
// data. A window with three silent days out of seven divides by four.
// Returns 0 when no day has data.
func AverageCaloriesLoggedDays(days []DailyTotals) float64 {
	var sum float64
	var logged int
	for _, d := range days {
		if d.HasFood() {
			sum += d.Calories
			logged++
		}
	}
	if logged == 0 {
		return 0
	}
	return sum / float64(logged)
}

// dayStart truncates t to local midnight in loc.
func dayStart(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days from a to b, both local midnights.
// Rounding absorbs the 23h and 25h days DST produces.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
