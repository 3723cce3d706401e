package coach

import (
	"testing"
	"time"

	"github.com/nadavital/pulse/internal/models"
)

func day(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestAggregateDailyDensity(t *testing.T) {
	start := day(2026, 1, 5, 0, 0)
	end := start.AddDate(0, 0, 5)

	days := AggregateDaily(nil, nil, nil, start, end, time.UTC)

	if len(days) != 5 {
		t.Fatalf("expected 5 entries for a 5-day window, got %d", len(days))
	}
	seen := make(map[string]bool)
	for _, d := range days {
		key := d.Day.Format("2006-01-02")
		if seen[key] {
			t.Errorf("duplicate day %s", key)
		}
		seen[key] = true
		if d.Calories != 0 || d.WorkoutCount != 0 {
			t.Errorf("expected zero totals for empty input, got %+v", d)
		}
	}
}

func TestAggregateDailySums(t *testing.T) {
	start := day(2026, 1, 5, 0, 0)
	end := start.AddDate(0, 0, 2)

	foods := []models.FoodEntry{
		{ID: "f1", Calories: 500, ProteinG: 40, LoggedAt: day(2026, 1, 5, 8, 0)},
		{ID: "f2", Calories: 700, ProteinG: 35, LoggedAt: day(2026, 1, 5, 19, 30)},
		{ID: "f3", Calories: 300, ProteinG: 20, LoggedAt: day(2026, 1, 6, 12, 0)},
		{ID: "f4", Calories: 999, LoggedAt: day(2026, 1, 7, 9, 0)}, // outside window
	}
	workouts := []models.WorkoutSession{
		{ID: "w1", StartedAt: day(2026, 1, 6, 7, 0), DurationMin: 45, VolumeKg: 4000},
	}
	completions := []models.ReminderCompletion{
		{ID: "c1", CompletedAt: day(2026, 1, 5, 8, 5)},
	}

	days := AggregateDaily(foods, workouts, completions, start, end, time.UTC)

	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if days[0].Calories != 1200 || days[0].ProteinG != 75 {
		t.Errorf("day 1 totals wrong: %+v", days[0])
	}
	if days[0].RemindersDone != 1 {
		t.Errorf("expected 1 reminder done on day 1, got %d", days[0].RemindersDone)
	}
	if days[1].WorkoutCount != 1 || days[1].WorkoutMinutes != 45 || days[1].VolumeKg != 4000 {
		t.Errorf("day 2 workout totals wrong: %+v", days[1])
	}
}

func TestAggregateDailySkipsLiveSessions(t *testing.T) {
	start := day(2026, 1, 5, 0, 0)
	end := start.AddDate(0, 0, 1)

	workouts := []models.WorkoutSession{
		{ID: "w1", StartedAt: day(2026, 1, 5, 7, 0), Live: true},
	}

	days := AggregateDaily(nil, workouts, nil, start, end, time.UTC)
	if days[0].WorkoutCount != 0 {
		t.Errorf("in-progress session counted as training: %+v", days[0])
	}

	// The completion re-post replaces the live row and counts
	workouts[0].Live = false
	workouts[0].CompletedAt = day(2026, 1, 5, 8, 0)
	workouts[0].DurationMin = 60

	days = AggregateDaily(nil, workouts, nil, start, end, time.UTC)
	if days[0].WorkoutCount != 1 || days[0].WorkoutMinutes != 60 {
		t.Errorf("completed session missing from totals: %+v", days[0])
	}
}

func TestAverageCaloriesDividesByLoggedDays(t *testing.T) {
	start := day(2026, 1, 5, 0, 0)
	end := start.AddDate(0, 0, 7)

	// 4 days with food, 3 silent days
	var foods []models.FoodEntry
	for i, cal := range []float64{2000, 1800, 2200, 2000} {
		foods = append(foods, models.FoodEntry{
			ID:       string(rune('a' + i)),
			Calories: cal,
			LoggedAt: start.AddDate(0, 0, i).Add(9 * time.Hour),
		})
	}

	days := AggregateDaily(foods, nil, nil, start, end, time.UTC)
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}

	var zeroDays int
	for _, d := range days {
		if !d.HasFood() {
			zeroDays++
		}
	}
	if zeroDays != 3 {
		t.Errorf("expected 3 zero days, got %d", zeroDays)
	}

	avg := AverageCaloriesLoggedDays(days)
	if avg != 2000 {
		t.Errorf("expected average 2000 over 4 logged days, got %.0f", avg)
	}
}

func TestAverageCaloriesEmptyWindow(t *testing.T) {
	days := AggregateDaily(nil, nil, nil, day(2026, 1, 5, 0, 0), day(2026, 1, 12, 0, 0), time.UTC)
	if avg := AverageCaloriesLoggedDays(days); avg != 0 {
		t.Errorf("expected 0 average with no data, got %.2f", avg)
	}
}
