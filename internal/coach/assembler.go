package coach

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nadavital/pulse/internal/models"
	"github.com/nadavital/pulse/internal/profile"
	"github.com/nadavital/pulse/internal/store"
)

// Query bounds. Reads are windowed and limited so assembly never
// rescans full history. Pattern inference needs weeks of samples to
// find a weekday routine, so workouts and weights are fetched over the
// longer window and the 7-day aggregate is sliced out of it.
const (
	trendWindowDays   = 7
	patternWindowDays = 90
	eventLimit        = 1000
)

// Assembler merges windowed aggregates, inferred patterns, habit
// scores and the plan-review policy into one DailyCoachContext. It
// only reads; caching and gate persistence belong to the callers.
type Assembler struct {
	store   *store.Store
	profile *profile.Profile
	clock   clockwork.Clock
	loc     *time.Location
	pattern PatternPolicy
	habit   HabitPolicy
	review  ReviewPolicy
}

func NewAssembler(s *store.Store, p *profile.Profile, clock clockwork.Clock, loc *time.Location) *Assembler {
	return &Assembler{
		store:   s,
		profile: p,
		clock:   clock,
		loc:     loc,
		pattern: DefaultPatternPolicy(),
		habit:   DefaultHabitPolicy(),
		review:  NewReviewPolicy(p.Review),
	}
}

// Revision exposes the store's write counter so the cache can check
// freshness without a full gather.
func (a *Assembler) Revision() (int64, error) {
	return a.store.Revision()
}

// Inputs is everything Assemble reads from the store, gathered in one
// pass so the build step stays pure.
type Inputs struct {
	Now         time.Time
	Revision    int64
	Foods       []models.FoodEntry
	Workouts    []models.WorkoutSession     // trailing pattern window
	Completions []models.ReminderCompletion // trailing habit window
	Weights     []models.WeightEntry        // trailing pattern/review window
	Signals     []models.ActiveSignal
	Gate        models.PromptGateState
	LastReview  time.Time
}

// Gather performs all store reads for one assembly.
func (a *Assembler) Gather() (*Inputs, error) {
	now := a.clock.Now()
	in := &Inputs{Now: now}

	var err error
	if in.Revision, err = a.store.Revision(); err != nil {
		return nil, fmt.Errorf("reading revision: %w", err)
	}

	windowStart := dayStart(now, a.loc).AddDate(0, 0, -(trendWindowDays - 1))
	windowEnd := dayStart(now, a.loc).AddDate(0, 0, 1)

	if in.Foods, err = a.store.FoodBetween(windowStart, windowEnd, eventLimit); err != nil {
		return nil, fmt.Errorf("reading food entries: %w", err)
	}

	patternStart := now.AddDate(0, 0, -patternWindowDays)
	if in.Workouts, err = a.store.WorkoutsBetween(patternStart, windowEnd, eventLimit); err != nil {
		return nil, fmt.Errorf("reading workouts: %w", err)
	}

	habitStart := now.AddDate(0, 0, -a.habit.WindowDays)
	if in.Completions, err = a.store.CompletionsBetween("", habitStart, windowEnd, eventLimit); err != nil {
		return nil, fmt.Errorf("reading completions: %w", err)
	}

	if in.Weights, err = a.store.WeightsBetween(patternStart, windowEnd, eventLimit); err != nil {
		return nil, fmt.Errorf("reading weights: %w", err)
	}

	if in.Signals, err = a.store.ActiveSignals(now); err != nil {
		return nil, fmt.Errorf("reading signals: %w", err)
	}
	if in.Gate, err = a.store.GateState(); err != nil {
		return nil, fmt.Errorf("reading gate state: %w", err)
	}
	if in.LastReview, err = a.store.LastPlanReview(); err != nil {
		return nil, fmt.Errorf("reading last review: %w", err)
	}

	return in, nil
}

// Build assembles the context from gathered inputs. Pure: no I/O, no
// writes, deterministic for a given Inputs and profile.
func (a *Assembler) Build(in *Inputs) *DailyCoachContext {
	now := in.Now
	today := dayStart(now, a.loc)
	windowStart := today.AddDate(0, 0, -(trendWindowDays - 1))
	windowEnd := today.AddDate(0, 0, 1)

	days := AggregateDaily(in.Foods, in.Workouts, in.Completions, windowStart, windowEnd, a.loc)
	todayTotals := days[len(days)-1]
	trained := todayTotals.WorkoutCount > 0

	ctx := &DailyCoachContext{
		GeneratedAt:   now,
		Revision:      in.Revision,
		Today:         todayTotals,
		CalorieGoal:   a.profile.EffectiveCalorieGoal(trained),
		ProteinGoalG:  a.profile.ProteinGoalG,
		TrainingDay:   trained,
		AvgCalories7d: AverageCaloriesLoggedDays(days),
		ActiveSignals: in.Signals,
		Trend:         BuildTrendSnapshot(days, a.profile.ProteinGoalG),
		Tone:          a.profile.Tone,
	}

	ctx.WeightPattern = InferPattern(weightTimes(in.Weights), a.loc, a.pattern)
	ctx.WorkoutPattern = InferPattern(workoutTimes(in.Workouts), a.loc, a.pattern)

	ctx.ReminderRate = a.reminderRate(in.Completions, now)
	ctx.DaysSinceWeightLog = daysSinceWeight(in.Weights, now, a.loc)
	ctx.PendingReminders = a.rankPendingReminders(in, today, windowEnd)
	ctx.PlanReview = a.review.Evaluate(in.Weights, in.LastReview, now)

	return ctx
}

// rankPendingReminders builds one candidate per reminder not yet
// completed today and orders them by habit score.
func (a *Assembler) rankPendingReminders(in *Inputs, today, tomorrow time.Time) []Candidate {
	completedToday := make(map[string]bool)
	byReminder := make(map[string][]models.ReminderCompletion)
	for _, c := range in.Completions {
		byReminder[c.ReminderID] = append(byReminder[c.ReminderID], c)
		if !c.CompletedAt.Before(today) && c.CompletedAt.Before(tomorrow) {
			completedToday[c.ReminderID] = true
		}
	}

	var pending []Candidate
	for _, r := range a.profile.Reminders {
		if completedToday[r.ID] {
			continue
		}
		pending = append(pending, Candidate{
			ID:              r.ID,
			Kind:            CandidateReminder,
			Name:            r.Name,
			ScheduledMinute: r.ScheduledMinute,
		})
	}

	return Rank(pending, func(c Candidate) float64 {
		return HabitScore(byReminder[c.ID], c.ScheduledMinute, in.Now, a.loc, a.habit)
	})
}

// reminderRate is completions over scheduled occurrences in the trend
// window, clamped to 1. No configured reminders means rate 0.
func (a *Assembler) reminderRate(completions []models.ReminderCompletion, now time.Time) float64 {
	if len(a.profile.Reminders) == 0 {
		return 0
	}
	windowStart := now.AddDate(0, 0, -trendWindowDays)
	var count int
	for _, c := range completions {
		if !c.CompletedAt.Before(windowStart) {
			count++
		}
	}
	scheduled := len(a.profile.Reminders) * trendWindowDays
	return minFloat(1, float64(count)/float64(scheduled))
}

func daysSinceWeight(weights []models.WeightEntry, now time.Time, loc *time.Location) int {
	if len(weights) == 0 {
		return -1
	}
	// weights are newest first
	return daysBetween(dayStart(weights[0].LoggedAt, loc), dayStart(now, loc))
}

func weightTimes(entries []models.WeightEntry) []time.Time {
	times := make([]time.Time, len(entries))
	for i, e := range entries {
		times[i] = e.LoggedAt
	}
	return times
}

func workoutTimes(sessions []models.WorkoutSession) []time.Time {
	times := make([]time.Time, len(sessions))
	for i, w := range sessions {
		times[i] = w.StartedAt
	}
	return times
}
