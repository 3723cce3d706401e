package store

import (
	"os"
	"testing"
	"time"

	"github.com/nadavital/pulse/internal/models"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "pulse-store-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	tmpFile.Close()

	s, err := Open(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("opening store: %v", err)
	}

	cleanup := func() {
		s.Close()
		os.Remove(tmpFile.Name())
	}

	return s, cleanup
}

func TestRevisionBumpsOnWrite(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	before, err := s.Revision()
	if err != nil {
		t.Fatalf("reading revision: %v", err)
	}

	err = s.AddFood(models.FoodEntry{ID: "food_1", Name: "oats", Calories: 320, ProteinG: 12, LoggedAt: time.Now()})
	if err != nil {
		t.Fatalf("adding food: %v", err)
	}

	after, err := s.Revision()
	if err != nil {
		t.Fatalf("reading revision: %v", err)
	}
	if after != before+1 {
		t.Errorf("expected revision %d, got %d", before+1, after)
	}
}

func TestFoodBetweenWindowAndOrder(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"f1", "f2", "f3"} {
		err := s.AddFood(models.FoodEntry{ID: id, Name: "meal", Calories: 100, LoggedAt: base.Add(time.Duration(i) * time.Hour)})
		if err != nil {
			t.Fatalf("adding food: %v", err)
		}
	}

	// Window excludes the last entry (end is exclusive)
	entries, err := s.FoodBetween(base, base.Add(2*time.Hour), 100)
	if err != nil {
		t.Fatalf("querying food: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "f2" || entries[1].ID != "f1" {
		t.Errorf("expected descending order f2,f1 got %s,%s", entries[0].ID, entries[1].ID)
	}
}

func TestBehaviorBetweenWindowAndOrder(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"b1", "b2", "b3"} {
		err := s.AddBehavior(models.BehaviorEvent{ID: id, Kind: "app_open", OccurredAt: base.Add(time.Duration(i) * time.Hour)})
		if err != nil {
			t.Fatalf("adding behavior: %v", err)
		}
	}

	events, err := s.BehaviorBetween(base, base.Add(2*time.Hour), 100)
	if err != nil {
		t.Fatalf("querying behavior: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != "b2" || events[1].ID != "b1" {
		t.Errorf("expected descending order b2,b1 got %s,%s", events[0].ID, events[1].ID)
	}
}

func TestWorkoutLiveRoundTrip(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	started := time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)
	err := s.AddWorkout(models.WorkoutSession{ID: "w1", Template: "push-day", StartedAt: started, Live: true})
	if err != nil {
		t.Fatalf("adding live workout: %v", err)
	}

	sessions, err := s.WorkoutsBetween(started.Add(-time.Hour), started.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("querying workouts: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if !sessions[0].Live {
		t.Error("expected live session")
	}
	if !sessions[0].CompletedAt.IsZero() {
		t.Error("expected zero completed_at for live session")
	}

	// Completing the session replaces the row
	err = s.AddWorkout(models.WorkoutSession{
		ID: "w1", Template: "push-day", StartedAt: started,
		CompletedAt: started.Add(45 * time.Minute), DurationMin: 45, VolumeKg: 5200,
	})
	if err != nil {
		t.Fatalf("completing workout: %v", err)
	}

	sessions, _ = s.WorkoutsBetween(started.Add(-time.Hour), started.Add(time.Hour), 10)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session after completion, got %d", len(sessions))
	}
	if sessions[0].Live || sessions[0].CompletedAt.IsZero() {
		t.Error("expected completed session after replace")
	}
}

func TestCompletionsFilterByReminder(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	now := time.Now()
	s.AddCompletion(models.ReminderCompletion{ID: "c1", ReminderID: "rem_water", CompletedAt: now, ScheduledMinute: 600})
	s.AddCompletion(models.ReminderCompletion{ID: "c2", ReminderID: "rem_weigh", CompletedAt: now, ScheduledMinute: 480})

	all, err := s.CompletionsBetween("", now.Add(-time.Hour), now.Add(time.Hour), 100)
	if err != nil {
		t.Fatalf("querying completions: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 completions, got %d", len(all))
	}

	water, err := s.CompletionsBetween("rem_water", now.Add(-time.Hour), now.Add(time.Hour), 100)
	if err != nil {
		t.Fatalf("querying filtered completions: %v", err)
	}
	if len(water) != 1 || water[0].ReminderID != "rem_water" {
		t.Errorf("expected only rem_water completions, got %v", water)
	}
}

func TestActiveSignalsLifecycle(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	now := time.Now()
	err := s.RaiseSignal(models.ActiveSignal{
		ID: "sig_1", Kind: "low_protein", Detail: "3 days below goal",
		RaisedAt: now, ExpiresAt: now.Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("raising signal: %v", err)
	}
	err = s.RaiseSignal(models.ActiveSignal{
		ID: "sig_2", Kind: "missed_workout",
		RaisedAt: now.Add(-72 * time.Hour), ExpiresAt: now.Add(-24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("raising expired signal: %v", err)
	}

	active, err := s.ActiveSignals(now)
	if err != nil {
		t.Fatalf("reading active signals: %v", err)
	}
	if len(active) != 1 || active[0].ID != "sig_1" {
		t.Errorf("expected only sig_1 active, got %v", active)
	}

	resolved, err := s.ResolveSignal("sig_1", now)
	if err != nil {
		t.Fatalf("resolving signal: %v", err)
	}
	if !resolved {
		t.Error("expected resolution to succeed")
	}

	active, _ = s.ActiveSignals(now)
	if len(active) != 0 {
		t.Errorf("expected 0 active after resolve, got %d", len(active))
	}

	// Resolving again is a no-op
	resolved, _ = s.ResolveSignal("sig_1", now)
	if resolved {
		t.Error("expected second resolve to report false")
	}

	before, err := s.Revision()
	if err != nil {
		t.Fatalf("reading revision: %v", err)
	}

	swept, err := s.ExpireSignals(now)
	if err != nil {
		t.Fatalf("expiring signals: %v", err)
	}
	if swept != 1 {
		t.Errorf("expected 1 swept signal, got %d", swept)
	}

	after, err := s.Revision()
	if err != nil {
		t.Fatalf("reading revision: %v", err)
	}
	if after != before+1 {
		t.Errorf("expected sweep to bump revision %d -> %d, got %d", before, before+1, after)
	}

	// An empty sweep leaves the revision alone
	if _, err := s.ExpireSignals(now); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if again, _ := s.Revision(); again != after {
		t.Errorf("expected no bump on empty sweep, revision %d -> %d", after, again)
	}
}

func TestGateStateRoundTrip(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	st, err := s.GateState()
	if err != nil {
		t.Fatalf("reading empty gate state: %v", err)
	}
	if !st.LastAnsweredAt.IsZero() || st.LastQuestionID != "" {
		t.Errorf("expected zero state on fresh store, got %+v", st)
	}

	answered := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	err = s.SaveGateState(models.PromptGateState{LastAnsweredAt: answered, LastQuestionID: "q_sleep"})
	if err != nil {
		t.Fatalf("saving gate state: %v", err)
	}

	st, err = s.GateState()
	if err != nil {
		t.Fatalf("reading gate state: %v", err)
	}
	if !st.LastAnsweredAt.Equal(answered) {
		t.Errorf("expected last_answered_at %v, got %v", answered, st.LastAnsweredAt)
	}
	if st.LastQuestionID != "q_sleep" {
		t.Errorf("expected question q_sleep, got %s", st.LastQuestionID)
	}
}

func TestLastPlanReview(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	last, err := s.LastPlanReview()
	if err != nil {
		t.Fatalf("reading empty review: %v", err)
	}
	if !last.IsZero() {
		t.Errorf("expected zero time, got %v", last)
	}

	reviewed := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	if err := s.SetLastPlanReview(reviewed); err != nil {
		t.Fatalf("setting review: %v", err)
	}

	last, _ = s.LastPlanReview()
	if !last.Equal(reviewed) {
		t.Errorf("expected %v, got %v", reviewed, last)
	}
}

func TestDuplicateEventID(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	err := s.AddWeight(models.WeightEntry{ID: "wt_dup", WeightKg: 80.2, LoggedAt: time.Now()})
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err = s.AddWeight(models.WeightEntry{ID: "wt_dup", WeightKg: 80.4, LoggedAt: time.Now()})
	if err == nil {
		t.Error("expected error on duplicate weight id")
	}
}
