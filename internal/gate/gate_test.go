package gate

import (
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nadavital/pulse/internal/store"
)

func setupGate(t *testing.T) (*Gate, *clockwork.FakeClock, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "pulse-gate-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	tmpFile.Close()

	s, err := store.Open(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("opening store: %v", err)
	}

	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 28, 9, 0, 0, 0, time.UTC))
	g := New(s, clock, DefaultCooldown, DefaultRepeatBlock)

	cleanup := func() {
		s.Close()
		os.Remove(tmpFile.Name())
	}
	return g, clock, cleanup
}

func TestAllowQuestionFreshState(t *testing.T) {
	g, _, cleanup := setupGate(t)
	defer cleanup()

	allowed, err := g.AllowQuestion("q_sleep", false)
	if err != nil {
		t.Fatalf("allow check: %v", err)
	}
	if !allowed {
		t.Error("expected fresh state to allow any question")
	}
}

func TestCooldownBlocksNewQuestions(t *testing.T) {
	g, clock, cleanup := setupGate(t)
	defer cleanup()

	if err := g.RecordAnswer("q_sleep"); err != nil {
		t.Fatalf("recording answer: %v", err)
	}

	clock.Advance(2 * time.Hour)
	allowed, _ := g.AllowQuestion("q_energy", false)
	if allowed {
		t.Error("expected cooldown to block a new question after 2h")
	}

	clock.Advance(5 * time.Hour) // 7h total, past the 6h cooldown
	allowed, _ = g.AllowQuestion("q_energy", false)
	if !allowed {
		t.Error("expected a different question after cooldown")
	}
}

func TestFollowUpBypassesCooldown(t *testing.T) {
	g, clock, cleanup := setupGate(t)
	defer cleanup()

	g.RecordAnswer("q_sleep")
	clock.Advance(10 * time.Minute)

	allowed, _ := g.AllowQuestion("q_post_workout", true)
	if !allowed {
		t.Error("expected follow-up to bypass the general cooldown")
	}
}

func TestSameQuestionBlockedLonger(t *testing.T) {
	g, clock, cleanup := setupGate(t)
	defer cleanup()

	g.RecordAnswer("q_sleep")

	// General cooldown has elapsed, but the same question stays blocked.
	clock.Advance(8 * time.Hour)
	allowed, _ := g.AllowQuestion("q_sleep", false)
	if allowed {
		t.Error("expected same question blocked within 24h")
	}

	// Even as a follow-up the repeat block holds.
	allowed, _ = g.AllowQuestion("q_sleep", true)
	if allowed {
		t.Error("expected repeat block to apply to follow-ups too")
	}

	clock.Advance(17 * time.Hour) // 25h total
	allowed, _ = g.AllowQuestion("q_sleep", false)
	if !allowed {
		t.Error("expected same question allowed after 24h")
	}
}

func TestRecordAnswerFiresInvalidationHook(t *testing.T) {
	g, _, cleanup := setupGate(t)
	defer cleanup()

	fired := false
	g.OnAnswer(func() { fired = true })

	if err := g.RecordAnswer("q_sleep"); err != nil {
		t.Fatalf("recording answer: %v", err)
	}
	if !fired {
		t.Error("expected answer to fire the cache invalidation hook")
	}
}

func TestCurrentStateAndNextEligible(t *testing.T) {
	g, clock, cleanup := setupGate(t)
	defer cleanup()

	st, err := g.CurrentState()
	if err != nil {
		t.Fatalf("reading state: %v", err)
	}
	if st != StateIdle {
		t.Errorf("expected idle on fresh store, got %s", st)
	}

	g.RecordAnswer("q_sleep")

	st, _ = g.CurrentState()
	if st != StateCoolingDown {
		t.Errorf("expected cooling_down right after answer, got %s", st)
	}

	next, _ := g.NextEligibleAt()
	want := clock.Now().Add(DefaultCooldown)
	if !next.Equal(want) {
		t.Errorf("expected next eligible at %v, got %v", want, next)
	}

	clock.Advance(DefaultCooldown + time.Minute)
	st, _ = g.CurrentState()
	if st != StateIdle {
		t.Errorf("expected idle after cooldown, got %s", st)
	}
	next, _ = g.NextEligibleAt()
	if !next.IsZero() {
		t.Errorf("expected zero next-eligible when already eligible, got %v", next)
	}
}
