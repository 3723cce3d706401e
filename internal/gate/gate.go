// Package gate decides when a coaching question may be shown. It is a
// small state machine over one persisted record: a general cooldown
// between answered questions plus a longer anti-repetition block on the
// same question identifier.
package gate

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nadavital/pulse/internal/models"
	"github.com/nadavital/pulse/internal/store"
)

// State labels for the presentation layer. Only Answered is recorded
// explicitly; the cooling states are time predicates over the record.
type State string

const (
	StateIdle        State = "idle"
	StateCoolingDown State = "cooling_down"
)

const (
	DefaultCooldown    = 6 * time.Hour
	DefaultRepeatBlock = 24 * time.Hour
)

// Gate gates question-type prompts. Showing a question records
// nothing (re-renders are idempotent); only a submitted answer
// transitions state.
type Gate struct {
	store       *store.Store
	clock       clockwork.Clock
	cooldown    time.Duration
	repeatBlock time.Duration
	onAnswer    func() // cache invalidation hook
}

func New(s *store.Store, clock clockwork.Clock, cooldown, repeatBlock time.Duration) *Gate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if repeatBlock <= 0 {
		repeatBlock = DefaultRepeatBlock
	}
	return &Gate{
		store:       s,
		clock:       clock,
		cooldown:    cooldown,
		repeatBlock: repeatBlock,
	}
}

// OnAnswer registers a hook run after every recorded answer. The cache
// uses it to force the next assembly.
func (g *Gate) OnAnswer(fn func()) {
	g.onAnswer = fn
}

// AllowQuestion reports whether the question may be surfaced now. The
// general cooldown applies since the last answered question unless the
// candidate is a same-session follow-up (a post-workout check-in asked
// right after logging). Independently of that, the same question
// identifier is blocked from repeating within the repeat window: a
// follow-up may bypass the spam guard but never re-asks yesterday's
// question.
func (g *Gate) AllowQuestion(questionID string, followUp bool) (bool, error) {
	st, err := g.store.GateState()
	if err != nil {
		return false, fmt.Errorf("loading gate state: %w", err)
	}

	now := g.clock.Now()
	if st.LastAnsweredAt.IsZero() {
		return true, nil
	}

	sinceAnswer := now.Sub(st.LastAnsweredAt)
	if !followUp && sinceAnswer < g.cooldown {
		return false, nil
	}
	if questionID != "" && questionID == st.LastQuestionID && sinceAnswer < g.repeatBlock {
		return false, nil
	}
	return true, nil
}

// NextEligibleAt returns when the general cooldown lapses. Zero when
// already eligible.
func (g *Gate) NextEligibleAt() (time.Time, error) {
	st, err := g.store.GateState()
	if err != nil {
		return time.Time{}, fmt.Errorf("loading gate state: %w", err)
	}
	if st.LastAnsweredAt.IsZero() {
		return time.Time{}, nil
	}
	next := st.LastAnsweredAt.Add(g.cooldown)
	if !next.After(g.clock.Now()) {
		return time.Time{}, nil
	}
	return next, nil
}

// RecordAnswer persists the Answered transition: last-answered-at
// becomes now, the question id is remembered for the repeat block, and
// the cache hook fires so the next context read reassembles.
func (g *Gate) RecordAnswer(questionID string) error {
	st := models.PromptGateState{
		LastAnsweredAt: g.clock.Now(),
		LastQuestionID: questionID,
	}
	if err := g.store.SaveGateState(st); err != nil {
		return fmt.Errorf("saving gate state: %w", err)
	}
	if g.onAnswer != nil {
		g.onAnswer()
	}
	return nil
}

// CurrentState reports the time-derived state for diagnostics.
func (g *Gate) CurrentState() (State, error) {
	st, err := g.store.GateState()
	if err != nil {
		return StateIdle, fmt.Errorf("loading gate state: %w", err)
	}
	if st.LastAnsweredAt.IsZero() {
		return StateIdle, nil
	}
	if g.clock.Now().Sub(st.LastAnsweredAt) < g.cooldown {
		return StateCoolingDown, nil
	}
	return StateIdle, nil
}
