package coach

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/nadavital/pulse/internal/models"
)

// DailyCoachContext is the consolidated snapshot the presentation and
// text-generation layers consume. Treat it as immutable: it is shared
// between cache readers.
type DailyCoachContext struct {
	GeneratedAt time.Time `json:"generated_at"`
	Revision    int64     `json:"revision"`

	Today         DailyTotals `json:"today"`
	CalorieGoal   float64     `json:"calorie_goal"`
	ProteinGoalG  float64     `json:"protein_goal_g"`
	TrainingDay   bool        `json:"training_day"`
	AvgCalories7d float64     `json:"avg_calories_7d"` // over logged days only

	ActiveSignals []models.ActiveSignal `json:"active_signals"`
	Trend         TrendSnapshot         `json:"trend"`

	WeightPattern  PatternProfile `json:"weight_pattern"`
	WorkoutPattern PatternProfile `json:"workout_pattern"`

	ReminderRate       float64     `json:"reminder_rate"`
	DaysSinceWeightLog int         `json:"days_since_weight_log"` // -1 when never
	PendingReminders   []Candidate `json:"pending_reminders"`     // ranked, scores attached

	PlanReview *ReviewTrigger `json:"plan_review,omitempty"`
	Tone       string         `json:"tone"`
}

// Fingerprint digests the cache-relevant inputs of a context into a
// deterministic string: hour of day, goal-relevant totals, active
// signal identities, pending reminders with schedules, trend digest,
// pattern confidence, gate state and tone. Two contexts with the same
// fingerprint carry the same coaching content; the store's write
// revision deliberately stays out so a coach-irrelevant write does not
// churn the cache.
func (c *DailyCoachContext) Fingerprint(gate models.PromptGateState) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "h=%d|", c.GeneratedAt.Hour())
	fmt.Fprintf(&sb, "cal=%.0f/%.0f|pro=%.0f/%.0f|train=%t|",
		c.Today.Calories, c.CalorieGoal, c.Today.ProteinG, c.ProteinGoalG, c.TrainingDay)

	sb.WriteString("sig=")
	for _, s := range c.ActiveSignals {
		fmt.Fprintf(&sb, "%s@%d,", s.ID, s.RaisedAt.Unix())
	}
	sb.WriteString("|rem=")
	for _, r := range c.PendingReminders {
		fmt.Fprintf(&sb, "%s@%d,", r.ID, r.ScheduledMinute)
	}

	fmt.Fprintf(&sb, "|trend=%s|", c.Trend.Digest())
	fmt.Fprintf(&sb, "pat=%.2f/%.2f|", c.WeightPattern.Confidence, c.WorkoutPattern.Confidence)
	fmt.Fprintf(&sb, "gate=%d:%s|", gate.LastAnsweredAt.Unix(), gate.LastQuestionID)
	fmt.Fprintf(&sb, "tone=%s", c.Tone)

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:16])
}

// PromptSummary renders the context as a compact plain-text digest for
// the text-generation collaborator, trimmed to roughly budgetTokens
// (four characters per token). Sections are appended in priority order
// so trimming drops the least important material first.
func (c *DailyCoachContext) PromptSummary(budgetTokens int) string {
	var sections []string

	var sb strings.Builder
	fmt.Fprintf(&sb, "TODAY: %.0f of %.0f kcal", c.Today.Calories, c.CalorieGoal)
	if c.TrainingDay {
		sb.WriteString(" (training day)")
	}
	fmt.Fprintf(&sb, ", protein %.0f of %.0f g", c.Today.ProteinG, c.ProteinGoalG)
	if c.Today.WorkoutCount > 0 {
		fmt.Fprintf(&sb, ", %d workout(s), %.0f min", c.Today.WorkoutCount, c.Today.WorkoutMinutes)
	}
	sections = append(sections, sb.String())

	if phrases := c.Trend.Describe(); len(phrases) > 0 {
		sections = append(sections, "WEEK: "+joinPhrases(phrases))
	}

	if len(c.ActiveSignals) > 0 {
		var parts []string
		for _, s := range c.ActiveSignals {
			if s.Detail != "" {
				parts = append(parts, fmt.Sprintf("%s (%s)", s.Kind, s.Detail))
			} else {
				parts = append(parts, s.Kind)
			}
		}
		sections = append(sections, "FLAGS: "+strings.Join(parts, ", "))
	}

	if len(c.PendingReminders) > 0 {
		var parts []string
		for _, r := range c.PendingReminders {
			parts = append(parts, fmt.Sprintf("%s at %s (habit %.2f)", r.Name, minuteClock(r.ScheduledMinute), r.Score))
		}
		sections = append(sections, "PENDING: "+strings.Join(parts, ", "))
	}

	if c.DaysSinceWeightLog >= 0 {
		sections = append(sections, fmt.Sprintf("WEIGHT: last logged %s ago", pluralDays(c.DaysSinceWeightLog)))
	} else {
		sections = append(sections, "WEIGHT: never logged")
	}

	if !c.WeightPattern.Empty() {
		sections = append(sections, "USUAL WEIGH-IN: "+describePattern(c.WeightPattern))
	}
	if !c.WorkoutPattern.Empty() {
		sections = append(sections, "USUAL WORKOUT: "+describePattern(c.WorkoutPattern))
	}

	if c.PlanReview != nil {
		sections = append(sections, "REVIEW: "+c.PlanReview.Describe())
	}

	sections = append(sections, "TONE: "+c.Tone)

	budget := budgetTokens * 4
	var out strings.Builder
	for _, s := range sections {
		if out.Len()+len(s)+1 > budget && out.Len() > 0 {
			break
		}
		out.WriteString(s)
		out.WriteString("\n")
	}
	return out.String()
}

func describePattern(p PatternProfile) string {
	var parts []string
	if len(p.Weekdays) > 0 {
		parts = append(parts, strings.Join(p.Weekdays, "/"))
	}
	if len(p.TimeWindows) > 0 {
		parts = append(parts, strings.Join(p.TimeWindows, ", "))
	}
	return strings.Join(parts, " ")
}

func minuteClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
