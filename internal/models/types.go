package models

import "time"

// SignalKind identifies one of the five event collections the engine reads.
type SignalKind string

const (
	KindFood     SignalKind = "food"
	KindWorkout  SignalKind = "workout"
	KindWeight   SignalKind = "weight"
	KindReminder SignalKind = "reminder"
	KindBehavior SignalKind = "behavior"
)

// FoodEntry is a single logged meal or snack.
type FoodEntry struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Calories float64   `json:"calories"`
	ProteinG float64   `json:"protein_g"`
	CarbsG   float64   `json:"carbs_g"`
	FatG     float64   `json:"fat_g"`
	LoggedAt time.Time `json:"logged_at"`
}

// WorkoutSession is a logged or live (in-progress) workout.
// A live session has Live=true and a zero CompletedAt.
type WorkoutSession struct {
	ID          string    `json:"id"`
	Template    string    `json:"template"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	DurationMin float64   `json:"duration_min"`
	VolumeKg    float64   `json:"volume_kg"`
	Live        bool      `json:"live"`
}

// WeightEntry is a single body-weight measurement.
type WeightEntry struct {
	ID       string    `json:"id"`
	WeightKg float64   `json:"weight_kg"`
	LoggedAt time.Time `json:"logged_at"`
}

// ReminderCompletion records that a scheduled reminder was completed.
// ScheduledMinute is the reminder's scheduled time as minutes after
// midnight, kept alongside the completion for on-time scoring.
type ReminderCompletion struct {
	ID              string    `json:"id"`
	ReminderID      string    `json:"reminder_id"`
	CompletedAt     time.Time `json:"completed_at"`
	ScheduledMinute int       `json:"scheduled_minute"`
}

// BehaviorEvent is a generic timestamped behavior marker (app opened,
// plan proposal dismissed, streak broken). The engine only uses its
// timestamp and kind.
type BehaviorEvent struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ActiveSignal is a coaching flag raised against the user's history
// (missed workout, low-protein streak). It stays active until it is
// resolved or expires.
type ActiveSignal struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Detail     string    `json:"detail,omitempty"`
	RaisedAt   time.Time `json:"raised_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	ResolvedAt time.Time `json:"resolved_at,omitempty"`
}

// PromptGateState is the persisted prompt-gate record. Zero values mean
// no question has ever been answered.
type PromptGateState struct {
	LastAnsweredAt time.Time `json:"last_answered_at"`
	LastQuestionID string    `json:"last_question_id"`
}

// ErrorResponse is the standard API error format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Retry bool   `json:"retry,omitempty"`
}

// IngestResponse is returned after an accepted signal write.
type IngestResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Revision int64  `json:"revision"`
}

// AnswerRequest is sent when the user submits an answer to a coach
// question.
type AnswerRequest struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer,omitempty"`
}

// EligibilityResponse reports whether a question may be shown now.
type EligibilityResponse struct {
	Allowed   bool      `json:"allowed"`
	GateState string    `json:"gate_state"`
	NextAt    time.Time `json:"next_at,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	LLM     string `json:"llm"`
	Store   string `json:"store"`
	Version string `json:"version"`
}
