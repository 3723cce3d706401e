package profile

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
)

// Safe defaults substituted for malformed goal values. The engine never
// propagates a bad goal; it logs and keeps going.
const (
	DefaultCalorieGoal = 2000.0
	DefaultProteinGoal = 120.0
	DefaultCarbsGoal   = 220.0
	DefaultFatGoal     = 70.0
	DefaultTone        = "supportive"
)

// ReminderDef is a scheduled reminder the host app manages. The engine
// only reads these to build candidates; it never schedules anything.
type ReminderDef struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ScheduledMinute int    `json:"scheduled_minute"` // minutes after midnight, local
}

// WorkoutTemplate is a plan entry offered as a workout candidate.
type WorkoutTemplate struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Muscles []string `json:"muscles,omitempty"`
}

// ReviewConfig holds the plan-review trigger thresholds. They are
// goal-dependent policy, not engine constants.
type ReviewConfig struct {
	AfterDays     int     `json:"after_days"`
	DeltaKg       float64 `json:"delta_kg"`
	RecentEntries int     `json:"recent_entries"`
	TrendLength   int     `json:"trend_length"`
}

// Profile is the read-only goal/plan configuration consumed by the
// coaching engine.
type Profile struct {
	CalorieGoal        float64           `json:"calorie_goal"`
	TrainingDayGoal    float64           `json:"training_day_goal"`
	RestDayGoal        float64           `json:"rest_day_goal"`
	ProteinGoalG       float64           `json:"protein_goal_g"`
	CarbsGoalG         float64           `json:"carbs_goal_g"`
	FatGoalG           float64           `json:"fat_goal_g"`
	EnabledMacros      []string          `json:"enabled_macros"`
	Tone               string            `json:"tone"`
	Reminders          []ReminderDef     `json:"reminders"`
	WorkoutTemplates   []WorkoutTemplate `json:"workout_templates"`
	Review             ReviewConfig      `json:"review"`
}

// Default returns a profile with safe defaults for a user who has not
// configured anything yet.
func Default() *Profile {
	return &Profile{
		CalorieGoal:   DefaultCalorieGoal,
		ProteinGoalG:  DefaultProteinGoal,
		CarbsGoalG:    DefaultCarbsGoal,
		FatGoalG:      DefaultFatGoal,
		EnabledMacros: []string{"protein", "carbs", "fat"},
		Tone:          DefaultTone,
		Review: ReviewConfig{
			AfterDays:     14,
			DeltaKg:       1.5,
			RecentEntries: 5,
			TrendLength:   4,
		},
	}
}

// Load reads the profile JSON at path. A missing file yields the
// default profile; malformed values are replaced by safe defaults.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}

	p.Sanitize()
	return &p, nil
}

// Sanitize replaces invalid goal values with safe defaults, logging
// each substitution. A goal of zero or below is never usable.
func (p *Profile) Sanitize() {
	if p.CalorieGoal <= 0 {
		log.Printf("profile: invalid calorie goal %.0f, using default %.0f", p.CalorieGoal, DefaultCalorieGoal)
		p.CalorieGoal = DefaultCalorieGoal
	}
	if p.TrainingDayGoal < 0 {
		log.Printf("profile: invalid training-day goal %.0f, ignoring override", p.TrainingDayGoal)
		p.TrainingDayGoal = 0
	}
	if p.RestDayGoal < 0 {
		log.Printf("profile: invalid rest-day goal %.0f, ignoring override", p.RestDayGoal)
		p.RestDayGoal = 0
	}
	if p.ProteinGoalG <= 0 {
		log.Printf("profile: invalid protein goal %.0f, using default %.0f", p.ProteinGoalG, DefaultProteinGoal)
		p.ProteinGoalG = DefaultProteinGoal
	}
	if p.CarbsGoalG <= 0 {
		p.CarbsGoalG = DefaultCarbsGoal
	}
	if p.FatGoalG <= 0 {
		p.FatGoalG = DefaultFatGoal
	}
	if p.Tone == "" {
		p.Tone = DefaultTone
	}
	if len(p.EnabledMacros) == 0 {
		p.EnabledMacros = []string{"protein", "carbs", "fat"}
	}
	if p.Review.AfterDays <= 0 {
		p.Review.AfterDays = 14
	}
	if p.Review.DeltaKg <= 0 {
		p.Review.DeltaKg = 1.5
	}
	if p.Review.RecentEntries <= 0 {
		p.Review.RecentEntries = 5
	}
	if p.Review.TrendLength <= 0 {
		p.Review.TrendLength = 4
	}
	for _, r := range p.Reminders {
		if r.ScheduledMinute < 0 || r.ScheduledMinute >= 24*60 {
			log.Printf("profile: reminder %s has out-of-range schedule %d", r.ID, r.ScheduledMinute)
		}
	}
}

// EffectiveCalorieGoal returns the calorie target for a day, selecting
// the training-day or rest-day override when configured.
func (p *Profile) EffectiveCalorieGoal(trainedToday bool) float64 {
	if trainedToday && p.TrainingDayGoal > 0 {
		return p.TrainingDayGoal
	}
	if !trainedToday && p.RestDayGoal > 0 {
		return p.RestDayGoal
	}
	return p.CalorieGoal
}
