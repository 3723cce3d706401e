package profile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("loading missing profile: %v", err)
	}
	if p.CalorieGoal != DefaultCalorieGoal {
		t.Errorf("expected default calorie goal, got %.0f", p.CalorieGoal)
	}
}

func TestSanitizeReplacesInvalidGoals(t *testing.T) {
	p := &Profile{CalorieGoal: -100, ProteinGoalG: 0, Tone: ""}
	p.Sanitize()

	if p.CalorieGoal != DefaultCalorieGoal {
		t.Errorf("expected calorie goal %v, got %v", DefaultCalorieGoal, p.CalorieGoal)
	}
	if p.ProteinGoalG != DefaultProteinGoal {
		t.Errorf("expected protein goal %v, got %v", DefaultProteinGoal, p.ProteinGoalG)
	}
	if p.Tone != DefaultTone {
		t.Errorf("expected default tone, got %q", p.Tone)
	}
	if p.Review.AfterDays != 14 {
		t.Errorf("expected review after 14 days, got %d", p.Review.AfterDays)
	}
}

func TestLoadValidProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	content := `{
		"calorie_goal": 2400,
		"training_day_goal": 2700,
		"rest_day_goal": 2200,
		"protein_goal_g": 160,
		"tone": "direct",
		"reminders": [{"id": "rem_weigh", "name": "Morning weigh-in", "scheduled_minute": 480}]
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing profile: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("loading profile: %v", err)
	}
	if p.CalorieGoal != 2400 {
		t.Errorf("expected calorie goal 2400, got %.0f", p.CalorieGoal)
	}
	if len(p.Reminders) != 1 || p.Reminders[0].ID != "rem_weigh" {
		t.Errorf("expected one reminder rem_weigh, got %v", p.Reminders)
	}
}

func TestEffectiveCalorieGoal(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		trained bool
		want    float64
	}{
		{"training day override", Profile{CalorieGoal: 2000, TrainingDayGoal: 2400}, true, 2400},
		{"rest day override", Profile{CalorieGoal: 2000, RestDayGoal: 1800}, false, 1800},
		{"no override falls back", Profile{CalorieGoal: 2000}, true, 2000},
		{"rest day without override", Profile{CalorieGoal: 2000, TrainingDayGoal: 2400}, false, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.EffectiveCalorieGoal(tt.trained); got != tt.want {
				t.Errorf("EffectiveCalorieGoal(%v) = %v, want %v", tt.trained, got, tt.want)
			}
		})
	}
}
