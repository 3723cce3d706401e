package store

import (
	"database/sql"
	"time"

	"github.com/nadavital/pulse/internal/models"
)

// Write path. Every accepted write bumps the revision counter in the
// same transaction, so a half-applied write can never leave the cache
// believing it is fresh.

func (s *Store) AddFood(e models.FoodEntry) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO food_entries (id, name, calories, protein_g, carbs_g, fat_g, logged_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Name, e.Calories, e.ProteinG, e.CarbsG, e.FatG, fmtTime(e.LoggedAt)); err != nil {
		return err
	}
	if err := bumpRevision(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) AddWorkout(w models.WorkoutSession) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var completed interface{}
	if !w.CompletedAt.IsZero() {
		completed = fmtTime(w.CompletedAt)
	}
	live := 0
	if w.Live {
		live = 1
	}
	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO workout_sessions (id, template, started_at, completed_at, duration_min, volume_kg, live)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, w.ID, w.Template, fmtTime(w.StartedAt), completed, w.DurationMin, w.VolumeKg, live); err != nil {
		return err
	}
	if err := bumpRevision(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) AddWeight(e models.WeightEntry) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO weight_entries (id, weight_kg, logged_at)
		VALUES (?, ?, ?)
	`, e.ID, e.WeightKg, fmtTime(e.LoggedAt)); err != nil {
		return err
	}
	if err := bumpRevision(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) AddCompletion(c models.ReminderCompletion) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO reminder_completions (id, reminder_id, completed_at, scheduled_minute)
		VALUES (?, ?, ?, ?)
	`, c.ID, c.ReminderID, fmtTime(c.CompletedAt), c.ScheduledMinute); err != nil {
		return err
	}
	if err := bumpRevision(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) AddBehavior(b models.BehaviorEvent) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO behavior_events (id, kind, note, occurred_at)
		VALUES (?, ?, ?, ?)
	`, b.ID, b.Kind, b.Note, fmtTime(b.OccurredAt)); err != nil {
		return err
	}
	if err := bumpRevision(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Read path. All queries return descending by timestamp, bounded by
// limit, matching the adapter contract the engine consumes.

func (s *Store) FoodBetween(start, end time.Time, limit int) ([]models.FoodEntry, error) {
	rows, err := s.conn.Query(`
		SELECT id, name, calories, protein_g, carbs_g, fat_g, logged_at
		FROM food_entries
		WHERE logged_at >= ? AND logged_at < ?
		ORDER BY logged_at DESC
		LIMIT ?
	`, fmtTime(start), fmtTime(end), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.FoodEntry
	for rows.Next() {
		var e models.FoodEntry
		var loggedStr string
		if err := rows.Scan(&e.ID, &e.Name, &e.Calories, &e.ProteinG, &e.CarbsG, &e.FatG, &loggedStr); err != nil {
			return nil, err
		}
		e.LoggedAt = parseTime(loggedStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) WorkoutsBetween(start, end time.Time, limit int) ([]models.WorkoutSession, error) {
	rows, err := s.conn.Query(`
		SELECT id, template, started_at, completed_at, duration_min, volume_kg, live
		FROM workout_sessions
		WHERE started_at >= ? AND started_at < ?
		ORDER BY started_at DESC
		LIMIT ?
	`, fmtTime(start), fmtTime(end), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.WorkoutSession
	for rows.Next() {
		var w models.WorkoutSession
		var startedStr string
		var completedStr sql.NullString
		var live int
		if err := rows.Scan(&w.ID, &w.Template, &startedStr, &completedStr, &w.DurationMin, &w.VolumeKg, &live); err != nil {
			return nil, err
		}
		w.StartedAt = parseTime(startedStr)
		if completedStr.Valid {
			w.CompletedAt = parseTime(completedStr.String)
		}
		w.Live = live != 0
		sessions = append(sessions, w)
	}
	return sessions, rows.Err()
}

func (s *Store) WeightsBetween(start, end time.Time, limit int) ([]models.WeightEntry, error) {
	rows, err := s.conn.Query(`
		SELECT id, weight_kg, logged_at
		FROM weight_entries
		WHERE logged_at >= ? AND logged_at < ?
		ORDER BY logged_at DESC
		LIMIT ?
	`, fmtTime(start), fmtTime(end), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.WeightEntry
	for rows.Next() {
		var e models.WeightEntry
		var loggedStr string
		if err := rows.Scan(&e.ID, &e.WeightKg, &loggedStr); err != nil {
			return nil, err
		}
		e.LoggedAt = parseTime(loggedStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CompletionsBetween returns reminder completions in the window,
// optionally filtered to a single reminder. Pass "" to read all.
func (s *Store) CompletionsBetween(reminderID string, start, end time.Time, limit int) ([]models.ReminderCompletion, error) {
	query := `
		SELECT id, reminder_id, completed_at, scheduled_minute
		FROM reminder_completions
		WHERE completed_at >= ? AND completed_at < ?
	`
	args := []interface{}{fmtTime(start), fmtTime(end)}
	if reminderID != "" {
		query += ` AND reminder_id = ?`
		args = append(args, reminderID)
	}
	query += ` ORDER BY completed_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var completions []models.ReminderCompletion
	for rows.Next() {
		var c models.ReminderCompletion
		var completedStr string
		if err := rows.Scan(&c.ID, &c.ReminderID, &completedStr, &c.ScheduledMinute); err != nil {
			return nil, err
		}
		c.CompletedAt = parseTime(completedStr)
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

func (s *Store) BehaviorBetween(start, end time.Time, limit int) ([]models.BehaviorEvent, error) {
	rows, err := s.conn.Query(`
		SELECT id, kind, note, occurred_at
		FROM behavior_events
		WHERE occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at DESC
		LIMIT ?
	`, fmtTime(start), fmtTime(end), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.BehaviorEvent
	for rows.Next() {
		var b models.BehaviorEvent
		var note sql.NullString
		var occurredStr string
		if err := rows.Scan(&b.ID, &b.Kind, &note, &occurredStr); err != nil {
			return nil, err
		}
		if note.Valid {
			b.Note = note.String
		}
		b.OccurredAt = parseTime(occurredStr)
		events = append(events, b)
	}
	return events, rows.Err()
}
