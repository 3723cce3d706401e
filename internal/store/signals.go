package store

import (
	"database/sql"
	"time"

	"github.com/nadavital/pulse/internal/models"
)

// RaiseSignal records a new coaching flag.
func (s *Store) RaiseSignal(sig models.ActiveSignal) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO active_signals (id, kind, detail, raised_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, sig.ID, sig.Kind, sig.Detail, fmtTime(sig.RaisedAt), fmtTime(sig.ExpiresAt)); err != nil {
		return err
	}
	if err := bumpRevision(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// ResolveSignal marks a signal resolved. Returns false if the signal
// was not found or was already resolved.
func (s *Store) ResolveSignal(id string, now time.Time) (bool, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE active_signals
		SET resolved_at = ?
		WHERE id = ? AND resolved_at IS NULL
	`, fmtTime(now), id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	if err := bumpRevision(tx); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// ActiveSignals returns signals that are neither resolved nor expired
// as of now, most recent first.
func (s *Store) ActiveSignals(now time.Time) ([]models.ActiveSignal, error) {
	rows, err := s.conn.Query(`
		SELECT id, kind, detail, raised_at, expires_at
		FROM active_signals
		WHERE resolved_at IS NULL AND expires_at > ?
		ORDER BY raised_at DESC
	`, fmtTime(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []models.ActiveSignal
	for rows.Next() {
		var sig models.ActiveSignal
		var detail sql.NullString
		var raisedStr, expiresStr string
		if err := rows.Scan(&sig.ID, &sig.Kind, &detail, &raisedStr, &expiresStr); err != nil {
			return nil, err
		}
		if detail.Valid {
			sig.Detail = detail.String
		}
		sig.RaisedAt = parseTime(raisedStr)
		sig.ExpiresAt = parseTime(expiresStr)
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

// ExpireSignals resolves signals whose expiry has passed and returns
// how many were swept. Run periodically by the scheduler. Sweeping
// anything bumps the revision so cached contexts stop serving the
// expired signals.
func (s *Store) ExpireSignals(now time.Time) (int64, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE active_signals
		SET resolved_at = ?
		WHERE resolved_at IS NULL AND expires_at <= ?
	`, fmtTime(now), fmtTime(now))
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, nil
	}
	if err := bumpRevision(tx); err != nil {
		return 0, err
	}
	return affected, tx.Commit()
}

// GateState loads the persisted prompt-gate state. A missing row is a
// zero-value state, not an error.
func (s *Store) GateState() (models.PromptGateState, error) {
	var answeredStr, questionID sql.NullString
	err := s.conn.QueryRow(`
		SELECT last_answered_at, last_question_id FROM gate_state WHERE id = 1
	`).Scan(&answeredStr, &questionID)
	if err == sql.ErrNoRows {
		return models.PromptGateState{}, nil
	}
	if err != nil {
		return models.PromptGateState{}, err
	}

	var st models.PromptGateState
	if answeredStr.Valid {
		st.LastAnsweredAt = parseTime(answeredStr.String)
	}
	if questionID.Valid {
		st.LastQuestionID = questionID.String
	}
	return st, nil
}

// SaveGateState persists the prompt-gate state and bumps the revision
// so the next context read reassembles.
func (s *Store) SaveGateState(st models.PromptGateState) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO gate_state (id, last_answered_at, last_question_id)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_answered_at = excluded.last_answered_at,
			last_question_id = excluded.last_question_id
	`, fmtTime(st.LastAnsweredAt), st.LastQuestionID); err != nil {
		return err
	}
	if err := bumpRevision(tx); err != nil {
		return err
	}
	return tx.Commit()
}
