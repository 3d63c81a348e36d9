package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"wedding-journey/internal/models"
)

const selectPlayer = `SELECT id, quiz_completed, quiz_answers, quiz_score, completed_at FROM players`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*models.Player, error) {
	var (
		p         models.Player
		id        string
		answers   string
		completed sql.NullInt64
	)
	if err := row.Scan(&id, &p.QuizCompleted, &answers, &p.QuizScore, &completed); err != nil {
		return nil, err
	}

	p.ID = models.PlayerID(id)
	if answers != "" {
		if err := json.Unmarshal([]byte(answers), &p.QuizAnswers); err != nil {
			return nil, fmt.Errorf("failed to decode answers of %s: %w", id, err)
		}
	}
	if completed.Valid {
		t := fromMillis(completed.Int64)
		p.CompletedAt = &t
	}
	return &p, nil
}

// GetPlayer retrieves a player record
func (s *Store) GetPlayer(ctx context.Context, id models.PlayerID) (*models.Player, error) {
	p, err := scanPlayer(s.db.QueryRowContext(ctx, selectPlayer+` WHERE id = ?`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %s: %w", id, err)
	}
	return p, nil
}

// ListPlayers returns every player record ordered by id
func (s *Store) ListPlayers(ctx context.Context) ([]models.Player, error) {
	rows, err := s.db.QueryContext(ctx, selectPlayer+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

// QuizCompleted reports whether the player finished the quiz
func (s *Store) QuizCompleted(ctx context.Context, id models.PlayerID) (bool, error) {
	var done bool
	err := s.db.QueryRowContext(ctx, `SELECT quiz_completed FROM players WHERE id = ?`, string(id)).Scan(&done)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to query completion of %s: %w", id, err)
	}
	return done, nil
}

// SaveQuizResult stores the quiz answers and score and marks the player as
// finished. Swipe answers already stored are kept.
func (s *Store) SaveQuizResult(ctx context.Context, id models.PlayerID, answers map[string]int, score int) error {
	err := s.updateAnswers(ctx, id, func(a *models.Answers) {
		a.Quiz = make(map[string]int, len(answers))
		for k, v := range answers {
			a.Quiz[k] = v
		}
	}, func(tx *sql.Tx, encoded string) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE players SET quiz_completed = ?, quiz_answers = ?, quiz_score = ?, completed_at = ? WHERE id = ?`,
			true, encoded, score, s.now().UnixMilli(), string(id))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save quiz result of %s: %w", id, err)
	}

	s.log.Info().Str("player", string(id)).Int("score", score).Msg("Quiz completed")
	s.publish(ctx, id, true)
	return nil
}

// MergeSwipeAnswers adds swipe answers to the player's stored ones and returns
// the merged set. Quiz answers are kept.
func (s *Store) MergeSwipeAnswers(ctx context.Context, id models.PlayerID, swipes map[string]models.PlayerID) (map[string]models.PlayerID, error) {
	var (
		merged    map[string]models.PlayerID
		completed bool
	)
	err := s.updateAnswers(ctx, id, func(a *models.Answers) {
		if a.Swipe == nil {
			a.Swipe = make(map[string]models.PlayerID, len(swipes))
		}
		for k, v := range swipes {
			a.Swipe[k] = v
		}
		merged = a.Swipe
	}, func(tx *sql.Tx, encoded string) error {
		if err := tx.QueryRowContext(ctx, `SELECT quiz_completed FROM players WHERE id = ?`, string(id)).Scan(&completed); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE players SET quiz_answers = ? WHERE id = ?`, encoded, string(id))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to merge swipe answers of %s: %w", id, err)
	}

	s.publish(ctx, id, completed)
	return merged, nil
}

// updateAnswers runs a read-merge-write of the answer map in one transaction
func (s *Store) updateAnswers(ctx context.Context, id models.PlayerID, merge func(*models.Answers), write func(*sql.Tx, string) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT quiz_answers FROM players WHERE id = ?`, string(id)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read answers: %w", err)
	}

	var answers models.Answers
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &answers); err != nil {
			return fmt.Errorf("failed to decode answers: %w", err)
		}
	}
	merge(&answers)

	encoded, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}
	if err := write(tx, string(encoded)); err != nil {
		return fmt.Errorf("failed to write answers: %w", err)
	}
	return tx.Commit()
}

// StampCompletion sets completed_at to now
func (s *Store) StampCompletion(ctx context.Context, id models.PlayerID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE players SET completed_at = ? WHERE id = ?`, s.now().UnixMilli(), string(id))
	if err != nil {
		return fmt.Errorf("failed to stamp completion of %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	done, err := s.QuizCompleted(ctx, id)
	if err != nil {
		return err
	}
	s.publish(ctx, id, done)
	return nil
}

const resetPlayer = `UPDATE players SET quiz_completed = ?, quiz_answers = '{}', quiz_score = 0, completed_at = NULL`

// ResetPlayer clears the quiz fields of one player
func (s *Store) ResetPlayer(ctx context.Context, id models.PlayerID) error {
	if _, err := s.db.ExecContext(ctx, resetPlayer+` WHERE id = ?`, false, string(id)); err != nil {
		return fmt.Errorf("failed to reset player %s: %w", id, err)
	}

	s.log.Info().Str("player", string(id)).Msg("Player reset")
	s.publish(ctx, id, false)
	return nil
}
