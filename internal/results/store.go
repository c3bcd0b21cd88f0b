package results

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Record is one finished game.
type Record struct {
	GameID     string    `json:"gameId"`
	Mode       string    `json:"mode"`
	Secret     string    `json:"secret"`
	Rounds     int       `json:"rounds"`
	Won        bool      `json:"won"`
	Guesses    []string  `json:"guesses"`
	ElapsedMs  int       `json:"elapsedMs"`
	FinishedAt time.Time `json:"finishedAt"`
}

// LBRow is one leaderboard entry.
type LBRow struct {
	GameID    string `json:"gameId"`
	Mode      string `json:"mode"`
	Rounds    int    `json:"rounds"`
	ElapsedMs int    `json:"elapsedMs"`
}

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000Z"

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Insert records a finished game. Re-inserting the same game ID is ignored.
func (s *Store) Insert(ctx context.Context, r Record) error {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO game_results
            (game_id, mode, secret, rounds, won, guesses, date, elapsed_ms, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.GameID, r.Mode, r.Secret, r.Rounds, r.Won, strings.Join(r.Guesses, ","),
		DateKey(r.FinishedAt), r.ElapsedMs, r.FinishedAt.UTC().Format(timeLayout),
	)
	return err
}

// Recent returns the latest finished games, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT game_id, mode, secret, rounds, won, guesses, elapsed_ms, finished_at
        FROM game_results
        ORDER BY finished_at DESC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var (
			r        Record
			guesses  string
			finished string
		)
		if err := rows.Scan(&r.GameID, &r.Mode, &r.Secret, &r.Rounds, &r.Won, &guesses, &r.ElapsedMs, &finished); err != nil {
			return nil, err
		}
		if guesses != "" {
			r.Guesses = strings.Split(guesses, ",")
		}
		r.FinishedAt, _ = time.Parse(timeLayout, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Leaderboard returns the won games of a date with the fewest rounds.
// Ties go to the faster game, then the earlier one.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT game_id, mode, rounds, elapsed_ms
        FROM game_results
        WHERE date=? AND won=1
        ORDER BY rounds ASC, elapsed_ms ASC, finished_at ASC
        LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.GameID, &r.Mode, &r.Rounds, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
