// internal/database/match.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/meitra/internal/cache"
	"github.com/jason-s-yu/meitra/internal/rating"
)

// Store persists match snapshots, results and the action log.
type Store struct {
	Pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// ResultPlayer is one seat of a finished match.
type ResultPlayer struct {
	ID    uuid.UUID
	Team  int
	IsCOM bool
}

// MatchResult is the outcome of a match that reached its target score.
type MatchResult struct {
	MatchID     uuid.UUID
	WinningTeam int
	Scores      [2]float64
	Players     []ResultPlayer
	FinalState  json.RawMessage
}

// ResultRow is a row of match_results.
type ResultRow struct {
	PlayerID  uuid.UUID
	Team      int
	TeamScore float64
	DidWin    bool
}

// Rows expands the result into one row per seat.
func (r MatchResult) Rows() []ResultRow {
	rows := make([]ResultRow, 0, len(r.Players))
	for _, p := range r.Players {
		rows = append(rows, ResultRow{
			PlayerID:  p.ID,
			Team:      p.Team,
			TeamScore: r.Scores[p.Team],
			DidWin:    p.Team == r.WinningTeam,
		})
	}
	return rows
}

// RecordStart stores the dealt state of a new match.
func (s *Store) RecordStart(ctx context.Context, matchID uuid.UUID, initialState []byte) error {
	q := `
		INSERT INTO matches (id, status, initial_state)
		VALUES ($1, 'in_progress', $2)
		ON CONFLICT (id)
		DO UPDATE SET initial_state = EXCLUDED.initial_state
	`
	return pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q, matchID, initialState)
		return e
	})
}

// RecordResult completes the match row, writes one result per seat and
// updates the statistics and ratings of the human players.
func (s *Store) RecordResult(ctx context.Context, res MatchResult) error {
	err := pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertMatch := `
			INSERT INTO matches (id, status, final_state, winning_team, ended_at)
			VALUES ($1, 'completed', $2, $3, NOW())
			ON CONFLICT (id)
			DO UPDATE SET status = 'completed', final_state = $2, winning_team = $3, ended_at = NOW()
		`
		if _, e := tx.Exec(ctx, upsertMatch, res.MatchID, []byte(res.FinalState), res.WinningTeam); e != nil {
			return e
		}

		for _, row := range res.Rows() {
			q := `
				INSERT INTO match_results (match_id, player_id, team, team_score, did_win)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (match_id, player_id)
				DO UPDATE SET team = $3, team_score = $4, did_win = $5
			`
			if _, e := tx.Exec(ctx, q, res.MatchID, row.PlayerID, row.Team, row.TeamScore, row.DidWin); e != nil {
				return e
			}
		}

		return updatePlayerStats(ctx, tx, res)
	})
	if err != nil {
		return fmt.Errorf("tx record match result: %w", err)
	}
	return nil
}

// updatePlayerStats bumps the counters of the human players and rates the
// match. COM seats play at the default rating and are not stored.
func updatePlayerStats(ctx context.Context, tx pgx.Tx, res MatchResult) error {
	var teams [2][]rating.Rating
	type slot struct{ team, idx int }
	slots := make(map[uuid.UUID]slot, len(res.Players))
	for _, p := range res.Players {
		r := rating.Default()
		if !p.IsCOM {
			q := `SELECT rating, rating_deviation, volatility FROM user_match_stats WHERE user_id = $1 FOR UPDATE`
			err := tx.QueryRow(ctx, q, p.ID).Scan(&r.Value, &r.Deviation, &r.Volatility)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			slots[p.ID] = slot{p.Team, len(teams[p.Team])}
		}
		teams[p.Team] = append(teams[p.Team], r)
	}
	rated := rating.UpdateTeams(teams, res.WinningTeam)

	for _, p := range res.Players {
		if p.IsCOM {
			continue
		}
		won := 0
		if p.Team == res.WinningTeam {
			won = 1
		}
		sl := slots[p.ID]
		r := rated[sl.team][sl.idx]
		q := `
			INSERT INTO user_match_stats (user_id, matches_played, matches_won, rating, rating_deviation, volatility)
			VALUES ($1, 1, $2, $3, $4, $5)
			ON CONFLICT (user_id)
			DO UPDATE SET matches_played = user_match_stats.matches_played + 1,
				matches_won = user_match_stats.matches_won + EXCLUDED.matches_won,
				rating = EXCLUDED.rating,
				rating_deviation = EXCLUDED.rating_deviation,
				volatility = EXCLUDED.volatility
		`
		if _, e := tx.Exec(ctx, q, p.ID, won, r.Value, r.Deviation, r.Volatility); e != nil {
			return e
		}
	}
	return nil
}

// InsertActions writes a batch of queued actions in a single transaction. A
// match_end action completes its match.
func (s *Store) InsertActions(ctx context.Context, records []cache.MatchActionRecord) error {
	return pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertActionTx: %w", err)
			}
		}
		return nil
	})
}

func insertActionTx(ctx context.Context, tx pgx.Tx, rec cache.MatchActionRecord) error {
	upsertMatchQ := `
		INSERT INTO matches (id, status)
		VALUES ($1, 'in_progress')
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertMatchQ, rec.MatchID); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	var actor *uuid.UUID
	if rec.ActorUserID != uuid.Nil {
		actor = &rec.ActorUserID
	}
	actionInsertQ := `
		INSERT INTO match_actions (
			match_id, action_index, actor_user_id, action_type, action_payload, ts
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (match_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, actionInsertQ,
		rec.MatchID, rec.ActionIndex, actor, rec.ActionType, payload, time.UnixMilli(rec.Timestamp),
	)
	if err != nil {
		return err
	}

	if rec.ActionType == cache.ActionMatchEnd {
		finalizeQ := `
			UPDATE matches
			SET status = 'completed', ended_at = COALESCE(ended_at, NOW())
			WHERE id = $1 AND status = 'in_progress'
		`
		if _, err = tx.Exec(ctx, finalizeQ, rec.MatchID); err != nil {
			return err
		}
	}
	return nil
}

// MarkAbandoned flags an in-progress match that stopped producing actions.
// It reports whether a row changed.
func (s *Store) MarkAbandoned(ctx context.Context, matchID uuid.UUID) (bool, error) {
	q := `
		UPDATE matches
		SET status = 'abandoned', ended_at = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	tag, err := s.Pool.Exec(ctx, q, matchID)
	if err != nil {
		return false, fmt.Errorf("mark match %s abandoned: %w", matchID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MatchStatus returns the status column of a match.
func (s *Store) MatchStatus(ctx context.Context, matchID uuid.UUID) (string, error) {
	var status string
	err := s.Pool.QueryRow(ctx, `SELECT status FROM matches WHERE id = $1`, matchID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return status, err
}

// UserMatchStats is the aggregate record of a human player.
type UserMatchStats struct {
	UserID        uuid.UUID     `json:"userId"`
	MatchesPlayed int           `json:"matchesPlayed"`
	MatchesWon    int           `json:"matchesWon"`
	Rating        rating.Rating `json:"rating"`
}

// GetUserStats loads the statistics of a player. Players without finished
// matches get a zero record at the default rating.
func (s *Store) GetUserStats(ctx context.Context, userID uuid.UUID) (UserMatchStats, error) {
	stats := UserMatchStats{UserID: userID, Rating: rating.Default()}
	q := `
		SELECT matches_played, matches_won, rating, rating_deviation, volatility
		FROM user_match_stats WHERE user_id = $1
	`
	err := s.Pool.QueryRow(ctx, q, userID).Scan(&stats.MatchesPlayed, &stats.MatchesWon,
		&stats.Rating.Value, &stats.Rating.Deviation, &stats.Rating.Volatility)
	if errors.Is(err, pgx.ErrNoRows) {
		return stats, nil
	}
	return stats, err
}

var ErrNotFound = errors.New("not found")
