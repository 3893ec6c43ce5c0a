// internal/database/schema.go
package database

import (
	"context"
	"fmt"
)

// Schema creates the tables the match server and historian write to. Every
// statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS matches (
	id             UUID PRIMARY KEY,
	status         TEXT NOT NULL DEFAULT 'in_progress',
	initial_state  JSONB,
	final_state    JSONB,
	winning_team   INT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	ended_at       TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS match_results (
	match_id    UUID NOT NULL REFERENCES matches (id) ON DELETE CASCADE,
	player_id   UUID NOT NULL,
	team        INT NOT NULL,
	team_score  NUMERIC(6, 1) NOT NULL,
	did_win     BOOLEAN NOT NULL,
	PRIMARY KEY (match_id, player_id)
);

CREATE TABLE IF NOT EXISTS match_actions (
	match_id        UUID NOT NULL REFERENCES matches (id) ON DELETE CASCADE,
	action_index    INT NOT NULL,
	actor_user_id   UUID,
	action_type     TEXT NOT NULL,
	action_payload  JSONB NOT NULL DEFAULT '{}',
	ts              TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (match_id, action_index)
);

CREATE TABLE IF NOT EXISTS user_match_stats (
	user_id           UUID PRIMARY KEY,
	matches_played    INT NOT NULL DEFAULT 0,
	matches_won       INT NOT NULL DEFAULT 0,
	rating            DOUBLE PRECISION NOT NULL DEFAULT 1500,
	rating_deviation  DOUBLE PRECISION NOT NULL DEFAULT 350,
	volatility        DOUBLE PRECISION NOT NULL DEFAULT 0.06
);
`

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
