package repo

/*
Expected schema:

	CREATE TABLE settlements (
	    bet_id     BIGINT PRIMARY KEY,
	    outcome    TEXT   NOT NULL, -- RESOLVED | CANCELLED
	    winner     TEXT   NOT NULL DEFAULT '',
	    amount_wei BIGINT NOT NULL,
	    settled_at TIMESTAMPTZ NOT NULL
	);
*/

import (
	"context"
	"database/sql"
	"time"
)

// Postgres keeps the terminal-outcome history consumed from the lifecycle
// topic. One row per bet; replays under at-least-once delivery are absorbed
// by the primary key.
type Postgres struct{ DB *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{DB: db} }

type Settlement struct {
	BetID     uint64
	Outcome   string // RESOLVED | CANCELLED
	Winner    string // empty for cancellations
	AmountWei int64  // payout or refund
	SettledAt time.Time
}

func (r *Postgres) Insert(ctx context.Context, s Settlement) error {
	const q = `
		INSERT INTO settlements (bet_id, outcome, winner, amount_wei, settled_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (bet_id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, q, s.BetID, s.Outcome, s.Winner, s.AmountWei, s.SettledAt)
	return err
}
