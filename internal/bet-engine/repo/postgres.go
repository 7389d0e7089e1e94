package repo

/*
Expected schema:

	CREATE TABLE bets (
	    id               BIGSERIAL PRIMARY KEY,
	    creator          TEXT        NOT NULL,
	    opponent         TEXT        NOT NULL,
	    required_votes   INT         NOT NULL,
	    amount_wei       BIGINT      NOT NULL,
	    terms            TEXT        NOT NULL,
	    status           TEXT        NOT NULL,
	    winner           TEXT        NOT NULL DEFAULT '',
	    creator_votes    INT         NOT NULL DEFAULT 0,
	    opponent_votes   INT         NOT NULL DEFAULT 0,
	    creator_receipt  TEXT        NOT NULL DEFAULT '',
	    opponent_receipt TEXT        NOT NULL DEFAULT '',
	    created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE bet_judges (
	    bet_id   BIGINT NOT NULL REFERENCES bets(id),
	    judge    TEXT   NOT NULL,
	    position INT    NOT NULL,
	    PRIMARY KEY (bet_id, judge)
	);
	CREATE TABLE bet_votes (
	    bet_id BIGINT NOT NULL REFERENCES bets(id),
	    judge  TEXT   NOT NULL,
	    side   TEXT   NOT NULL,
	    PRIMARY KEY (bet_id, judge)
	);
*/

import (
	"context"
	"database/sql"
	"time"

	"github.com/radieske/verdict-engine/internal/engine"
)

// Postgres implements engine.Store. Mutations run in a transaction with a
// row lock on the bet; the custody callback executes inside that transaction
// so fund movement and status change commit or roll back together.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) CreateBet(ctx context.Context, b *engine.Bet, escrow func(id uint64) (string, error)) (uint64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id uint64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO bets (creator, opponent, required_votes, amount_wei, terms, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
		RETURNING id`,
		b.Creator, b.Opponent, b.RequiredVotes, b.AmountWei, b.Terms, engine.StatusPending, b.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	for pos, j := range b.Judges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bet_judges (bet_id, judge, position) VALUES ($1,$2,$3)`,
			id, j, pos); err != nil {
			return 0, err
		}
	}

	receipt, err := escrow(id)
	if err != nil {
		return 0, err // rollback drops the staged row
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE bets SET creator_receipt=$1 WHERE id=$2`, receipt, id); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (p *Postgres) Activate(ctx context.Context, id uint64, escrow func() (string, error)) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	status, err := lockStatus(ctx, tx, id)
	if err != nil {
		return err
	}
	if status != engine.StatusPending {
		return engine.ErrInvalidState
	}

	receipt, err := escrow()
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE bets SET status=$1, opponent_receipt=$2, updated_at=$3 WHERE id=$4`,
		engine.StatusActive, receipt, time.Now(), id); err != nil {
		return err
	}

	return tx.Commit()
}

func (p *Postgres) RecordVote(ctx context.Context, id uint64, judge, side engine.Address) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := p.stageVote(ctx, tx, id, judge, side); err != nil {
		return err
	}

	return tx.Commit()
}

func (p *Postgres) ResolveWithVote(ctx context.Context, id uint64, judge, side, winner engine.Address, release func() error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := p.stageVote(ctx, tx, id, judge, side); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE bets SET status=$1, winner=$2, updated_at=$3 WHERE id=$4`,
		engine.StatusResolved, winner, time.Now(), id); err != nil {
		return err
	}

	// Payout inside the transaction: a failed release rolls everything back.
	if err := release(); err != nil {
		return err
	}

	return tx.Commit()
}

func (p *Postgres) Cancel(ctx context.Context, id uint64, refund func() error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	status, err := lockStatus(ctx, tx, id)
	if err != nil {
		return err
	}
	if status != engine.StatusPending {
		return engine.ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE bets SET status=$1, updated_at=$2 WHERE id=$3`,
		engine.StatusCancelled, time.Now(), id); err != nil {
		return err
	}

	if err := refund(); err != nil {
		return err
	}

	return tx.Commit()
}

func (p *Postgres) GetBet(ctx context.Context, id uint64) (*engine.Bet, error) {
	b := &engine.Bet{Votes: map[engine.Address]engine.Address{}}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, creator, opponent, required_votes, amount_wei, terms, status,
		       winner, creator_votes, opponent_votes, creator_receipt, opponent_receipt,
		       created_at, updated_at
		FROM bets WHERE id=$1`, id,
	).Scan(&b.ID, &b.Creator, &b.Opponent, &b.RequiredVotes, &b.AmountWei, &b.Terms, &b.Status,
		&b.Winner, &b.CreatorVotes, &b.OpponentVotes, &b.CreatorReceipt, &b.OpponentReceipt,
		&b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT judge FROM bet_judges WHERE bet_id=$1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var j engine.Address
		if err := rows.Scan(&j); err != nil {
			return nil, err
		}
		b.Judges = append(b.Judges, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	votes, err := p.db.QueryContext(ctx,
		`SELECT judge, side FROM bet_votes WHERE bet_id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer votes.Close()
	for votes.Next() {
		var j, side engine.Address
		if err := votes.Scan(&j, &side); err != nil {
			return nil, err
		}
		b.Votes[j] = side
	}
	return b, votes.Err()
}

func (p *Postgres) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bets`).Scan(&n)
	return n, err
}

func (p *Postgres) ListByParticipant(ctx context.Context, addr engine.Address) ([]*engine.Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT DISTINCT b.id
		FROM bets b
		LEFT JOIN bet_judges j ON j.bet_id = b.id
		WHERE b.creator=$1 OR b.opponent=$1 OR j.judge=$1
		ORDER BY b.id`, addr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// One query per bet keeps assembly simple; participant views are small.
	out := make([]*engine.Bet, 0, len(ids))
	for _, id := range ids {
		b, err := p.GetBet(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// stageVote locks the bet row, verifies it is still ACTIVE, appends the vote
// and bumps the voted side's tally. Caller commits.
func (p *Postgres) stageVote(ctx context.Context, tx *sql.Tx, id uint64, judge, side engine.Address) error {
	status, err := lockStatus(ctx, tx, id)
	if err != nil {
		return err
	}
	if status != engine.StatusActive {
		return engine.ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bet_votes (bet_id, judge, side) VALUES ($1,$2,$3)`,
		id, judge, side); err != nil {
		return err
	}

	var creator engine.Address
	if err := tx.QueryRowContext(ctx, `SELECT creator FROM bets WHERE id=$1`, id).Scan(&creator); err != nil {
		return err
	}
	column := "opponent_votes"
	if side == creator {
		column = "creator_votes"
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE bets SET `+column+` = `+column+` + 1, updated_at=$1 WHERE id=$2`,
		time.Now(), id)
	return err
}

func lockStatus(ctx context.Context, tx *sql.Tx, id uint64) (engine.Status, error) {
	var status engine.Status
	err := tx.QueryRowContext(ctx, `SELECT status FROM bets WHERE id=$1 FOR UPDATE`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return "", engine.ErrNotFound
	}
	return status, err
}
