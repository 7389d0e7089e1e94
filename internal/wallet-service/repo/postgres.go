package repo

/*
Expected schema:

	CREATE TABLE wallets (
	    id          TEXT PRIMARY KEY,
	    user_id     TEXT NOT NULL UNIQUE,
	    balance_wei BIGINT NOT NULL,
	    version     BIGINT NOT NULL
	);
	CREATE TABLE escrow_holds (
	    id           TEXT PRIMARY KEY,
	    wallet_id    TEXT NOT NULL REFERENCES wallets(id),
	    external_ref TEXT NOT NULL,
	    amount_wei   BIGINT NOT NULL,
	    status       TEXT NOT NULL, -- HELD | RELEASED | REFUNDED
	    UNIQUE (wallet_id, external_ref)
	);
	CREATE TABLE wallet_ledger (
	    id             BIGSERIAL PRIMARY KEY,
	    wallet_id      TEXT NOT NULL,
	    operation_type TEXT NOT NULL, -- CREDIT | ESCROW | RELEASE | REFUND
	    amount_wei     BIGINT NOT NULL,
	    description    TEXT NOT NULL,
	    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	);
*/

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Postgres implements custody over held balances.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrHoldSettled       = errors.New("hold already settled")
)

// GetOrCreateWallet returns the walletId and balance for a user, creating the
// wallet on first sight.
func (p *Postgres) GetOrCreateWallet(ctx context.Context, userID string) (walletID string, balance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	id, bal, err := getOrCreateWalletTx(ctx, tx, userID)
	if err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}
	return id, bal, nil
}

// Deposit credits the wallet and appends the movement to the ledger.
func (p *Postgres) Deposit(ctx context.Context, userID string, amount int64, externalRef string) (walletID string, newBalance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	id, _, err := getOrCreateWalletTx(ctx, tx, userID)
	if err != nil {
		return "", 0, err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE wallets SET balance_wei = balance_wei + $1, version = version + 1 WHERE id=$2`, amount, id); err != nil {
		return "", 0, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount_wei, description) VALUES($1,'CREDIT',$2,$3)`,
		id, amount, "deposit:"+externalRef); err != nil {
		return "", 0, err
	}

	if err = tx.QueryRowContext(ctx, `SELECT balance_wei FROM wallets WHERE id=$1`, id).Scan(&newBalance); err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}
	return id, newBalance, nil
}

// Escrow debits the payer and creates a HELD hold. Idempotent by
// (wallet_id, external_ref): replaying a ref returns the existing receipt
// without moving funds twice.
func (p *Postgres) Escrow(ctx context.Context, userID string, amount int64, externalRef string) (receiptID string, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var walletID string
	if err = tx.QueryRowContext(ctx, `SELECT id FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&walletID); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", err
	}

	var exists string
	err = tx.QueryRowContext(ctx, `SELECT id FROM escrow_holds WHERE wallet_id=$1 AND external_ref=$2`, walletID, externalRef).Scan(&exists)
	if err == nil {
		return exists, nil // replay
	} else if err != sql.ErrNoRows {
		return "", err
	}

	var balance int64
	if err = tx.QueryRowContext(ctx, `SELECT balance_wei FROM wallets WHERE id=$1`, walletID).Scan(&balance); err != nil {
		return "", err
	}
	if balance < amount {
		return "", ErrInsufficientFunds
	}

	if _, err = tx.ExecContext(ctx, `UPDATE wallets SET balance_wei = balance_wei - $1, version = version + 1 WHERE id=$2`, amount, walletID); err != nil {
		return "", err
	}

	receiptID = uuid.New().String()
	if _, err = tx.ExecContext(ctx, `INSERT INTO escrow_holds(id, wallet_id, external_ref, amount_wei, status) VALUES($1,$2,$3,$4,'HELD')`,
		receiptID, walletID, externalRef, amount); err != nil {
		return "", err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount_wei, description) VALUES($1,'ESCROW',$2,$3)`,
		walletID, amount, "escrow:"+externalRef); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}

	return receiptID, nil
}

// Release settles a set of holds and credits their sum to the payee in one
// transaction. Idempotent: holds already RELEASED are skipped; a REFUNDED
// hold aborts with ErrHoldSettled.
func (p *Postgres) Release(ctx context.Context, receiptIDs []string, payeeUserID string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var total int64
	for _, rid := range receiptIDs {
		var walletID, status string
		var amount int64
		err = tx.QueryRowContext(ctx, `SELECT wallet_id, amount_wei, status FROM escrow_holds WHERE id=$1 FOR UPDATE`, rid).
			Scan(&walletID, &amount, &status)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		switch status {
		case "RELEASED":
			continue // replay
		case "REFUNDED":
			return ErrHoldSettled
		}

		if _, err = tx.ExecContext(ctx, `UPDATE escrow_holds SET status='RELEASED' WHERE id=$1`, rid); err != nil {
			return err
		}
		total += amount
	}

	if total > 0 {
		payeeWallet, _, err := getOrCreateWalletTx(ctx, tx, payeeUserID)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `UPDATE wallets SET balance_wei = balance_wei + $1, version = version + 1 WHERE id=$2`, total, payeeWallet); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount_wei, description) VALUES($1,'RELEASE',$2,$3)`,
			payeeWallet, total, "release"); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Refund undoes a HELD hold, crediting the original payer back. Idempotent:
// an already REFUNDED hold is a no-op; a RELEASED hold aborts.
func (p *Postgres) Refund(ctx context.Context, receiptID string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var walletID, status string
	var amount int64
	err = tx.QueryRowContext(ctx, `SELECT wallet_id, amount_wei, status FROM escrow_holds WHERE id=$1 FOR UPDATE`, receiptID).
		Scan(&walletID, &amount, &status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	switch status {
	case "REFUNDED":
		return nil // replay
	case "RELEASED":
		return ErrHoldSettled
	}

	if _, err = tx.ExecContext(ctx, `UPDATE wallets SET balance_wei = balance_wei + $1, version = version + 1 WHERE id=$2`, amount, walletID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE escrow_holds SET status='REFUNDED' WHERE id=$1`, receiptID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount_wei, description) VALUES($1,'REFUND',$2,$3)`,
		walletID, amount, "refund:"+receiptID); err != nil {
		return err
	}

	return tx.Commit()
}

func getOrCreateWalletTx(ctx context.Context, tx *sql.Tx, userID string) (walletID string, balance int64, err error) {
	err = tx.QueryRowContext(ctx, `SELECT id, balance_wei FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&walletID, &balance)
	if err == sql.ErrNoRows {
		walletID = uuid.New().String()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO wallets(id, user_id, balance_wei, version) VALUES($1,$2,0,1)`,
			walletID, userID); err != nil {
			return "", 0, err
		}
		return walletID, 0, nil
	}
	if err != nil {
		return "", 0, err
	}
	return walletID, balance, nil
}
