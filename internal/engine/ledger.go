package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/verdict-engine/pkg/contracts/events"
)

// Store persists bet records. Mutating methods receive a custody callback
// that must run inside the store's own transaction: if the callback errors
// the staged state change is rolled back, so fund movement and status commit
// or fail as one unit.
type Store interface {
	// CreateBet assigns the next sequential id, persists b (status PENDING)
	// and stores the receipt returned by escrow.
	CreateBet(ctx context.Context, b *Bet, escrow func(id uint64) (receipt string, err error)) (uint64, error)
	// Activate flips PENDING -> ACTIVE and stores the opponent's receipt.
	Activate(ctx context.Context, id uint64, escrow func() (receipt string, err error)) error
	// RecordVote appends a judge vote and bumps the side's tally.
	RecordVote(ctx context.Context, id uint64, judge, side Address) error
	// ResolveWithVote appends the deciding vote, sets winner and
	// ACTIVE -> RESOLVED, and runs release in the same transaction.
	ResolveWithVote(ctx context.Context, id uint64, judge, side, winner Address, release func() error) error
	// Cancel flips PENDING -> CANCELLED and runs refund in the same transaction.
	Cancel(ctx context.Context, id uint64, refund func() error) error

	GetBet(ctx context.Context, id uint64) (*Bet, error)
	Count(ctx context.Context) (uint64, error)
	ListByParticipant(ctx context.Context, addr Address) ([]*Bet, error)
}

// Custody moves escrowed funds. The engine never holds balances itself.
type Custody interface {
	Escrow(ctx context.Context, payer Address, amountWei int64, ref string) (receipt string, err error)
	Release(ctx context.Context, receipts []string, payee Address) error
	Refund(ctx context.Context, receipt string) error
}

// Notifier receives lifecycle events strictly after the mutating transaction
// committed. Delivery to downstream subscribers is the notifier's concern.
type Notifier interface {
	BetCreated(ctx context.Context, e events.BetCreated) error
	BetAccepted(ctx context.Context, e events.BetAccepted) error
	JudgeVoted(ctx context.Context, e events.JudgeVoted) error
	BetResolved(ctx context.Context, e events.BetResolved) error
	BetCancelled(ctx context.Context, e events.BetCancelled) error
}

// Ledger is the wager state machine. State-changing calls are serialized per
// bet id; operations on different ids proceed in parallel. Reads bypass the
// lock and see the latest committed snapshot.
type Ledger struct {
	log     *zap.Logger
	store   Store
	custody Custody
	notify  Notifier
	locks   *keyedLock
	now     func() time.Time
}

func NewLedger(log *zap.Logger, store Store, custody Custody, notify Notifier) *Ledger {
	return &Ledger{
		log:     log,
		store:   store,
		custody: custody,
		notify:  notify,
		locks:   newKeyedLock(),
		now:     time.Now,
	}
}

// CreateParams are the caller-supplied inputs of Create. Creator is the
// authenticated principal.
type CreateParams struct {
	Creator       Address
	Opponent      Address
	Judges        []Address
	RequiredVotes int
	Terms         string
	AmountWei     int64
}

func (p CreateParams) validate() error {
	if p.Creator == "" || p.Opponent == "" {
		return ErrInvalidParticipants
	}
	if p.Opponent == p.Creator {
		return fmt.Errorf("%w: opponent equals creator", ErrInvalidParticipants)
	}
	if len(p.Judges) == 0 {
		return fmt.Errorf("%w: empty panel", ErrInvalidJudgePanel)
	}
	seen := make(map[Address]struct{}, len(p.Judges))
	for _, j := range p.Judges {
		if j == "" {
			return fmt.Errorf("%w: malformed judge", ErrInvalidJudgePanel)
		}
		if _, dup := seen[j]; dup {
			return fmt.Errorf("%w: duplicate judge %s", ErrInvalidJudgePanel, j)
		}
		seen[j] = struct{}{}
		// A conflicted panel would let a participant decide their own bet.
		if j == p.Creator || j == p.Opponent {
			return fmt.Errorf("%w: judge %s is a participant", ErrInvalidJudgePanel, j)
		}
	}
	if p.RequiredVotes < 1 || p.RequiredVotes > len(p.Judges) {
		return fmt.Errorf("%w: requiredVotes %d out of range", ErrInvalidJudgePanel, p.RequiredVotes)
	}
	if p.AmountWei <= 0 {
		return ErrInvalidStake
	}
	if p.Terms == "" {
		return ErrInvalidTerms
	}
	return nil
}

// Create validates, escrows the creator's stake and persists the bet as
// PENDING, all-or-nothing. Returns the new bet id.
func (l *Ledger) Create(ctx context.Context, p CreateParams) (uint64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}

	now := l.now()
	b := &Bet{
		Creator:       p.Creator,
		Opponent:      p.Opponent,
		Judges:        append([]Address(nil), p.Judges...),
		RequiredVotes: p.RequiredVotes,
		AmountWei:     p.AmountWei,
		Terms:         p.Terms,
		Status:        StatusPending,
		Votes:         map[Address]Address{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	id, err := l.store.CreateBet(ctx, b, func(id uint64) (string, error) {
		receipt, err := l.custody.Escrow(ctx, p.Creator, p.AmountWei, escrowRef(id, "creator"))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrEscrowFailed, err)
		}
		return receipt, nil
	})
	if err != nil {
		return 0, err
	}

	l.emit("bet_created", id, l.notify.BetCreated(ctx, events.BetCreated{
		Envelope:      events.Envelope{BetID: id},
		Creator:       string(p.Creator),
		Opponent:      string(p.Opponent),
		Judges:        addressStrings(p.Judges),
		RequiredVotes: p.RequiredVotes,
		AmountWei:     p.AmountWei,
		Terms:         p.Terms,
	}))
	return id, nil
}

// Accept escrows the opponent's matching stake and activates the bet. The
// stake must match the wager exactly.
func (l *Ledger) Accept(ctx context.Context, id uint64, caller Address, amountWei int64) error {
	l.locks.lock(id)
	defer l.locks.unlock(id)

	b, err := l.store.GetBet(ctx, id)
	if err != nil {
		return err
	}
	if b.Status != StatusPending {
		return fmt.Errorf("%w: bet is %s", ErrInvalidState, b.Status)
	}
	if caller != b.Opponent {
		return fmt.Errorf("%w: only the opponent may accept", ErrUnauthorized)
	}
	if amountWei != b.AmountWei {
		return fmt.Errorf("%w: want %d got %d", ErrStakeMismatch, b.AmountWei, amountWei)
	}

	err = l.store.Activate(ctx, id, func() (string, error) {
		receipt, err := l.custody.Escrow(ctx, b.Opponent, b.AmountWei, escrowRef(id, "opponent"))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrEscrowFailed, err)
		}
		return receipt, nil
	})
	if err != nil {
		return err
	}

	l.emit("bet_accepted", id, l.notify.BetAccepted(ctx, events.BetAccepted{
		Envelope:  events.Envelope{BetID: id},
		Opponent:  string(b.Opponent),
		AmountWei: b.AmountWei,
	}))
	return nil
}

// Vote records a judge's choice. The first vote that lifts a side's tally to
// RequiredVotes resolves the bet and releases both stakes to the winner in
// the same transaction; later votes fail with ErrInvalidState.
func (l *Ledger) Vote(ctx context.Context, id uint64, caller, chosenWinner Address) error {
	l.locks.lock(id)
	defer l.locks.unlock(id)

	b, err := l.store.GetBet(ctx, id)
	if err != nil {
		return err
	}
	if b.Status != StatusActive {
		return fmt.Errorf("%w: bet is %s", ErrInvalidState, b.Status)
	}
	if !b.HasJudge(caller) {
		return fmt.Errorf("%w: %s is not on the panel", ErrUnauthorized, caller)
	}
	if _, voted := b.Votes[caller]; voted {
		return fmt.Errorf("%w: judge %s", ErrDuplicateVote, caller)
	}
	if chosenWinner != b.Creator && chosenWinner != b.Opponent {
		return fmt.Errorf("%w: %s is not a participant", ErrInvalidChoice, chosenWinner)
	}

	tally := b.CreatorVotes
	if chosenWinner == b.Opponent {
		tally = b.OpponentVotes
	}
	tally++

	if tally < b.RequiredVotes {
		if err := l.store.RecordVote(ctx, id, caller, chosenWinner); err != nil {
			return err
		}
		l.emitVoted(ctx, b, id, caller, chosenWinner)
		return nil
	}

	// Deciding vote: resolution, vote record and payout commit as one unit.
	err = l.store.ResolveWithVote(ctx, id, caller, chosenWinner, chosenWinner, func() error {
		if err := l.custody.Release(ctx, []string{b.CreatorReceipt, b.OpponentReceipt}, chosenWinner); err != nil {
			return fmt.Errorf("%w: %v", ErrReleaseFailed, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.emitVoted(ctx, b, id, caller, chosenWinner)
	l.emit("bet_resolved", id, l.notify.BetResolved(ctx, events.BetResolved{
		Envelope:  events.Envelope{BetID: id},
		Winner:    string(chosenWinner),
		PayoutWei: 2 * b.AmountWei,
	}))
	return nil
}

// Cancel lets the creator withdraw a bet nobody accepted yet; the escrowed
// stake is refunded in full.
func (l *Ledger) Cancel(ctx context.Context, id uint64, caller Address) error {
	l.locks.lock(id)
	defer l.locks.unlock(id)

	b, err := l.store.GetBet(ctx, id)
	if err != nil {
		return err
	}
	if b.Status != StatusPending {
		return fmt.Errorf("%w: bet is %s", ErrInvalidState, b.Status)
	}
	if caller != b.Creator {
		return fmt.Errorf("%w: only the creator may cancel", ErrUnauthorized)
	}

	err = l.store.Cancel(ctx, id, func() error {
		if err := l.custody.Refund(ctx, b.CreatorReceipt); err != nil {
			return fmt.Errorf("%w: %v", ErrRefundFailed, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.emit("bet_cancelled", id, l.notify.BetCancelled(ctx, events.BetCancelled{
		Envelope:  events.Envelope{BetID: id},
		Creator:   string(b.Creator),
		RefundWei: b.AmountWei,
	}))
	return nil
}

// Get returns the latest committed snapshot of a bet.
func (l *Ledger) Get(ctx context.Context, id uint64) (*Bet, error) {
	return l.store.GetBet(ctx, id)
}

// Judges returns the panel of a bet in creation order.
func (l *Ledger) Judges(ctx context.Context, id uint64) ([]Address, error) {
	b, err := l.store.GetBet(ctx, id)
	if err != nil {
		return nil, err
	}
	return b.Judges, nil
}

// JudgeVote returns the side a judge voted for, or empty if the judge has not
// voted (or is not on the panel).
func (l *Ledger) JudgeVote(ctx context.Context, id uint64, judge Address) (Address, error) {
	b, err := l.store.GetBet(ctx, id)
	if err != nil {
		return "", err
	}
	return b.Votes[judge], nil
}

// Count returns how many bets were ever created.
func (l *Ledger) Count(ctx context.Context) (uint64, error) {
	return l.store.Count(ctx)
}

// ListByParticipant returns every bet addr is involved in, as creator,
// opponent or judge, ordered by id.
func (l *Ledger) ListByParticipant(ctx context.Context, addr Address) ([]*Bet, error) {
	return l.store.ListByParticipant(ctx, addr)
}

func (l *Ledger) emitVoted(ctx context.Context, b *Bet, id uint64, judge, side Address) {
	cv, ov := b.CreatorVotes, b.OpponentVotes
	if side == b.Creator {
		cv++
	} else {
		ov++
	}
	l.emit("judge_voted", id, l.notify.JudgeVoted(ctx, events.JudgeVoted{
		Envelope:      events.Envelope{BetID: id},
		Judge:         string(judge),
		VotedFor:      string(side),
		CreatorVotes:  cv,
		OpponentVotes: ov,
	}))
}

// emit logs a failed notification; the state change already committed, so
// the operation itself does not fail. At-least-once delivery is the
// notifier's concern.
func (l *Ledger) emit(event string, id uint64, err error) {
	if err != nil {
		l.log.Warn("notify failed", zap.String("event", event), zap.Uint64("betId", id), zap.Error(err))
	}
}

// escrowRef is the idempotency key custody sees for one side's stake.
func escrowRef(id uint64, side string) string {
	return fmt.Sprintf("bet:%d:%s", id, side)
}

func addressStrings(as []Address) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = string(a)
	}
	return out
}
