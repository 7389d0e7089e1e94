package engine

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store with the same transactional contract as the
// Postgres one: the custody callback runs before anything becomes visible, so
// a custody failure leaves no trace. Used by tests and local single-process
// runs.
type MemStore struct {
	mu     sync.RWMutex
	nextID uint64
	bets   map[uint64]*Bet
}

func NewMemStore() *MemStore {
	return &MemStore{nextID: 1, bets: make(map[uint64]*Bet)}
}

func (m *MemStore) CreateBet(ctx context.Context, b *Bet, escrow func(id uint64) (string, error)) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	receipt, err := escrow(id)
	if err != nil {
		return 0, err
	}
	m.nextID++

	cp := b.Clone()
	cp.ID = id
	cp.CreatorReceipt = receipt
	m.bets[id] = cp
	return id, nil
}

func (m *MemStore) Activate(ctx context.Context, id uint64, escrow func() (string, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bets[id]
	if !ok {
		return ErrNotFound
	}
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	receipt, err := escrow()
	if err != nil {
		return err
	}
	b.OpponentReceipt = receipt
	b.Status = StatusActive
	return nil
}

func (m *MemStore) RecordVote(ctx context.Context, id uint64, judge, side Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bets[id]
	if !ok {
		return ErrNotFound
	}
	if b.Status != StatusActive {
		return ErrInvalidState
	}
	m.applyVote(b, judge, side)
	return nil
}

func (m *MemStore) ResolveWithVote(ctx context.Context, id uint64, judge, side, winner Address, release func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bets[id]
	if !ok {
		return ErrNotFound
	}
	if b.Status != StatusActive {
		return ErrInvalidState
	}
	if err := release(); err != nil {
		return err
	}
	m.applyVote(b, judge, side)
	b.Winner = winner
	b.Status = StatusResolved
	return nil
}

func (m *MemStore) Cancel(ctx context.Context, id uint64, refund func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bets[id]
	if !ok {
		return ErrNotFound
	}
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	if err := refund(); err != nil {
		return err
	}
	b.Status = StatusCancelled
	return nil
}

func (m *MemStore) GetBet(ctx context.Context, id uint64) (*Bet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

func (m *MemStore) Count(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.bets)), nil
}

func (m *MemStore) ListByParticipant(ctx context.Context, addr Address) ([]*Bet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Bet
	for id := uint64(1); id < m.nextID; id++ {
		b, ok := m.bets[id]
		if !ok {
			continue
		}
		if b.Creator == addr || b.Opponent == addr || b.HasJudge(addr) {
			out = append(out, b.Clone())
		}
	}
	return out, nil
}

func (m *MemStore) applyVote(b *Bet, judge, side Address) {
	b.Votes[judge] = side
	if side == b.Creator {
		b.CreatorVotes++
	} else {
		b.OpponentVotes++
	}
}
