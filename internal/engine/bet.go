package engine

import (
	"fmt"
	"strings"
	"time"
)

// Address is a canonical (lowercased) 0x-prefixed hex account identifier.
// The engine trusts it as an authenticated principal; it never authenticates.
type Address string

// ParseAddress validates the 0x + 40 hex chars syntax and lowercases, so two
// spellings of the same account always compare equal.
func ParseAddress(s string) (Address, error) {
	if len(s) != 42 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return "", fmt.Errorf("malformed address %q", s)
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return "", fmt.Errorf("malformed address %q", s)
		}
	}
	return Address(strings.ToLower(s)), nil
}

// Status of a bet. Transitions are forward-only:
// PENDING -> ACTIVE -> RESOLVED, or PENDING -> CANCELLED.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusResolved  Status = "RESOLVED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

// Bet is the central record owned by the ledger.
type Bet struct {
	ID            uint64
	Creator       Address
	Opponent      Address
	Judges        []Address // ordered, no duplicates, fixed at creation
	RequiredVotes int
	AmountWei     int64 // stake per side, smallest unit
	Terms         string
	Status        Status
	Winner        Address // empty until RESOLVED
	CreatorVotes  int
	OpponentVotes int
	Votes         map[Address]Address // judge -> chosen side, append-only

	// Custody receipts for the two escrowed stakes.
	CreatorReceipt  string
	OpponentReceipt string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasJudge reports whether a is on the judge panel.
func (b *Bet) HasJudge(a Address) bool {
	for _, j := range b.Judges {
		if j == a {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing internal state to mutation.
func (b *Bet) Clone() *Bet {
	cp := *b
	cp.Judges = append([]Address(nil), b.Judges...)
	cp.Votes = make(map[Address]Address, len(b.Votes))
	for j, side := range b.Votes {
		cp.Votes[j] = side
	}
	return &cp
}
