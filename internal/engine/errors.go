package engine

import "errors"

// Validation errors are detected before any mutation; the bet record and
// escrow state are left untouched. Custody errors abort the whole operation,
// including any status change staged in the same transaction.
var (
	ErrInvalidParticipants = errors.New("invalid participants")
	ErrInvalidJudgePanel   = errors.New("invalid judge panel")
	ErrInvalidStake        = errors.New("invalid stake")
	ErrInvalidTerms        = errors.New("invalid terms")
	ErrStakeMismatch       = errors.New("stake mismatch")
	ErrNotFound            = errors.New("bet not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidState        = errors.New("invalid state")
	ErrDuplicateVote       = errors.New("duplicate vote")
	ErrInvalidChoice       = errors.New("invalid choice")

	ErrEscrowFailed  = errors.New("escrow failed")
	ErrReleaseFailed = errors.New("release failed")
	ErrRefundFailed  = errors.New("refund failed")
)
