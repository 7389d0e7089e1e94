package events

// Event types carried in Envelope.Type.
const (
	TypeBetCreated   = "bet_created"
	TypeBetAccepted  = "bet_accepted"
	TypeJudgeVoted   = "judge_voted"
	TypeBetResolved  = "bet_resolved"
	TypeBetCancelled = "bet_cancelled"
)

// Envelope is embedded in every lifecycle event. Type and TsUnixMs are filled
// by the publisher at send time, after the mutating transaction committed.
type Envelope struct {
	Type     string `json:"type"`
	BetID    uint64 `json:"bet_id"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}

type BetCreated struct {
	Envelope
	Creator       string   `json:"creator"`
	Opponent      string   `json:"opponent"`
	Judges        []string `json:"judges"`
	RequiredVotes int      `json:"required_votes"`
	AmountWei     int64    `json:"amount_wei"`
	Terms         string   `json:"terms"`
}

type BetAccepted struct {
	Envelope
	Opponent  string `json:"opponent"`
	AmountWei int64  `json:"amount_wei"`
}

type JudgeVoted struct {
	Envelope
	Judge         string `json:"judge"`
	VotedFor      string `json:"voted_for"`
	CreatorVotes  int    `json:"creator_votes"`
	OpponentVotes int    `json:"opponent_votes"`
}

type BetResolved struct {
	Envelope
	Winner    string `json:"winner"`
	PayoutWei int64  `json:"payout_wei"` // both stakes, released to the winner
}

type BetCancelled struct {
	Envelope
	Creator   string `json:"creator"`
	RefundWei int64  `json:"refund_wei"`
}
