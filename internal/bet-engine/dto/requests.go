package dto

// Caller fields carry the authenticated principal. Authentication itself is
// the gateway's job; the engine only authorizes against stored fields.

type CreateBetRequest struct {
	Creator       string   `json:"creator"`
	Opponent      string   `json:"opponent"`
	Judges        []string `json:"judges"`
	RequiredVotes int      `json:"required_votes"`
	Terms         string   `json:"terms"`
	AmountWei     int64    `json:"amount_wei"` // stake per side, smallest unit
}

type AcceptBetRequest struct {
	Caller    string `json:"caller"`
	AmountWei int64  `json:"amount_wei"` // must match the wager exactly
}

type VoteRequest struct {
	Caller string `json:"caller"`
	Winner string `json:"winner"` // creator or opponent address
}

type CancelBetRequest struct {
	Caller string `json:"caller"`
}
