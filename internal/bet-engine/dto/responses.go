package dto

type CreateBetResponse struct {
	BetID  uint64 `json:"betId"`
	Status string `json:"status"` // PENDING
}

type StatusResponse struct {
	BetID  uint64 `json:"betId"`
	Status string `json:"status"`
}

type BetResponse struct {
	BetID         uint64   `json:"betId"`
	Creator       string   `json:"creator"`
	Opponent      string   `json:"opponent"`
	Judges        []string `json:"judges"`
	RequiredVotes int      `json:"required_votes"`
	AmountWei     int64    `json:"amount_wei"`
	Terms         string   `json:"terms"`
	Status        string   `json:"status"`
	Winner        string   `json:"winner,omitempty"`
	CreatorVotes  int      `json:"creator_votes"`
	OpponentVotes int      `json:"opponent_votes"`
}

type JudgesResponse struct {
	BetID  uint64   `json:"betId"`
	Judges []string `json:"judges"`
}

type JudgeVoteResponse struct {
	BetID    uint64 `json:"betId"`
	Judge    string `json:"judge"`
	VotedFor string `json:"voted_for,omitempty"` // empty while the judge is silent
}

type CountResponse struct {
	Count uint64 `json:"count"`
}

type ListResponse struct {
	Participant string        `json:"participant"`
	Bets        []BetResponse `json:"bets"`
}
