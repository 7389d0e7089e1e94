package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/radieske/verdict-engine/internal/bet-engine/dto"
	"github.com/radieske/verdict-engine/internal/engine"
)

var opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "verdict_engine_ops_total",
	Help: "Mutating ledger operations by outcome.",
}, []string{"op", "outcome"})

// Server exposes the wager ledger over HTTP.
type Server struct {
	log *zap.Logger
	led *engine.Ledger
}

func NewServer(log *zap.Logger, led *engine.Ledger) *Server {
	return &Server{log: log, led: led}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bets", s.handleBets)    // POST create, GET ?participant=
	mux.HandleFunc("/bets/", s.handleBetSub) // /bets/{id}[/accept|/vote|/cancel|/judges|/votes/{judge}], /bets/count
	return mux
}

func (s *Server) handleBets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createBet(w, r)
	case http.MethodGet:
		s.listByParticipant(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleBetSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/bets/"), "/")
	if rest == "count" {
		s.count(w, r)
		return
	}

	parts := strings.Split(rest, "/")
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "betId must be a non-negative integer", http.StatusBadRequest)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.getBet(w, r, id)
	case len(parts) == 2 && parts[1] == "judges" && r.Method == http.MethodGet:
		s.getJudges(w, r, id)
	case len(parts) == 3 && parts[1] == "votes" && r.Method == http.MethodGet:
		s.getJudgeVote(w, r, id, parts[2])
	case len(parts) == 2 && parts[1] == "accept" && r.Method == http.MethodPost:
		s.acceptBet(w, r, id)
	case len(parts) == 2 && parts[1] == "vote" && r.Method == http.MethodPost:
		s.vote(w, r, id)
	case len(parts) == 2 && parts[1] == "cancel" && r.Method == http.MethodPost:
		s.cancelBet(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) createBet(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	creator, err := engine.ParseAddress(req.Creator)
	if err != nil {
		s.fail(w, "create", engine.ErrInvalidParticipants)
		return
	}
	opponent, err := engine.ParseAddress(req.Opponent)
	if err != nil {
		s.fail(w, "create", engine.ErrInvalidParticipants)
		return
	}
	judges := make([]engine.Address, 0, len(req.Judges))
	for _, j := range req.Judges {
		a, err := engine.ParseAddress(j)
		if err != nil {
			s.fail(w, "create", engine.ErrInvalidJudgePanel)
			return
		}
		judges = append(judges, a)
	}

	id, err := s.led.Create(r.Context(), engine.CreateParams{
		Creator:       creator,
		Opponent:      opponent,
		Judges:        judges,
		RequiredVotes: req.RequiredVotes,
		Terms:         req.Terms,
		AmountWei:     req.AmountWei,
	})
	if err != nil {
		s.fail(w, "create", err)
		return
	}

	opsTotal.WithLabelValues("create", "ok").Inc()
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, dto.CreateBetResponse{BetID: id, Status: string(engine.StatusPending)})
}

func (s *Server) acceptBet(w http.ResponseWriter, r *http.Request, id uint64) {
	var req dto.AcceptBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	caller, err := engine.ParseAddress(req.Caller)
	if err != nil {
		s.fail(w, "accept", engine.ErrUnauthorized)
		return
	}

	if err := s.led.Accept(r.Context(), id, caller, req.AmountWei); err != nil {
		s.fail(w, "accept", err)
		return
	}

	opsTotal.WithLabelValues("accept", "ok").Inc()
	writeJSON(w, dto.StatusResponse{BetID: id, Status: string(engine.StatusActive)})
}

func (s *Server) vote(w http.ResponseWriter, r *http.Request, id uint64) {
	var req dto.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	caller, err := engine.ParseAddress(req.Caller)
	if err != nil {
		s.fail(w, "vote", engine.ErrUnauthorized)
		return
	}
	winner, err := engine.ParseAddress(req.Winner)
	if err != nil {
		s.fail(w, "vote", engine.ErrInvalidChoice)
		return
	}

	if err := s.led.Vote(r.Context(), id, caller, winner); err != nil {
		s.fail(w, "vote", err)
		return
	}

	b, err := s.led.Get(r.Context(), id)
	if err != nil {
		s.fail(w, "vote", err)
		return
	}
	opsTotal.WithLabelValues("vote", "ok").Inc()
	writeJSON(w, dto.StatusResponse{BetID: id, Status: string(b.Status)})
}

func (s *Server) cancelBet(w http.ResponseWriter, r *http.Request, id uint64) {
	var req dto.CancelBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	caller, err := engine.ParseAddress(req.Caller)
	if err != nil {
		s.fail(w, "cancel", engine.ErrUnauthorized)
		return
	}

	if err := s.led.Cancel(r.Context(), id, caller); err != nil {
		s.fail(w, "cancel", err)
		return
	}

	opsTotal.WithLabelValues("cancel", "ok").Inc()
	writeJSON(w, dto.StatusResponse{BetID: id, Status: string(engine.StatusCancelled)})
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request, id uint64) {
	b, err := s.led.Get(r.Context(), id)
	if err != nil {
		s.fail(w, "get", err)
		return
	}
	writeJSON(w, toBetResponse(b))
}

func (s *Server) getJudges(w http.ResponseWriter, r *http.Request, id uint64) {
	js, err := s.led.Judges(r.Context(), id)
	if err != nil {
		s.fail(w, "judges", err)
		return
	}
	out := dto.JudgesResponse{BetID: id}
	for _, j := range js {
		out.Judges = append(out.Judges, string(j))
	}
	writeJSON(w, out)
}

func (s *Server) getJudgeVote(w http.ResponseWriter, r *http.Request, id uint64, judge string) {
	a, err := engine.ParseAddress(judge)
	if err != nil {
		http.Error(w, "malformed judge address", http.StatusBadRequest)
		return
	}
	v, err := s.led.JudgeVote(r.Context(), id, a)
	if err != nil {
		s.fail(w, "judgeVote", err)
		return
	}
	writeJSON(w, dto.JudgeVoteResponse{BetID: id, Judge: string(a), VotedFor: string(v)})
}

func (s *Server) count(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	n, err := s.led.Count(r.Context())
	if err != nil {
		s.fail(w, "count", err)
		return
	}
	writeJSON(w, dto.CountResponse{Count: n})
}

func (s *Server) listByParticipant(w http.ResponseWriter, r *http.Request) {
	participant := r.URL.Query().Get("participant")
	if participant == "" {
		http.Error(w, "participant required", http.StatusBadRequest)
		return
	}
	a, err := engine.ParseAddress(participant)
	if err != nil {
		http.Error(w, "malformed participant address", http.StatusBadRequest)
		return
	}

	bets, err := s.led.ListByParticipant(r.Context(), a)
	if err != nil {
		s.fail(w, "list", err)
		return
	}
	out := dto.ListResponse{Participant: string(a), Bets: make([]dto.BetResponse, 0, len(bets))}
	for _, b := range bets {
		out.Bets = append(out.Bets, toBetResponse(b))
	}
	writeJSON(w, out)
}

// fail maps the engine taxonomy onto HTTP statuses and counts the outcome.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrInvalidState),
		errors.Is(err, engine.ErrDuplicateVote),
		errors.Is(err, engine.ErrStakeMismatch):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrEscrowFailed),
		errors.Is(err, engine.ErrReleaseFailed),
		errors.Is(err, engine.ErrRefundFailed):
		status = http.StatusBadGateway
	}

	if status == http.StatusBadGateway {
		s.log.Error("custody failure", zap.String("op", op), zap.Error(err))
	}
	opsTotal.WithLabelValues(op, "error").Inc()
	http.Error(w, err.Error(), status)
}

func toBetResponse(b *engine.Bet) dto.BetResponse {
	judges := make([]string, len(b.Judges))
	for i, j := range b.Judges {
		judges[i] = string(j)
	}
	return dto.BetResponse{
		BetID:         b.ID,
		Creator:       string(b.Creator),
		Opponent:      string(b.Opponent),
		Judges:        judges,
		RequiredVotes: b.RequiredVotes,
		AmountWei:     b.AmountWei,
		Terms:         b.Terms,
		Status:        string(b.Status),
		Winner:        string(b.Winner),
		CreatorVotes:  b.CreatorVotes,
		OpponentVotes: b.OpponentVotes,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
