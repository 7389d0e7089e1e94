package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/verdict-engine/internal/wallet-service/dto"
	"github.com/radieske/verdict-engine/internal/wallet-service/repo"
)

// Repo is the custody surface the HTTP handlers need.
type Repo interface {
	GetOrCreateWallet(ctx context.Context, userID string) (walletID string, balance int64, err error)
	Deposit(ctx context.Context, userID string, amount int64, externalRef string) (walletID string, newBalance int64, err error)
	Escrow(ctx context.Context, userID string, amount int64, externalRef string) (receiptID string, err error)
	Release(ctx context.Context, receiptIDs []string, payeeUserID string) error
	Refund(ctx context.Context, receiptID string) error
}

// Server exposes the funds custody API consumed by bet-engine.
type Server struct {
	log  *zap.Logger
	repo Repo
}

func NewServer(log *zap.Logger, repo Repo) *Server { return &Server{log: log, repo: repo} }

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/wallet", s.getWallet)       // GET ?userId=...
	mux.HandleFunc("/wallet/deposit", s.deposit) // POST
	mux.HandleFunc("/wallet/escrow", s.escrow)   // POST
	mux.HandleFunc("/wallet/release", s.release) // POST
	mux.HandleFunc("/wallet/refund", s.refund)   // POST
	return mux
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	walletID, bal, err := s.repo.GetOrCreateWallet(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.WalletResponse{UserID: userID, WalletID: walletID, BalanceWei: bal})
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.AmountWei <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	walletID, bal, err := s.repo.Deposit(r.Context(), req.UserID, req.AmountWei, req.ExternalRef)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.WalletResponse{UserID: req.UserID, WalletID: walletID, BalanceWei: bal})
}

// escrow debits the payer and holds the stake until release or refund
func (s *Server) escrow(w http.ResponseWriter, r *http.Request) {
	var req dto.EscrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.AmountWei <= 0 || req.ExternalRef == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	receiptID, err := s.repo.Escrow(r.Context(), req.UserID, req.AmountWei, req.ExternalRef)
	if err != nil {
		s.failCustody(w, err)
		return
	}
	writeJSON(w, dto.EscrowResponse{ReceiptID: receiptID, Status: "HELD"})
}

// release settles a receipt set and pays the sum to one payee, atomically
func (s *Server) release(w http.ResponseWriter, r *http.Request) {
	var req dto.ReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if len(req.Receipts) == 0 || req.PayeeID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := s.repo.Release(r.Context(), req.Receipts, req.PayeeID); err != nil {
		s.failCustody(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"RELEASED"}`))
}

// refund returns a held stake to its payer
func (s *Server) refund(w http.ResponseWriter, r *http.Request) {
	var req dto.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.ReceiptID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := s.repo.Refund(r.Context(), req.ReceiptID); err != nil {
		s.failCustody(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"REFUNDED"}`))
}

func (s *Server) failCustody(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, repo.ErrInsufficientFunds), errors.Is(err, repo.ErrHoldSettled):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		s.log.Error("custody operation failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
