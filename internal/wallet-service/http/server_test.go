package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/verdict-engine/internal/wallet-service/dto"
	"github.com/radieske/verdict-engine/internal/wallet-service/repo"
)

// fakeRepo keeps balances and holds in maps, enough to drive the handlers.
type fakeRepo struct {
	balances map[string]int64
	holds    map[string]fakeHold
	seq      int
}

type fakeHold struct {
	userID string
	amount int64
	status string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{balances: map[string]int64{}, holds: map[string]fakeHold{}}
}

func (f *fakeRepo) GetOrCreateWallet(_ context.Context, userID string) (string, int64, error) {
	return "wallet-" + userID, f.balances[userID], nil
}

func (f *fakeRepo) Deposit(_ context.Context, userID string, amount int64, _ string) (string, int64, error) {
	f.balances[userID] += amount
	return "wallet-" + userID, f.balances[userID], nil
}

func (f *fakeRepo) Escrow(_ context.Context, userID string, amount int64, _ string) (string, error) {
	if f.balances[userID] < amount {
		return "", repo.ErrInsufficientFunds
	}
	f.balances[userID] -= amount
	f.seq++
	id := fmt.Sprintf("hold-%d", f.seq)
	f.holds[id] = fakeHold{userID: userID, amount: amount, status: "HELD"}
	return id, nil
}

func (f *fakeRepo) Release(_ context.Context, receiptIDs []string, payee string) error {
	var total int64
	for _, rid := range receiptIDs {
		h, ok := f.holds[rid]
		if !ok {
			return repo.ErrNotFound
		}
		if h.status == "REFUNDED" {
			return repo.ErrHoldSettled
		}
		if h.status == "RELEASED" {
			continue
		}
		h.status = "RELEASED"
		f.holds[rid] = h
		total += h.amount
	}
	f.balances[payee] += total
	return nil
}

func (f *fakeRepo) Refund(_ context.Context, receiptID string) error {
	h, ok := f.holds[receiptID]
	if !ok {
		return repo.ErrNotFound
	}
	if h.status == "RELEASED" {
		return repo.ErrHoldSettled
	}
	if h.status == "HELD" {
		h.status = "REFUNDED"
		f.holds[receiptID] = h
		f.balances[h.userID] += h.amount
	}
	return nil
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEscrowReleaseFlow(t *testing.T) {
	f := newFakeRepo()
	h := NewServer(zap.NewNop(), f).Router()

	rec := post(t, h, "/wallet/deposit", dto.DepositRequest{UserID: "alice", AmountWei: 500})
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit: expected 200, got %d", rec.Code)
	}

	rec = post(t, h, "/wallet/escrow", dto.EscrowRequest{UserID: "alice", AmountWei: 300, ExternalRef: "bet:1:creator"})
	if rec.Code != http.StatusOK {
		t.Fatalf("escrow: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var esc dto.EscrowResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &esc)
	if esc.ReceiptID == "" || esc.Status != "HELD" {
		t.Fatalf("unexpected escrow response %+v", esc)
	}
	if f.balances["alice"] != 200 {
		t.Fatalf("expected debited balance 200, got %d", f.balances["alice"])
	}

	rec = post(t, h, "/wallet/release", dto.ReleaseRequest{Receipts: []string{esc.ReceiptID}, PayeeID: "bob"})
	if rec.Code != http.StatusOK {
		t.Fatalf("release: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if f.balances["bob"] != 300 {
		t.Fatalf("expected payee balance 300, got %d", f.balances["bob"])
	}

	// Refunding a released hold is a conflict.
	rec = post(t, h, "/wallet/refund", dto.RefundRequest{ReceiptID: esc.ReceiptID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("refund after release: expected 409, got %d", rec.Code)
	}
}

func TestEscrowInsufficientFunds(t *testing.T) {
	f := newFakeRepo()
	h := NewServer(zap.NewNop(), f).Router()

	rec := post(t, h, "/wallet/escrow", dto.EscrowRequest{UserID: "poor", AmountWei: 10, ExternalRef: "bet:2:creator"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestValidationErrors(t *testing.T) {
	f := newFakeRepo()
	h := NewServer(zap.NewNop(), f).Router()

	tests := []struct {
		name string
		path string
		body any
	}{
		{"escrow without ref", "/wallet/escrow", dto.EscrowRequest{UserID: "a", AmountWei: 1}},
		{"escrow zero amount", "/wallet/escrow", dto.EscrowRequest{UserID: "a", ExternalRef: "r"}},
		{"deposit zero amount", "/wallet/deposit", dto.DepositRequest{UserID: "a"}},
		{"release without receipts", "/wallet/release", dto.ReleaseRequest{PayeeID: "b"}},
		{"refund without receipt", "/wallet/refund", dto.RefundRequest{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := post(t, h, tt.path, tt.body); rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestRefundUnknownReceipt(t *testing.T) {
	f := newFakeRepo()
	h := NewServer(zap.NewNop(), f).Router()

	rec := post(t, h, "/wallet/refund", dto.RefundRequest{ReceiptID: "nope"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
