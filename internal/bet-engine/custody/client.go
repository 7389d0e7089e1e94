package custody

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	cdto "github.com/radieske/verdict-engine/internal/bet-engine/custody/dto"
	"github.com/radieske/verdict-engine/internal/engine"
)

// Client talks to wallet-service, the funds custody collaborator. It
// implements engine.Custody.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *Client) Escrow(ctx context.Context, payer engine.Address, amountWei int64, ref string) (string, error) {
	body, _ := json.Marshal(cdto.EscrowRequest{UserID: string(payer), AmountWei: amountWei, ExternalRef: ref})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/wallet/escrow", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return "", fmt.Errorf("wallet escrow http %d", res.StatusCode)
	}
	var out cdto.EscrowResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.ReceiptID, nil
}

func (c *Client) Release(ctx context.Context, receipts []string, payee engine.Address) error {
	body, _ := json.Marshal(cdto.ReleaseRequest{Receipts: receipts, PayeeID: string(payee)})
	return c.post(ctx, "/wallet/release", body)
}

func (c *Client) Refund(ctx context.Context, receipt string) error {
	body, _ := json.Marshal(cdto.RefundRequest{ReceiptID: receipt})
	return c.post(ctx, "/wallet/refund", body)
}

func (c *Client) post(ctx context.Context, path string, body []byte) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("wallet %s http %d", path, res.StatusCode)
	}
	return nil
}
