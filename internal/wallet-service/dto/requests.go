package dto

type DepositRequest struct {
	UserID      string `json:"userId"`
	AmountWei   int64  `json:"amount_wei"`
	ExternalRef string `json:"externalRef,omitempty"` // optional, simple idempotency
}

type EscrowRequest struct {
	UserID      string `json:"userId"`
	AmountWei   int64  `json:"amount_wei"`
	ExternalRef string `json:"externalRef"` // e.g. "bet:42:creator"
}

type ReleaseRequest struct {
	Receipts []string `json:"receipts"`
	PayeeID  string   `json:"payeeId"`
}

type RefundRequest struct {
	ReceiptID string `json:"receiptId"`
}
