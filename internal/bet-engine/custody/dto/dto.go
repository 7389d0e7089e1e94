package dto

type EscrowRequest struct {
	UserID      string `json:"userId"`
	AmountWei   int64  `json:"amount_wei"`
	ExternalRef string `json:"externalRef"`
}

type EscrowResponse struct {
	ReceiptID string `json:"receiptId"`
	Status    string `json:"status"` // HELD
}

type ReleaseRequest struct {
	Receipts []string `json:"receipts"`
	PayeeID  string   `json:"payeeId"`
}

type RefundRequest struct {
	ReceiptID string `json:"receiptId"`
}
