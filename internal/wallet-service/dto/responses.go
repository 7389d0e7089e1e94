package dto

type WalletResponse struct {
	UserID     string `json:"userId"`
	WalletID   string `json:"walletId"`
	BalanceWei int64  `json:"balance_wei"`
}

type EscrowResponse struct {
	ReceiptID string `json:"receiptId"`
	Status    string `json:"status"` // HELD
}
