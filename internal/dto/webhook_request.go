package dto

// PaymentNotification is the raw gateway webhook payload. It is untrusted
// until the signature key has been verified.
type PaymentNotification struct {
	TransactionType   string `json:"transaction_type"`
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	StatusMessage     string `json:"status_message"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	SettlementTime    string `json:"settlement_time"`
	PaymentType       string `json:"payment_type"`
	OrderID           string `json:"order_id"`
	FraudStatus       string `json:"fraud_status"`
	Currency          string `json:"currency"`
	GrossAmount       string `json:"gross_amount"`
}
