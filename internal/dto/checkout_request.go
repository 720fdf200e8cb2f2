package dto

type CheckoutItem struct {
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Price     string `json:"price"`
	Currency  string `json:"currency"`
}

// CheckoutRequest is the cart snapshot submitted by the shopfront. Prices
// and the total are client-claimed display figures; the service recomputes
// both from the catalog before anything is charged.
type CheckoutRequest struct {
	MerchantID      int64          `json:"merchant_id"`
	CustomerName    string         `json:"customer_name"`
	CustomerEmail   string         `json:"customer_email"`
	ContactNumber   string         `json:"contact_number"`
	DeliveryAddress string         `json:"delivery_address"`
	Currency        string         `json:"currency"`
	TotalAmount     string         `json:"total_amount"`
	PaymentMethod   string         `json:"payment_method"`
	Items           []CheckoutItem `json:"items"`
}

type ProofOfPaymentRequest struct {
	ProofOfPaymentImageURL string `json:"proof_of_payment_image_url"`
}
