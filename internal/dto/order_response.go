package dto

import "github.com/minutemart/storefront-service/internal/domain"

type CheckoutResponse struct {
	OrderID       int64                  `json:"order_id"`
	OrderNumber   string                 `json:"order_number"`
	Status        string                 `json:"status"`
	PaymentMethod string                 `json:"payment_method"`
	TotalAmount   string                 `json:"total_amount"`
	Currency      string                 `json:"currency"`
	RedirectURL   *string                `json:"redirect_url,omitempty"`
	QRPayment     *domain.QRInstructions `json:"qr_payment,omitempty"`
}

type OrderItemResponse struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Currency    string `json:"currency"`
}

type OrderResponse struct {
	ID              int64               `json:"id"`
	OrderNumber     string              `json:"order_number"`
	StoreName       string              `json:"store_name"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email"`
	ContactNumber   string              `json:"contact_number"`
	DeliveryAddress string              `json:"delivery_address"`
	TotalAmount     string              `json:"total_amount"`
	Currency        string              `json:"currency"`
	DisplayAmount   *DisplayAmount      `json:"display_amount,omitempty"`
	Status          string              `json:"status"`
	PaymentMethod   string              `json:"payment_method"`
	OrderDate       string              `json:"order_date"`
	Items           []OrderItemResponse `json:"items"`
}

// DisplayAmount is an approximate conversion for shopfront display only.
type DisplayAmount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type OrderListItemResponse struct {
	ID            int64  `json:"id"`
	OrderNumber   string `json:"order_number"`
	CustomerName  string `json:"customer_name"`
	TotalAmount   string `json:"total_amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
	CreatedAt     int64  `json:"created_at"`
}
