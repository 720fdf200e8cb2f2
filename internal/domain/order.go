package domain

// OrderStatus is the closed set of order states. Transitions outside the
// table below are rejected by the service layer.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusCompleted},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether s -> to is an allowed order transition.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodHostedCard PaymentMethod = "hosted_card"
	PaymentMethodManualQR   PaymentMethod = "manual_qr"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodHostedCard || m == PaymentMethodManualQR
}

type Order struct {
	ID                     int64         `db:"id"`
	OrderNumber            string        `db:"order_number"`
	MerchantID             int64         `db:"merchant_id"`
	CustomerName           string        `db:"customer_name"`
	CustomerEmail          string        `db:"customer_email"`
	ContactNumber          string        `db:"contact_number"`
	DeliveryAddress        string        `db:"delivery_address"`
	TotalAmount            string        `db:"total_amount"`
	Currency               string        `db:"currency"`
	Status                 OrderStatus   `db:"status"`
	PaymentMethod          PaymentMethod `db:"payment_method"`
	GatewaySessionID       *string       `db:"gateway_session_id"`
	GatewayPaymentRef      *string       `db:"gateway_payment_ref"`
	ProofOfPaymentImageURL *string       `db:"proof_of_payment_image_url"`
	IdempotencyKey         *string       `db:"idempotency_key"`
	ExpiredAt              *int64        `db:"expired_at"`
	PaidAt                 *int64        `db:"paid_at"`
	CreatedAt              int64         `db:"created_at"`
	UpdatedAt              int64         `db:"updated_at"`
	Items                  []OrderItem
}

// OrderItem is an immutable snapshot of the product at order-creation time.
type OrderItem struct {
	ID          int64  `db:"id"`
	OrderID     int64  `db:"order_id"`
	ProductID   int64  `db:"product_id"`
	ProductName string `db:"product_name"`
	Quantity    int64  `db:"quantity"`
	UnitPrice   string `db:"unit_price"`
	Currency    string `db:"currency"`
	CreatedAt   int64  `db:"created_at"`
}
