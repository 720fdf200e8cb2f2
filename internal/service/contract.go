package service

import (
	"context"

	"github.com/minutemart/storefront-service/internal/domain"
	"github.com/minutemart/storefront-service/internal/dto"
	paymentgateway "github.com/minutemart/storefront-service/internal/infrastructure/payment-gateway"
	pkgdto "github.com/minutemart/storefront-service/pkg/dto"
	"github.com/segmentio/kafka-go"
)

type OrderService interface {
	Checkout(ctx context.Context, host, idempotencyKey string, req dto.CheckoutRequest) (resp dto.CheckoutResponse, err error)
	HandlePaymentNotification(ctx context.Context, req dto.PaymentNotification) (err error)
	SubmitProofOfPayment(ctx context.Context, orderID int64, imageURL string) (resp dto.OrderResponse, err error)
	GetOrder(ctx context.Context, orderID int64) (resp dto.OrderResponse, err error)
	GetOrders(ctx context.Context, host string, filter pkgdto.Filter) (response pkgdto.Pagination, err error)
	CompleteOrder(ctx context.Context, orderID int64) (err error)
	CancelOrder(ctx context.Context, orderID int64) (err error)
	ResolveStore(ctx context.Context, host string) (resp *dto.StoreResponse, err error)
	GetPaymentSettings(ctx context.Context, host string) (resp dto.PaymentSettingsResponse, err error)
	CancelExpiredOrders()
}

// PaymentGateway is the hosted-checkout provider boundary. Notifications
// must be verified before they are decoded or acted upon.
type PaymentGateway interface {
	CreateHostedSession(intent paymentgateway.HostedSessionIntent) (paymentgateway.HostedSession, error)
	VerifyNotification(req dto.PaymentNotification) error
	DecodeNotification(req dto.PaymentNotification) domain.PaymentEvent
}

// Notifier fires best-effort customer/merchant notifications. Calls must
// not block and must never report failure to the caller.
type Notifier interface {
	NotifyCustomer(order domain.Order, storeName string)
	NotifyMerchant(order domain.Order, storeName, merchantEmail string)
}

// EventWriter is the subset of the broker connection the service needs.
type EventWriter interface {
	WriteMessages(msgs ...kafka.Message) (int, error)
}
