package paymentgateway

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/minutemart/storefront-service/config"
	"github.com/minutemart/storefront-service/internal/domain"
	"github.com/minutemart/storefront-service/internal/dto"
	circuitbreaker "github.com/minutemart/storefront-service/internal/infrastructure/circuit-breaker"
	"github.com/minutemart/storefront-service/pkg/errs"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

const sessionExpiryWindow = time.Hour

type SessionItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	Currency  string `json:"currency"`
}

// HostedSessionIntent is everything the gateway needs to host a checkout
// page for an order. The order data rides along as session metadata so the
// asynchronous completion callback can be tied back to the order.
type HostedSessionIntent struct {
	OrderNumber     string
	MerchantID      int64
	CustomerName    string
	CustomerEmail   string
	ContactNumber   string
	DeliveryAddress string
	Currency        string
	TotalAmount     string
	Items           []SessionItem
}

type HostedSession struct {
	SessionID   string
	RedirectURL string
	ExpiresAt   int64
}

type MidtransGateway struct {
	snapClient snap.Client
	serverKey  string
	cb         *gobreaker.CircuitBreaker[*snap.Response]
}

func CreateMidtransGateway(config *config.Config) *MidtransGateway {
	client := snap.Client{}
	client.New(config.MidtransConfig.ServerKey, midtrans.Sandbox)

	return &MidtransGateway{
		snapClient: client,
		serverKey:  config.MidtransConfig.ServerKey,
		cb:         circuitbreaker.CreateCircuitBreaker[*snap.Response]("payment-gateway"),
	}
}

// CreateHostedSession opens a hosted checkout session at the gateway. The
// order number doubles as the gateway correlation id.
func (g *MidtransGateway) CreateHostedSession(intent HostedSessionIntent) (HostedSession, error) {
	total, err := decimal.NewFromString(intent.TotalAmount)
	if err != nil {
		log.Error().Err(err).Str("component", "CreateHostedSession").Msg("")
		return HostedSession{}, errs.ErrPaymentInitFailed
	}

	chargeItems := make([]midtrans.ItemDetails, len(intent.Items))
	for i, item := range intent.Items {
		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			log.Error().Err(err).Str("component", "CreateHostedSession").Msg("")
			return HostedSession{}, errs.ErrPaymentInitFailed
		}
		chargeItems[i] = midtrans.ItemDetails{
			ID:    strconv.FormatInt(item.ProductID, 10),
			Name:  item.Name,
			Price: unitPrice.Round(0).IntPart(),
			Qty:   int32(item.Quantity),
		}
	}

	itemsJSON, err := json.Marshal(intent.Items)
	if err != nil {
		return HostedSession{}, errs.ErrPaymentInitFailed
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  intent.OrderNumber,
			GrossAmt: total.Round(0).IntPart(),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: intent.CustomerName,
			Email: intent.CustomerEmail,
			Phone: intent.ContactNumber,
		},
		Items: &chargeItems,
		Expiry: &snap.ExpiryDetails{
			Unit:     "minute",
			Duration: int64(sessionExpiryWindow / time.Minute),
		},
		Metadata: map[string]interface{}{
			"merchant_id":      intent.MerchantID,
			"customer_name":    intent.CustomerName,
			"customer_email":   intent.CustomerEmail,
			"contact_number":   intent.ContactNumber,
			"delivery_address": intent.DeliveryAddress,
			"items":            string(itemsJSON),
			"total_amount":     intent.TotalAmount,
			"currency":         intent.Currency,
		},
	}

	resp, err := g.cb.Execute(func() (*snap.Response, error) {
		resp, snapErr := g.snapClient.CreateTransaction(req)
		if snapErr != nil {
			return nil, snapErr
		}
		return resp, nil
	})
	if err != nil {
		log.Error().Err(err).Str("component", "CreateHostedSession").Msg("")
		return HostedSession{}, errs.ErrPaymentInitFailed
	}

	return HostedSession{
		SessionID:   resp.Token,
		RedirectURL: resp.RedirectURL,
		ExpiresAt:   time.Now().Add(sessionExpiryWindow).Unix(),
	}, nil
}

// VerifyNotification checks the gateway signature before any of the
// payload is trusted.
func (g *MidtransGateway) VerifyNotification(req dto.PaymentNotification) error {
	payload := req.OrderID + req.StatusCode + req.GrossAmount + g.serverKey
	sum := sha512.Sum512([]byte(payload))
	expected := hex.EncodeToString(sum[:])

	if req.SignatureKey != expected {
		return errs.ErrInvalidSignature
	}

	return nil
}

// DecodeNotification turns a verified raw notification into the typed
// event the order engine consumes.
func (g *MidtransGateway) DecodeNotification(req dto.PaymentNotification) domain.PaymentEvent {
	event := domain.PaymentEvent{
		OrderNumber: req.OrderID,
		PaymentRef:  req.TransactionID,
		GrossAmount: req.GrossAmount,
	}

	if req.TransactionType == "subscription" {
		event.Kind = domain.PaymentEventSubscriptionChanged
		return event
	}

	switch req.TransactionStatus {
	case "capture":
		if req.FraudStatus == "deny" {
			event.Kind = domain.PaymentEventPaymentFailed
			return event
		}
		event.Kind = domain.PaymentEventSessionCompleted
		event.Captured = req.FraudStatus != "challenge"
	case "settlement":
		event.Kind = domain.PaymentEventAsyncPaymentSucceeded
		event.Captured = true
	case "pending":
		event.Kind = domain.PaymentEventSessionCompleted
	case "deny", "cancel", "expire":
		event.Kind = domain.PaymentEventPaymentFailed
	default:
		event.Kind = domain.PaymentEventUnhandled
	}

	return event
}
