package service

import (
	"context"
	"testing"
	"time"

	"github.com/minutemart/storefront-service/config"
	"github.com/minutemart/storefront-service/internal/domain"
	"github.com/minutemart/storefront-service/internal/dto"
	paymentgateway "github.com/minutemart/storefront-service/internal/infrastructure/payment-gateway"
	"github.com/minutemart/storefront-service/internal/pricing"
	"github.com/minutemart/storefront-service/internal/repository"
	"github.com/minutemart/storefront-service/internal/tenant"
	pkgdto "github.com/minutemart/storefront-service/pkg/dto"
	"github.com/minutemart/storefront-service/pkg/errs"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBaseDomain = "minutemart.com"
	acmeHost       = "acme.minutemart.com"
	validSignature = "sig-ok"
)

type fakeRepo struct {
	merchants   map[int64]domain.Merchant
	ownerEmails map[int64]string
	products    map[int64]domain.Product
	orders      map[int64]domain.Order
	items       map[int64][]domain.OrderItem
	nextOrderID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		merchants:   make(map[int64]domain.Merchant),
		ownerEmails: make(map[int64]string),
		products:    make(map[int64]domain.Product),
		orders:      make(map[int64]domain.Order),
		items:       make(map[int64][]domain.OrderItem),
	}
}

func (r *fakeRepo) HandleTrx(ctx context.Context, fn func(ctx context.Context, repo repository.OrderRepository) error) error {
	return fn(ctx, r)
}

func (r *fakeRepo) AddOrder(ctx context.Context, data domain.Order) (int64, error) {
	r.nextOrderID++
	data.ID = r.nextOrderID
	r.orders[data.ID] = data
	return data.ID, nil
}

func (r *fakeRepo) AddOrderItems(ctx context.Context, data []domain.OrderItem) error {
	for _, item := range data {
		r.items[item.OrderID] = append(r.items[item.OrderID], item)
	}
	return nil
}

func (r *fakeRepo) GetOrderByID(ctx context.Context, id int64) (domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return domain.Order{}, errs.ErrNotFound
	}
	return order, nil
}

func (r *fakeRepo) GetOrderByOrderNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return domain.Order{}, errs.ErrNotFound
}

func (r *fakeRepo) GetOrderByIdempotencyKey(ctx context.Context, merchantID int64, key string) (domain.Order, error) {
	for _, order := range r.orders {
		if order.MerchantID == merchantID && order.IdempotencyKey != nil && *order.IdempotencyKey == key {
			return order, nil
		}
	}
	return domain.Order{}, errs.ErrNotFound
}

func (r *fakeRepo) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	return r.items[orderID], nil
}

func (r *fakeRepo) GetOrders(ctx context.Context, merchantID int64, filter pkgdto.Filter) ([]domain.Order, error) {
	var result []domain.Order
	for _, order := range r.orders {
		if order.MerchantID != merchantID {
			continue
		}
		if filter.Status != "" && string(order.Status) != filter.Status {
			continue
		}
		result = append(result, order)
	}

	if filter.Limit != 0 && filter.Page != 0 {
		offset := (filter.Page - 1) * filter.Limit
		if offset >= len(result) {
			return nil, nil
		}
		end := offset + filter.Limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}

	return result, nil
}

func (r *fakeRepo) CountOrders(ctx context.Context, merchantID int64, filter pkgdto.Filter) (uint64, error) {
	var count uint64
	for _, order := range r.orders {
		if order.MerchantID != merchantID {
			continue
		}
		if filter.Status != "" && string(order.Status) != filter.Status {
			continue
		}
		count++
	}
	return count, nil
}

func (r *fakeRepo) GetExpiredPendingOrders(ctx context.Context, now int64) ([]domain.Order, error) {
	var result []domain.Order
	for _, order := range r.orders {
		if order.Status == domain.OrderStatusPending && order.ExpiredAt != nil && *order.ExpiredAt < now {
			result = append(result, order)
		}
	}
	return result, nil
}

func (r *fakeRepo) TransitionOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus, update repository.OrderStatusUpdate) (bool, error) {
	order, ok := r.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}

	order.Status = to
	if update.GatewayPaymentRef != nil {
		order.GatewayPaymentRef = update.GatewayPaymentRef
	}
	if update.ProofOfPaymentImageURL != nil {
		order.ProofOfPaymentImageURL = update.ProofOfPaymentImageURL
	}
	if update.PaidAt != nil {
		order.PaidAt = update.PaidAt
	}
	order.UpdatedAt = time.Now().Unix()
	r.orders[id] = order

	return true, nil
}

func (r *fakeRepo) GetMerchantByID(ctx context.Context, id int64) (domain.Merchant, error) {
	merchant, ok := r.merchants[id]
	if !ok {
		return domain.Merchant{}, errs.ErrNotFound
	}
	return merchant, nil
}

func (r *fakeRepo) GetMerchantByName(ctx context.Context, name string) (domain.Merchant, error) {
	for _, merchant := range r.merchants {
		if merchant.Name == name {
			return merchant, nil
		}
	}
	return domain.Merchant{}, errs.ErrNotFound
}

func (r *fakeRepo) GetMerchantOwnerEmail(ctx context.Context, merchantID int64) (string, error) {
	email, ok := r.ownerEmails[merchantID]
	if !ok {
		return "", errs.ErrNotFound
	}
	return email, nil
}

func (r *fakeRepo) GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	var result []domain.Product
	for _, id := range ids {
		if product, ok := r.products[id]; ok {
			result = append(result, product)
		}
	}
	return result, nil
}

type fakeGateway struct {
	sessionsCreated int
	failCreate      bool
	lastIntent      paymentgateway.HostedSessionIntent
}

func (g *fakeGateway) CreateHostedSession(intent paymentgateway.HostedSessionIntent) (paymentgateway.HostedSession, error) {
	if g.failCreate {
		return paymentgateway.HostedSession{}, errs.ErrPaymentInitFailed
	}
	g.sessionsCreated++
	g.lastIntent = intent
	return paymentgateway.HostedSession{
		SessionID:   "sess-1",
		RedirectURL: "https://gateway.example.com/pay/sess-1",
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}, nil
}

func (g *fakeGateway) VerifyNotification(req dto.PaymentNotification) error {
	if req.SignatureKey != validSignature {
		return errs.ErrInvalidSignature
	}
	return nil
}

func (g *fakeGateway) DecodeNotification(req dto.PaymentNotification) domain.PaymentEvent {
	event := domain.PaymentEvent{
		OrderNumber: req.OrderID,
		PaymentRef:  req.TransactionID,
		GrossAmount: req.GrossAmount,
	}

	switch req.TransactionStatus {
	case "settlement":
		event.Kind = domain.PaymentEventAsyncPaymentSucceeded
		event.Captured = true
	case "capture":
		event.Kind = domain.PaymentEventSessionCompleted
		event.Captured = req.FraudStatus != "challenge"
	case "pending":
		event.Kind = domain.PaymentEventSessionCompleted
	case "deny", "cancel", "expire":
		event.Kind = domain.PaymentEventPaymentFailed
	default:
		event.Kind = domain.PaymentEventUnhandled
	}

	return event
}

type fakeNotifier struct {
	customerNotices []domain.Order
	merchantNotices []string
}

func (n *fakeNotifier) NotifyCustomer(order domain.Order, storeName string) {
	n.customerNotices = append(n.customerNotices, order)
}

func (n *fakeNotifier) NotifyMerchant(order domain.Order, storeName, merchantEmail string) {
	n.merchantNotices = append(n.merchantNotices, merchantEmail)
}

type fakeEventWriter struct {
	messages []kafka.Message
}

func (w *fakeEventWriter) WriteMessages(msgs ...kafka.Message) (int, error) {
	w.messages = append(w.messages, msgs...)
	return len(msgs), nil
}

type fixture struct {
	svc      OrderService
	repo     *fakeRepo
	gateway  *fakeGateway
	notifier *fakeNotifier
	events   *fakeEventWriter
}

func qrMerchant() domain.Merchant {
	imageURL := "https://cdn.example.com/acme-qr.png"
	paymentName := "Acme Trading Co"
	paymentDetails := "Transfer to account 12345"
	return domain.Merchant{
		ID:                1,
		Name:              "acme",
		HostedCardEnabled: true,
		ManualQREnabled:   true,
		QRImageURL:        &imageURL,
		QRPaymentName:     &paymentName,
		QRPaymentDetails:  &paymentDetails,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newFakeRepo()

	repo.merchants[1] = qrMerchant()
	repo.ownerEmails[1] = "owner@acme.example.com"

	repo.merchants[2] = domain.Merchant{ID: 2, Name: "beta", HostedCardEnabled: true}
	repo.ownerEmails[2] = "owner@beta.example.com"

	stock := int64(10)
	repo.products[101] = domain.Product{ID: 101, MerchantID: 1, Name: "Espresso Beans", Price: "10.00", Currency: "USD", Active: true}
	repo.products[102] = domain.Product{ID: 102, MerchantID: 1, Name: "Filter Papers", Price: "5.00", Currency: "USD", Inventory: &stock, Active: true}
	repo.products[103] = domain.Product{ID: 103, MerchantID: 2, Name: "Beta Widget", Price: "7.00", Currency: "USD", Active: true}
	repo.products[104] = domain.Product{ID: 104, MerchantID: 1, Name: "Retired Grinder", Price: "99.00", Currency: "USD", Active: false}
	repo.products[105] = domain.Product{ID: 105, MerchantID: 1, Name: "Euro Mug", Price: "3.50", Currency: "EUR", Active: true}

	gateway := &fakeGateway{}
	notifier := &fakeNotifier{}
	events := &fakeEventWriter{}

	rates, err := pricing.ParseRates("USD:INR=80")
	require.NoError(t, err)

	conf := &config.Config{DisplayCurrency: "INR"}
	resolver := tenant.CreateResolver(repo, testBaseDomain)

	return &fixture{
		svc:      CreateOrderService(repo, gateway, notifier, events, resolver, rates, conf),
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		events:   events,
	}
}

func checkoutRequest(method string) dto.CheckoutRequest {
	return dto.CheckoutRequest{
		CustomerName:    "Jordan Lee",
		CustomerEmail:   "jordan@example.com",
		ContactNumber:   "+15550100",
		DeliveryAddress: "1 Main St, Springfield",
		PaymentMethod:   method,
		Items: []dto.CheckoutItem{
			{ProductID: 101, Quantity: 2},
			{ProductID: 102, Quantity: 1},
		},
	}
}

func paidNotification(orderNumber string) dto.PaymentNotification {
	return dto.PaymentNotification{
		OrderID:           orderNumber,
		TransactionID:     "trx-1",
		TransactionStatus: "settlement",
		GrossAmount:       "25.00",
		SignatureKey:      validSignature,
	}
}

func TestCheckoutManualQR(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("manual_qr"))
	require.NoError(t, err)

	assert.Equal(t, "25.00", resp.TotalAmount)
	assert.Equal(t, "USD", resp.Currency)
	assert.Equal(t, "pending", resp.Status)
	assert.Nil(t, resp.RedirectURL)
	require.NotNil(t, resp.QRPayment)
	assert.Equal(t, "Acme Trading Co", resp.QRPayment.PaymentName)
	assert.NotEmpty(t, resp.OrderNumber)

	order := f.repo.orders[resp.OrderID]
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentMethodManualQR, order.PaymentMethod)

	items := f.repo.items[resp.OrderID]
	require.Len(t, items, 2)
	assert.Equal(t, "Espresso Beans", items[0].ProductName)
	assert.Equal(t, "10.00", items[0].UnitPrice)
	assert.Equal(t, int64(2), items[0].Quantity)

	assert.Zero(t, f.gateway.sessionsCreated)
	assert.Len(t, f.events.messages, 1)
	assert.Empty(t, f.notifier.customerNotices)
}

func TestCheckoutHostedCard(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("hosted_card"))
	require.NoError(t, err)

	require.NotNil(t, resp.RedirectURL)
	assert.Equal(t, "https://gateway.example.com/pay/sess-1", *resp.RedirectURL)
	assert.Nil(t, resp.QRPayment)
	assert.Equal(t, 1, f.gateway.sessionsCreated)
	assert.Equal(t, resp.OrderNumber, f.gateway.lastIntent.OrderNumber)
	assert.Equal(t, "25.00", f.gateway.lastIntent.TotalAmount)

	order := f.repo.orders[resp.OrderID]
	require.NotNil(t, order.GatewaySessionID)
	assert.Equal(t, "sess-1", *order.GatewaySessionID)
	require.NotNil(t, order.ExpiredAt)
}

func TestCheckoutGatewayFailureCreatesNoOrder(t *testing.T) {
	f := newFixture(t)
	f.gateway.failCreate = true

	_, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("hosted_card"))
	assert.ErrorIs(t, err, errs.ErrPaymentInitFailed)
	assert.Empty(t, f.repo.orders)
	assert.Empty(t, f.events.messages)
}

func TestCheckoutRecomputesClientTotal(t *testing.T) {
	f := newFixture(t)

	req := checkoutRequest("manual_qr")
	req.TotalAmount = "0.01"

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", req)
	require.NoError(t, err)
	assert.Equal(t, "25.00", resp.TotalAmount)
}

func TestCheckoutUnknownStore(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Checkout(context.Background(), "ghost.minutemart.com", "", checkoutRequest("manual_qr"))
	assert.ErrorIs(t, err, errs.ErrStoreNotFound)
}

func TestCheckoutApexHostHasNoStore(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Checkout(context.Background(), "www.minutemart.com", "", checkoutRequest("manual_qr"))
	assert.ErrorIs(t, err, errs.ErrStoreNotFound)
}

func TestCheckoutMerchantIDMustMatchTenant(t *testing.T) {
	f := newFixture(t)

	req := checkoutRequest("manual_qr")
	req.MerchantID = 2

	_, err := f.svc.Checkout(context.Background(), acmeHost, "", req)
	assert.ErrorIs(t, err, errs.ErrMerchantMismatch)
}

func TestCheckoutRejectsForeignProduct(t *testing.T) {
	f := newFixture(t)

	req := checkoutRequest("manual_qr")
	req.Items = append(req.Items, dto.CheckoutItem{ProductID: 103, Quantity: 1})

	_, err := f.svc.Checkout(context.Background(), acmeHost, "", req)
	assert.ErrorIs(t, err, errs.ErrMerchantMismatch)
	assert.Empty(t, f.repo.orders)
}

func TestCheckoutRejectsInactiveProduct(t *testing.T) {
	f := newFixture(t)

	req := checkoutRequest("manual_qr")
	req.Items = []dto.CheckoutItem{{ProductID: 104, Quantity: 1}}

	_, err := f.svc.Checkout(context.Background(), acmeHost, "", req)
	assert.ErrorIs(t, err, errs.ErrProductUnavailable)
}

func TestCheckoutRejectsUnknownProduct(t *testing.T) {
	f := newFixture(t)

	req := checkoutRequest("manual_qr")
	req.Items = []dto.CheckoutItem{{ProductID: 999, Quantity: 1}}

	_, err := f.svc.Checkout(context.Background(), acmeHost, "", req)
	assert.ErrorIs(t, err, errs.ErrProductUnavailable)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	f := newFixture(t)

	req := checkoutRequest("manual_qr")
	req.Items = []dto.CheckoutItem{{ProductID: 102, Quantity: 11}}

	_, err := f.svc.Checkout(context.Background(), acmeHost, "", req)
	assert.ErrorIs(t, err, errs.ErrInsufficientStock)
}

func TestCheckoutMixedCurrencies(t *testing.T) {
	f := newFixture(t)

	req := checkoutRequest("manual_qr")
	req.Items = []dto.CheckoutItem{
		{ProductID: 101, Quantity: 1},
		{ProductID: 105, Quantity: 1},
	}

	_, err := f.svc.Checkout(context.Background(), acmeHost, "", req)
	assert.ErrorIs(t, err, errs.ErrMixedCurrencies)
}

func TestCheckoutValidation(t *testing.T) {
	f := newFixture(t)

	testCases := []struct {
		name        string
		mutate      func(*dto.CheckoutRequest)
		expectedErr error
	}{
		{
			name:        "missing customer name",
			mutate:      func(r *dto.CheckoutRequest) { r.CustomerName = "  " },
			expectedErr: errs.ErrMissingCustomerField,
		},
		{
			name:        "missing delivery address",
			mutate:      func(r *dto.CheckoutRequest) { r.DeliveryAddress = "" },
			expectedErr: errs.ErrMissingCustomerField,
		},
		{
			name:        "malformed email",
			mutate:      func(r *dto.CheckoutRequest) { r.CustomerEmail = "not-an-email" },
			expectedErr: errs.ErrInvalidEmail,
		},
		{
			name:        "empty cart",
			mutate:      func(r *dto.CheckoutRequest) { r.Items = nil },
			expectedErr: errs.ErrEmptyOrder,
		},
		{
			name:        "zero quantity",
			mutate:      func(r *dto.CheckoutRequest) { r.Items[0].Quantity = 0 },
			expectedErr: errs.ErrInvalidQuantity,
		},
		{
			name:        "unknown payment method",
			mutate:      func(r *dto.CheckoutRequest) { r.PaymentMethod = "cash_on_delivery" },
			expectedErr: errs.ErrClient,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := checkoutRequest("manual_qr")
			tc.mutate(&req)

			_, err := f.svc.Checkout(context.Background(), acmeHost, "", req)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestCheckoutNoPaymentMethodsAvailable(t *testing.T) {
	f := newFixture(t)

	merchant := f.repo.merchants[1]
	merchant.HostedCardEnabled = false
	merchant.QRImageURL = nil // manual transfer stays enabled but degraded
	f.repo.merchants[1] = merchant

	_, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("manual_qr"))
	assert.ErrorIs(t, err, errs.ErrNoPaymentMethods)
}

func TestCheckoutDegradedQRDenied(t *testing.T) {
	f := newFixture(t)

	merchant := f.repo.merchants[1]
	merchant.QRPaymentDetails = nil
	f.repo.merchants[1] = merchant

	_, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("manual_qr"))
	assert.ErrorIs(t, err, errs.ErrPaymentMethodDenied)
}

func TestCheckoutIdempotencyKeyReturnsExistingOrder(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Checkout(context.Background(), acmeHost, "retry-abc", checkoutRequest("manual_qr"))
	require.NoError(t, err)

	second, err := f.svc.Checkout(context.Background(), acmeHost, "retry-abc", checkoutRequest("manual_qr"))
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, first.OrderNumber, second.OrderNumber)
	assert.Len(t, f.repo.orders, 1)
	assert.Len(t, f.events.messages, 1)
}

func TestWebhookSettlementMarksOrderPaid(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("hosted_card"))
	require.NoError(t, err)

	err = f.svc.HandlePaymentNotification(context.Background(), paidNotification(resp.OrderNumber))
	require.NoError(t, err)

	order := f.repo.orders[resp.OrderID]
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	require.NotNil(t, order.GatewayPaymentRef)
	assert.Equal(t, "trx-1", *order.GatewayPaymentRef)
	require.NotNil(t, order.PaidAt)

	assert.Len(t, f.notifier.customerNotices, 1)
	assert.Equal(t, []string{"owner@acme.example.com"}, f.notifier.merchantNotices)
	// order_created + order_paid
	assert.Len(t, f.events.messages, 2)
}

func TestWebhookDuplicateDeliveryIsIdempotent(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("hosted_card"))
	require.NoError(t, err)

	notification := paidNotification(resp.OrderNumber)
	require.NoError(t, f.svc.HandlePaymentNotification(context.Background(), notification))
	require.NoError(t, f.svc.HandlePaymentNotification(context.Background(), notification))

	assert.Equal(t, domain.OrderStatusPaid, f.repo.orders[resp.OrderID].Status)
	assert.Len(t, f.notifier.customerNotices, 1)
	assert.Len(t, f.notifier.merchantNotices, 1)
	assert.Len(t, f.events.messages, 2)
}

func TestWebhookInvalidSignatureChangesNothing(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("hosted_card"))
	require.NoError(t, err)

	notification := paidNotification(resp.OrderNumber)
	notification.SignatureKey = "forged"

	err = f.svc.HandlePaymentNotification(context.Background(), notification)
	assert.ErrorIs(t, err, errs.ErrInvalidSignature)

	assert.Equal(t, domain.OrderStatusPending, f.repo.orders[resp.OrderID].Status)
	assert.Empty(t, f.notifier.customerNotices)
}

func TestWebhookPendingSessionLeavesOrderPending(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("hosted_card"))
	require.NoError(t, err)

	notification := paidNotification(resp.OrderNumber)
	notification.TransactionStatus = "pending"

	require.NoError(t, f.svc.HandlePaymentNotification(context.Background(), notification))

	assert.Equal(t, domain.OrderStatusPending, f.repo.orders[resp.OrderID].Status)
	assert.Empty(t, f.notifier.customerNotices)
}

func TestWebhookFailedPaymentCancelsOrder(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("hosted_card"))
	require.NoError(t, err)

	notification := paidNotification(resp.OrderNumber)
	notification.TransactionStatus = "expire"

	require.NoError(t, f.svc.HandlePaymentNotification(context.Background(), notification))

	assert.Equal(t, domain.OrderStatusCancelled, f.repo.orders[resp.OrderID].Status)
	assert.Empty(t, f.notifier.customerNotices)
}

func TestWebhookUnknownOrderIsAcknowledged(t *testing.T) {
	f := newFixture(t)

	err := f.svc.HandlePaymentNotification(context.Background(), paidNotification("no-such-order"))
	assert.NoError(t, err)
}

func TestSubmitProofOfPayment(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("manual_qr"))
	require.NoError(t, err)

	orderResp, err := f.svc.SubmitProofOfPayment(context.Background(), resp.OrderID, "https://cdn.example.com/proof.jpg")
	require.NoError(t, err)

	assert.Equal(t, "paid", orderResp.Status)

	order := f.repo.orders[resp.OrderID]
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	require.NotNil(t, order.ProofOfPaymentImageURL)
	assert.Equal(t, "https://cdn.example.com/proof.jpg", *order.ProofOfPaymentImageURL)
	require.NotNil(t, order.PaidAt)

	assert.Len(t, f.notifier.customerNotices, 1)
	assert.Len(t, f.notifier.merchantNotices, 1)
}

func TestSubmitProofOfPaymentResubmissionIsNoOp(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("manual_qr"))
	require.NoError(t, err)

	_, err = f.svc.SubmitProofOfPayment(context.Background(), resp.OrderID, "https://cdn.example.com/proof.jpg")
	require.NoError(t, err)

	orderResp, err := f.svc.SubmitProofOfPayment(context.Background(), resp.OrderID, "https://cdn.example.com/other.jpg")
	require.NoError(t, err)
	assert.Equal(t, "paid", orderResp.Status)

	order := f.repo.orders[resp.OrderID]
	assert.Equal(t, "https://cdn.example.com/proof.jpg", *order.ProofOfPaymentImageURL)
	assert.Len(t, f.notifier.customerNotices, 1)
}

func TestSubmitProofOfPaymentRejectsHostedCardOrder(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("hosted_card"))
	require.NoError(t, err)

	_, err = f.svc.SubmitProofOfPayment(context.Background(), resp.OrderID, "https://cdn.example.com/proof.jpg")
	assert.ErrorIs(t, err, errs.ErrClient)
}

func TestSubmitProofOfPaymentRequiresImage(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SubmitProofOfPayment(context.Background(), 1, "  ")
	assert.ErrorIs(t, err, errs.ErrClient)
}

func TestSubmitProofOfPaymentUnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SubmitProofOfPayment(context.Background(), 404, "https://cdn.example.com/proof.jpg")
	assert.ErrorIs(t, err, errs.ErrOrderNotFound)
}

func TestManualTransitions(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("manual_qr"))
	require.NoError(t, err)

	// pending cannot complete directly
	err = f.svc.CompleteOrder(context.Background(), resp.OrderID)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	_, err = f.svc.SubmitProofOfPayment(context.Background(), resp.OrderID, "https://cdn.example.com/proof.jpg")
	require.NoError(t, err)

	require.NoError(t, f.svc.CompleteOrder(context.Background(), resp.OrderID))
	assert.Equal(t, domain.OrderStatusCompleted, f.repo.orders[resp.OrderID].Status)

	// completed is terminal
	err = f.svc.CancelOrder(context.Background(), resp.OrderID)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestCancelPendingOrder(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("manual_qr"))
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelOrder(context.Background(), resp.OrderID))
	assert.Equal(t, domain.OrderStatusCancelled, f.repo.orders[resp.OrderID].Status)
}

func TestGetOrderIncludesDisplayAmount(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("manual_qr"))
	require.NoError(t, err)

	orderResp, err := f.svc.GetOrder(context.Background(), resp.OrderID)
	require.NoError(t, err)

	assert.Equal(t, "acme", orderResp.StoreName)
	assert.Equal(t, "25.00", orderResp.TotalAmount)
	require.Len(t, orderResp.Items, 2)
	require.NotNil(t, orderResp.DisplayAmount)
	assert.Equal(t, "2000.00", orderResp.DisplayAmount.Amount)
	assert.Equal(t, "INR", orderResp.DisplayAmount.Currency)
}

func TestGetOrdersScopedToTenant(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("manual_qr"))
	require.NoError(t, err)

	betaReq := checkoutRequest("hosted_card")
	betaReq.Items = []dto.CheckoutItem{{ProductID: 103, Quantity: 1}}
	_, err = f.svc.Checkout(context.Background(), "beta.minutemart.com", "", betaReq)
	require.NoError(t, err)

	page, err := f.svc.GetOrders(context.Background(), acmeHost, pkgdto.Filter{})
	require.NoError(t, err)

	records, ok := page.Records.([]dto.OrderListItemResponse)
	require.True(t, ok)
	require.Len(t, records, 1)
	assert.Equal(t, "manual_qr", records[0].PaymentMethod)
	assert.Equal(t, uint64(1), page.Metadata.TotalCount)
}

func TestGetOrdersPaginationReportsFullCount(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("manual_qr"))
		require.NoError(t, err)
	}

	page, err := f.svc.GetOrders(context.Background(), acmeHost, pkgdto.Filter{Limit: 2, Page: 1})
	require.NoError(t, err)

	records, ok := page.Records.([]dto.OrderListItemResponse)
	require.True(t, ok)
	assert.Len(t, records, 2)
	assert.Equal(t, uint64(3), page.Metadata.TotalCount)
	assert.Equal(t, 2, page.Metadata.Limit)
	assert.Equal(t, 1, page.Metadata.Page)
}

func TestGetOrdersStatusFilter(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("manual_qr"))
	require.NoError(t, err)
	_, err = f.svc.SubmitProofOfPayment(context.Background(), resp.OrderID, "https://cdn.example.com/proof.jpg")
	require.NoError(t, err)

	page, err := f.svc.GetOrders(context.Background(), acmeHost, pkgdto.Filter{Status: "pending"})
	require.NoError(t, err)
	records := page.Records.([]dto.OrderListItemResponse)
	assert.Empty(t, records)

	page, err = f.svc.GetOrders(context.Background(), acmeHost, pkgdto.Filter{Status: "paid"})
	require.NoError(t, err)
	records = page.Records.([]dto.OrderListItemResponse)
	assert.Len(t, records, 1)
}

func TestResolveStore(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.ResolveStore(context.Background(), acmeHost)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, int64(1), resp.MerchantID)
	assert.Equal(t, "acme", resp.Name)

	resp, err = f.svc.ResolveStore(context.Background(), "minutemart.com")
	require.NoError(t, err)
	assert.Nil(t, resp)

	_, err = f.svc.ResolveStore(context.Background(), "ghost.minutemart.com")
	assert.ErrorIs(t, err, errs.ErrStoreNotFound)
}

func TestGetPaymentSettingsReportsDegradedQRAsDisabled(t *testing.T) {
	f := newFixture(t)

	settings, err := f.svc.GetPaymentSettings(context.Background(), acmeHost)
	require.NoError(t, err)
	assert.True(t, settings.HostedCardEnabled)
	assert.True(t, settings.ManualQREnabled)
	require.NotNil(t, settings.QR)

	merchant := f.repo.merchants[1]
	merchant.QRImageURL = nil
	f.repo.merchants[1] = merchant

	settings, err = f.svc.GetPaymentSettings(context.Background(), acmeHost)
	require.NoError(t, err)
	assert.True(t, settings.HostedCardEnabled)
	assert.False(t, settings.ManualQREnabled)
	assert.Nil(t, settings.QR)
}

func TestCancelExpiredOrders(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("hosted_card"))
	require.NoError(t, err)

	order := f.repo.orders[resp.OrderID]
	lapsed := time.Now().Add(-time.Hour).Unix()
	order.ExpiredAt = &lapsed
	f.repo.orders[resp.OrderID] = order

	f.svc.CancelExpiredOrders()

	assert.Equal(t, domain.OrderStatusCancelled, f.repo.orders[resp.OrderID].Status)
}

func TestCancelExpiredOrdersSkipsPaidOrders(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Checkout(context.Background(), acmeHost, "", checkoutRequest("hosted_card"))
	require.NoError(t, err)

	require.NoError(t, f.svc.HandlePaymentNotification(context.Background(), paidNotification(resp.OrderNumber)))

	order := f.repo.orders[resp.OrderID]
	lapsed := time.Now().Add(-time.Hour).Unix()
	order.ExpiredAt = &lapsed
	f.repo.orders[resp.OrderID] = order

	f.svc.CancelExpiredOrders()

	assert.Equal(t, domain.OrderStatusPaid, f.repo.orders[resp.OrderID].Status)
}
