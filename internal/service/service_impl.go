package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minutemart/storefront-service/config"
	"github.com/minutemart/storefront-service/internal/domain"
	"github.com/minutemart/storefront-service/internal/dto"
	paymentgateway "github.com/minutemart/storefront-service/internal/infrastructure/payment-gateway"
	"github.com/minutemart/storefront-service/internal/pricing"
	"github.com/minutemart/storefront-service/internal/repository"
	"github.com/minutemart/storefront-service/internal/tenant"
	pkgdto "github.com/minutemart/storefront-service/pkg/dto"
	"github.com/minutemart/storefront-service/pkg/errs"
	"github.com/minutemart/storefront-service/pkg/utils"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type OrderServiceImpl struct {
	repository    repository.OrderRepository
	gateway       PaymentGateway
	notifier      Notifier
	kafkaProducer EventWriter
	resolver      *tenant.Resolver
	rates         *pricing.RateTable
	config        *config.Config
}

func CreateOrderService(repository repository.OrderRepository, gateway PaymentGateway, notifier Notifier, kafkaProducer EventWriter, resolver *tenant.Resolver, rates *pricing.RateTable, config *config.Config) OrderService {
	return &OrderServiceImpl{
		repository:    repository,
		gateway:       gateway,
		notifier:      notifier,
		kafkaProducer: kafkaProducer,
		resolver:      resolver,
		rates:         rates,
		config:        config,
	}
}

func (s *OrderServiceImpl) Checkout(ctx context.Context, host, idempotencyKey string, req dto.CheckoutRequest) (resp dto.CheckoutResponse, err error) {
	merchant, err := s.resolver.ResolveStore(ctx, host)
	if err != nil {
		return
	}
	if merchant == nil {
		return resp, errs.ErrStoreNotFound
	}

	// A client-submitted merchant id is never trusted on its own: it must
	// match the tenant the request host resolved to.
	if req.MerchantID != 0 && req.MerchantID != merchant.ID {
		log.Warn().Str("component", "Checkout").Int64("claimed_merchant_id", req.MerchantID).Int64("resolved_merchant_id", merchant.ID).Msg("merchant id does not match resolved tenant")
		return resp, errs.ErrMerchantMismatch
	}

	if err = validateCheckout(req); err != nil {
		return
	}

	policy := merchant.PaymentPolicy()
	if !policy.Available() {
		return resp, errs.ErrNoPaymentMethods
	}

	method := domain.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return resp, errs.ErrClient
	}
	if !policy.Allows(method) {
		return resp, errs.ErrPaymentMethodDenied
	}

	if idempotencyKey != "" {
		existing, err := s.repository.GetOrderByIdempotencyKey(ctx, merchant.ID, idempotencyKey)
		if err == nil {
			log.Info().Str("component", "Checkout").Int64("order_id", existing.ID).Msg("returning existing order for idempotency key")
			return checkoutResponse(existing, nil, nil), nil
		}
		if err != errs.ErrNotFound {
			return resp, err
		}
	}

	orderItems, total, currency, err := s.buildLineItems(ctx, merchant.ID, req.Items)
	if err != nil {
		return
	}

	totalAmount := total.StringFixed(2)
	if req.TotalAmount != "" && req.TotalAmount != totalAmount {
		// The client figure is display-only; the recomputed amount wins.
		log.Info().Str("component", "Checkout").Str("client_total", req.TotalAmount).Str("server_total", totalAmount).Msg("client-submitted total differs from recomputed total")
	}

	orderNumber, err := uuid.NewV7()
	if err != nil {
		return resp, fmt.Errorf("error generating order number: %v", err)
	}

	now := time.Now().Unix()
	order := domain.Order{
		OrderNumber:     orderNumber.String(),
		MerchantID:      merchant.ID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		ContactNumber:   req.ContactNumber,
		DeliveryAddress: req.DeliveryAddress,
		TotalAmount:     totalAmount,
		Currency:        currency,
		Status:          domain.OrderStatusPending,
		PaymentMethod:   method,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if idempotencyKey != "" {
		order.IdempotencyKey = &idempotencyKey
	}

	var redirectURL *string

	err = s.repository.HandleTrx(ctx, func(ctx context.Context, repo repository.OrderRepository) error {
		if method == domain.PaymentMethodHostedCard {
			session, err := s.gateway.CreateHostedSession(hostedSessionIntent(order, orderItems))
			if err != nil {
				return err
			}
			order.GatewaySessionID = &session.SessionID
			order.ExpiredAt = &session.ExpiresAt
			redirectURL = &session.RedirectURL
		}

		orderID, err := repo.AddOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = orderID

		for idx := range orderItems {
			orderItems[idx].OrderID = orderID
		}

		return repo.AddOrderItems(ctx, orderItems)
	})
	if err != nil {
		return resp, err
	}

	order.Items = orderItems
	s.publishOrderEvent("order_created", order)

	var qr *domain.QRInstructions
	if method == domain.PaymentMethodManualQR {
		qr = policy.QR
	}

	return checkoutResponse(order, redirectURL, qr), nil
}

func (s *OrderServiceImpl) buildLineItems(ctx context.Context, merchantID int64, items []dto.CheckoutItem) (orderItems []domain.OrderItem, total decimal.Decimal, currency string, err error) {
	productIDs := make([]int64, 0, len(items))
	seen := make(map[int64]bool)
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			productIDs = append(productIDs, item.ProductID)
		}
	}

	products, err := s.repository.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return
	}

	productsByID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}

	now := time.Now().Unix()
	for _, item := range items {
		product, ok := productsByID[item.ProductID]
		if !ok || !product.Active {
			return nil, total, "", errs.ErrProductUnavailable
		}
		if product.MerchantID != merchantID {
			log.Warn().Str("component", "buildLineItems").Int64("product_id", product.ID).Int64("merchant_id", merchantID).Msg("line item references another merchant's product")
			return nil, total, "", errs.ErrMerchantMismatch
		}
		if product.Inventory != nil && *product.Inventory < item.Quantity {
			return nil, total, "", errs.ErrInsufficientStock
		}
		if currency == "" {
			currency = product.Currency
		} else if product.Currency != currency {
			return nil, total, "", errs.ErrMixedCurrencies
		}

		// Price comes from the catalog, never from the submitted cart.
		unitPrice, perr := decimal.NewFromString(product.Price)
		if perr != nil {
			log.Error().Err(perr).Str("component", "buildLineItems").Int64("product_id", product.ID).Msg("")
			return nil, total, "", errs.ErrInternalServer
		}

		total = total.Add(unitPrice.Mul(decimal.NewFromInt(item.Quantity)))
		orderItems = append(orderItems, domain.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
			Currency:    product.Currency,
			CreatedAt:   now,
		})
	}

	return orderItems, total, currency, nil
}

func (s *OrderServiceImpl) SubmitProofOfPayment(ctx context.Context, orderID int64, imageURL string) (resp dto.OrderResponse, err error) {
	if strings.TrimSpace(imageURL) == "" {
		return resp, errs.ErrClient
	}

	order, err := s.repository.GetOrderByID(ctx, orderID)
	if err != nil {
		if err == errs.ErrNotFound {
			return resp, errs.ErrOrderNotFound
		}
		return
	}

	if order.PaymentMethod != domain.PaymentMethodManualQR {
		return resp, errs.ErrClient
	}

	// Proof re-submission for a non-pending order is a no-op: recorded
	// evidence stays as it is and no notifications are re-fired.
	if order.Status == domain.OrderStatusPending {
		paidAt := time.Now().Unix()
		transitioned, terr := s.repository.TransitionOrderStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusPaid, repository.OrderStatusUpdate{
			ProofOfPaymentImageURL: &imageURL,
			PaidAt:                 &paidAt,
		})
		if terr != nil {
			return resp, terr
		}
		if transitioned {
			order.Status = domain.OrderStatusPaid
			order.ProofOfPaymentImageURL = &imageURL
			order.PaidAt = &paidAt
			s.firePaidSideEffects(ctx, order)
		}
	}

	return s.GetOrder(ctx, orderID)
}

func (s *OrderServiceImpl) GetOrder(ctx context.Context, orderID int64) (resp dto.OrderResponse, err error) {
	order, err := s.repository.GetOrderByID(ctx, orderID)
	if err != nil {
		if err == errs.ErrNotFound {
			return resp, errs.ErrOrderNotFound
		}
		return
	}

	items, err := s.repository.GetOrderItemsByOrderID(ctx, order.ID)
	if err != nil {
		return
	}

	merchant, err := s.repository.GetMerchantByID(ctx, order.MerchantID)
	if err != nil {
		return
	}

	return s.orderResponse(order, items, merchant.Name), nil
}

func (s *OrderServiceImpl) GetOrders(ctx context.Context, host string, filter pkgdto.Filter) (response pkgdto.Pagination, err error) {
	merchant, err := s.resolver.ResolveStore(ctx, host)
	if err != nil {
		return
	}
	if merchant == nil {
		return response, errs.ErrStoreNotFound
	}

	orders, err := s.repository.GetOrders(ctx, merchant.ID, filter)
	if err != nil {
		return
	}

	totalCount, err := s.repository.CountOrders(ctx, merchant.ID, filter)
	if err != nil {
		return
	}

	records := make([]dto.OrderListItemResponse, 0, len(orders))
	for _, order := range orders {
		records = append(records, dto.OrderListItemResponse{
			ID:            order.ID,
			OrderNumber:   order.OrderNumber,
			CustomerName:  order.CustomerName,
			TotalAmount:   order.TotalAmount,
			Currency:      order.Currency,
			Status:        string(order.Status),
			PaymentMethod: string(order.PaymentMethod),
			CreatedAt:     order.CreatedAt,
		})
	}

	response.Records = records
	response.Metadata = pkgdto.PaginationMetadata{
		TotalCount: totalCount,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}

	return
}

func (s *OrderServiceImpl) CompleteOrder(ctx context.Context, orderID int64) (err error) {
	return s.manualTransition(ctx, orderID, domain.OrderStatusCompleted)
}

func (s *OrderServiceImpl) CancelOrder(ctx context.Context, orderID int64) (err error) {
	return s.manualTransition(ctx, orderID, domain.OrderStatusCancelled)
}

func (s *OrderServiceImpl) manualTransition(ctx context.Context, orderID int64, to domain.OrderStatus) error {
	order, err := s.repository.GetOrderByID(ctx, orderID)
	if err != nil {
		if err == errs.ErrNotFound {
			return errs.ErrOrderNotFound
		}
		return err
	}

	if !order.Status.CanTransition(to) {
		return errs.ErrInvalidTransition
	}

	transitioned, err := s.repository.TransitionOrderStatus(ctx, order.ID, order.Status, to, repository.OrderStatusUpdate{})
	if err != nil {
		return err
	}
	if !transitioned {
		return errs.ErrInvalidTransition
	}

	return nil
}

func (s *OrderServiceImpl) ResolveStore(ctx context.Context, host string) (resp *dto.StoreResponse, err error) {
	merchant, err := s.resolver.ResolveStore(ctx, host)
	if err != nil {
		return
	}
	if merchant == nil {
		return nil, nil
	}

	return &dto.StoreResponse{
		MerchantID: merchant.ID,
		Name:       merchant.Name,
	}, nil
}

func (s *OrderServiceImpl) GetPaymentSettings(ctx context.Context, host string) (resp dto.PaymentSettingsResponse, err error) {
	merchant, err := s.resolver.ResolveStore(ctx, host)
	if err != nil {
		return
	}
	if merchant == nil {
		return resp, errs.ErrStoreNotFound
	}

	policy := merchant.PaymentPolicy()

	// A degraded QR policy (metadata incomplete) is reported as disabled
	// so shopfronts never render a broken payment screen.
	return dto.PaymentSettingsResponse{
		HostedCardEnabled: policy.Allows(domain.PaymentMethodHostedCard),
		ManualQREnabled:   policy.Allows(domain.PaymentMethodManualQR),
		QR:                policy.QR,
	}, nil
}

// CancelExpiredOrders cancels pending hosted-card orders whose gateway
// session expired without a completion callback. Runs on a schedule.
func (s *OrderServiceImpl) CancelExpiredOrders() {
	log.Info().Str("component", "CancelExpiredOrders").Msg("cron starts")

	ctx := context.Background()
	orders, err := s.repository.GetExpiredPendingOrders(ctx, time.Now().Unix())
	if err != nil {
		return
	}

	for _, order := range orders {
		transitioned, err := s.repository.TransitionOrderStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusCancelled, repository.OrderStatusUpdate{})
		if err != nil {
			log.Error().Err(err).Str("component", "CancelExpiredOrders").Int64("order_id", order.ID).Msg("")
			continue
		}
		if transitioned {
			log.Info().Str("component", "CancelExpiredOrders").Int64("order_id", order.ID).Msg("expired order cancelled")
		}
	}

	log.Info().Str("component", "CancelExpiredOrders").Msg("cron ends")
}

// firePaidSideEffects runs after a pending->paid transition has been
// committed. Nothing here may fail the transition.
func (s *OrderServiceImpl) firePaidSideEffects(ctx context.Context, order domain.Order) {
	items, err := s.repository.GetOrderItemsByOrderID(ctx, order.ID)
	if err == nil {
		order.Items = items
	}

	storeName := ""
	merchant, err := s.repository.GetMerchantByID(ctx, order.MerchantID)
	if err == nil {
		storeName = merchant.Name
	}

	s.notifier.NotifyCustomer(order, storeName)

	ownerEmail, err := s.repository.GetMerchantOwnerEmail(ctx, order.MerchantID)
	if err != nil {
		log.Error().Err(err).Str("component", "firePaidSideEffects").Int64("order_id", order.ID).Msg("")
	} else if ownerEmail != "" {
		s.notifier.NotifyMerchant(order, storeName, ownerEmail)
	}

	s.publishOrderEvent("order_paid", order)
}

func (s *OrderServiceImpl) publishOrderEvent(eventType string, order domain.Order) {
	kafkaMsg := dto.KafkaMessage{
		EventType: eventType,
		Data: dto.OrderEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			MerchantID:  order.MerchantID,
			Status:      string(order.Status),
			TotalAmount: order.TotalAmount,
			Currency:    order.Currency,
		},
	}

	jsonMsg, err := json.Marshal(kafkaMsg)
	if err != nil {
		log.Error().Err(err).Str("component", "publishOrderEvent").Msg("")
		return
	}

	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		err = s.writeKafkaMessageWithKey(jsonMsg, order.OrderNumber)
		if err == nil {
			return
		}
		log.Error().Err(err).Str("component", "publishOrderEvent").Msg("")
		time.Sleep(time.Second * time.Duration(i+1)) // Exponential backoff
	}
}

func (s *OrderServiceImpl) writeKafkaMessageWithKey(msg []byte, key string) error {
	_, err := s.kafkaProducer.WriteMessages(
		kafka.Message{
			Key:   []byte(key),
			Value: msg,
		},
	)
	return err
}

func (s *OrderServiceImpl) orderResponse(order domain.Order, items []domain.OrderItem, storeName string) dto.OrderResponse {
	itemResponses := make([]dto.OrderItemResponse, 0, len(items))
	for _, item := range items {
		itemResponses = append(itemResponses, dto.OrderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Currency:    item.Currency,
		})
	}

	resp := dto.OrderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		StoreName:       storeName,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		ContactNumber:   order.ContactNumber,
		DeliveryAddress: order.DeliveryAddress,
		TotalAmount:     order.TotalAmount,
		Currency:        order.Currency,
		Status:          string(order.Status),
		PaymentMethod:   string(order.PaymentMethod),
		OrderDate:       utils.FormatOrderDate(order.CreatedAt),
		Items:           itemResponses,
	}

	if s.config != nil && s.config.DisplayCurrency != "" {
		if converted, ok := s.rates.Convert(order.TotalAmount, order.Currency, s.config.DisplayCurrency); ok {
			resp.DisplayAmount = &dto.DisplayAmount{
				Amount:   converted,
				Currency: s.config.DisplayCurrency,
			}
		}
	}

	return resp
}

func hostedSessionIntent(order domain.Order, items []domain.OrderItem) paymentgateway.HostedSessionIntent {
	sessionItems := make([]paymentgateway.SessionItem, 0, len(items))
	for _, item := range items {
		sessionItems = append(sessionItems, paymentgateway.SessionItem{
			ProductID: item.ProductID,
			Name:      item.ProductName,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Currency:  item.Currency,
		})
	}

	return paymentgateway.HostedSessionIntent{
		OrderNumber:     order.OrderNumber,
		MerchantID:      order.MerchantID,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		ContactNumber:   order.ContactNumber,
		DeliveryAddress: order.DeliveryAddress,
		Currency:        order.Currency,
		TotalAmount:     order.TotalAmount,
		Items:           sessionItems,
	}
}

func checkoutResponse(order domain.Order, redirectURL *string, qr *domain.QRInstructions) dto.CheckoutResponse {
	return dto.CheckoutResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        string(order.Status),
		PaymentMethod: string(order.PaymentMethod),
		TotalAmount:   order.TotalAmount,
		Currency:      order.Currency,
		RedirectURL:   redirectURL,
		QRPayment:     qr,
	}
}

func validateCheckout(req dto.CheckoutRequest) error {
	if strings.TrimSpace(req.CustomerName) == "" ||
		strings.TrimSpace(req.CustomerEmail) == "" ||
		strings.TrimSpace(req.ContactNumber) == "" ||
		strings.TrimSpace(req.DeliveryAddress) == "" {
		return errs.ErrMissingCustomerField
	}

	if !strings.Contains(req.CustomerEmail, "@") {
		return errs.ErrInvalidEmail
	}

	if len(req.Items) == 0 {
		return errs.ErrEmptyOrder
	}

	for _, item := range req.Items {
		if item.Quantity < 1 {
			return errs.ErrInvalidQuantity
		}
	}

	return nil
}
