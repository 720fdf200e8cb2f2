package service

import (
	"context"
	"time"

	"github.com/minutemart/storefront-service/internal/domain"
	"github.com/minutemart/storefront-service/internal/dto"
	"github.com/minutemart/storefront-service/internal/repository"
	"github.com/minutemart/storefront-service/pkg/errs"
	"github.com/rs/zerolog/log"
)

// HandlePaymentNotification ingests an asynchronous gateway event. The
// signature is verified before anything in the payload is trusted, and
// every state change is a conditional transition so at-least-once
// delivery never produces a second transition or notification.
func (s *OrderServiceImpl) HandlePaymentNotification(ctx context.Context, req dto.PaymentNotification) (err error) {
	if err = s.gateway.VerifyNotification(req); err != nil {
		log.Error().Err(err).Str("component", "HandlePaymentNotification").Str("order_number", req.OrderID).Msg("rejecting unsigned or tampered notification")
		return err
	}

	event := s.gateway.DecodeNotification(req)

	switch event.Kind {
	case domain.PaymentEventSessionCompleted:
		if !event.Captured {
			// Async payment still in flight. The order stays pending and a
			// later async-payment-succeeded event performs the transition.
			log.Info().Str("component", "HandlePaymentNotification").Str("order_number", event.OrderNumber).Msg("session completed without capture, awaiting async payment")
			return nil
		}
		return s.markOrderPaid(ctx, event)
	case domain.PaymentEventAsyncPaymentSucceeded:
		return s.markOrderPaid(ctx, event)
	case domain.PaymentEventPaymentFailed:
		return s.markOrderCancelled(ctx, event)
	case domain.PaymentEventSubscriptionChanged:
		log.Info().Str("component", "HandlePaymentNotification").Msg("subscription change acknowledged")
		return nil
	default:
		log.Info().Str("component", "HandlePaymentNotification").Str("order_number", event.OrderNumber).Msg("unhandled event kind")
		return nil
	}
}

func (s *OrderServiceImpl) markOrderPaid(ctx context.Context, event domain.PaymentEvent) error {
	order, err := s.repository.GetOrderByOrderNumber(ctx, event.OrderNumber)
	if err != nil {
		if err == errs.ErrNotFound {
			// Unknown correlation id: acknowledge so the gateway stops
			// retrying an event we can never match.
			log.Warn().Str("component", "markOrderPaid").Str("order_number", event.OrderNumber).Msg("no order for gateway notification")
			return nil
		}
		return err
	}

	if order.Status != domain.OrderStatusPending {
		log.Info().Str("component", "markOrderPaid").Int64("order_id", order.ID).Str("status", string(order.Status)).Msg("duplicate notification, order already transitioned")
		return nil
	}

	paidAt := time.Now().Unix()
	update := repository.OrderStatusUpdate{
		PaidAt: &paidAt,
	}
	if event.PaymentRef != "" {
		update.GatewayPaymentRef = &event.PaymentRef
	}

	transitioned, err := s.repository.TransitionOrderStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusPaid, update)
	if err != nil {
		return err
	}
	if !transitioned {
		// A concurrent delivery won the race; its side effects already fired.
		return nil
	}

	order.Status = domain.OrderStatusPaid
	order.PaidAt = &paidAt
	if event.PaymentRef != "" {
		order.GatewayPaymentRef = &event.PaymentRef
	}

	s.firePaidSideEffects(ctx, order)

	return nil
}

func (s *OrderServiceImpl) markOrderCancelled(ctx context.Context, event domain.PaymentEvent) error {
	order, err := s.repository.GetOrderByOrderNumber(ctx, event.OrderNumber)
	if err != nil {
		if err == errs.ErrNotFound {
			return nil
		}
		return err
	}

	if order.Status != domain.OrderStatusPending {
		return nil
	}

	transitioned, err := s.repository.TransitionOrderStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusCancelled, repository.OrderStatusUpdate{})
	if err != nil {
		return err
	}
	if transitioned {
		log.Info().Str("component", "markOrderCancelled").Int64("order_id", order.ID).Msg("order cancelled after failed payment")
	}

	return nil
}
