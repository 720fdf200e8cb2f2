package controller

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/minutemart/storefront-service/internal/dto"
	"github.com/minutemart/storefront-service/internal/service"
	pkgdto "github.com/minutemart/storefront-service/pkg/dto"
	"github.com/minutemart/storefront-service/pkg/errs"
	"github.com/minutemart/storefront-service/pkg/response"
	"github.com/rs/zerolog/log"
)

type Controller struct {
	service service.OrderService
}

func CreateOrderController(e *echo.Group, service service.OrderService) {
	c := Controller{
		service: service,
	}

	e.POST("/checkout", c.Checkout)
	e.POST("/orders/payments/notifications", c.PaymentWebhook)
	e.POST("/orders/:orderID/proof-of-payment", c.SubmitProofOfPayment)
	e.GET("/orders/:orderID", c.GetOrder)
	e.GET("/orders", c.GetOrders)
	e.PATCH("/orders/:orderID/complete", c.CompleteOrder)
	e.PATCH("/orders/:orderID/cancel", c.CancelOrder)
	e.GET("/stores/resolve", c.ResolveStore)
	e.GET("/stores/payment-settings", c.GetPaymentSettings)
}

func (c *Controller) Checkout(e echo.Context) error {
	payload := dto.CheckoutRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Error().Err(err).Str("component", "Checkout").Msg("")
		return response.WriteErrorResponse(e, errs.ErrClient, nil)
	}

	host := e.Request().Host
	idempotencyKey := e.Request().Header.Get("Idempotency-Key")

	resp, err := c.service.Checkout(e.Request().Context(), host, idempotencyKey, payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "Order created successfully", resp)
}

func (c *Controller) PaymentWebhook(e echo.Context) error {
	payload := dto.PaymentNotification{}
	err := e.Bind(&payload)
	if err != nil {
		log.Error().Err(err).Str("component", "PaymentWebhook").Msg("")
		return response.WriteErrorResponse(e, errs.ErrClient, nil)
	}

	err = c.service.HandlePaymentNotification(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", nil)
}

func (c *Controller) SubmitProofOfPayment(e echo.Context) error {
	orderID, err := strconv.ParseInt(e.Param("orderID"), 10, 64)
	if err != nil {
		return response.WriteErrorResponse(e, errs.ErrClient, nil)
	}

	payload := dto.ProofOfPaymentRequest{}
	if err := e.Bind(&payload); err != nil {
		log.Error().Err(err).Str("component", "SubmitProofOfPayment").Msg("")
		return response.WriteErrorResponse(e, errs.ErrClient, nil)
	}

	resp, err := c.service.SubmitProofOfPayment(e.Request().Context(), orderID, payload.ProofOfPaymentImageURL)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", resp)
}

func (c *Controller) GetOrder(e echo.Context) error {
	orderID, err := strconv.ParseInt(e.Param("orderID"), 10, 64)
	if err != nil {
		return response.WriteErrorResponse(e, errs.ErrClient, nil)
	}

	resp, err := c.service.GetOrder(e.Request().Context(), orderID)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", resp)
}

func (c *Controller) GetOrders(e echo.Context) error {
	filter := pkgdto.Filter{}
	err := e.Bind(&filter)
	if err != nil {
		log.Error().Err(err).Str("component", "GetOrders").Msg("")
	}

	responsePayload, err := c.service.GetOrders(e.Request().Context(), e.Request().Host, filter)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "successfully retrieved orders record", responsePayload)
}

func (c *Controller) CompleteOrder(e echo.Context) error {
	orderID, err := strconv.ParseInt(e.Param("orderID"), 10, 64)
	if err != nil {
		return response.WriteErrorResponse(e, errs.ErrClient, nil)
	}

	if err := c.service.CompleteOrder(e.Request().Context(), orderID); err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "order completed", nil)
}

func (c *Controller) CancelOrder(e echo.Context) error {
	orderID, err := strconv.ParseInt(e.Param("orderID"), 10, 64)
	if err != nil {
		return response.WriteErrorResponse(e, errs.ErrClient, nil)
	}

	if err := c.service.CancelOrder(e.Request().Context(), orderID); err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "order cancelled", nil)
}

func (c *Controller) ResolveStore(e echo.Context) error {
	resp, err := c.service.ResolveStore(e.Request().Context(), e.Request().Host)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	if resp == nil {
		return response.WriteSuccessResponse(e, "marketplace landing", nil)
	}

	return response.WriteSuccessResponse(e, "", resp)
}

func (c *Controller) GetPaymentSettings(e echo.Context) error {
	resp, err := c.service.GetPaymentSettings(e.Request().Context(), e.Request().Host)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", resp)
}
