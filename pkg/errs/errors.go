package errs

import (
	"errors"
	"net/http"
)

const (
	ErrStatusInternalServer = http.StatusInternalServerError
	ErrStatusClient         = http.StatusBadRequest
	ErrStatusNotFound       = http.StatusNotFound
	ErrStatusConflict       = http.StatusConflict
	ErrStatusNoPermission   = http.StatusForbidden
	ErrBadGateway           = http.StatusBadGateway
)

var (
	ErrInternalServer       = errors.New("Internal server error")
	ErrClient               = errors.New("Bad request")
	ErrNotFound             = errors.New("Resource not found")
	ErrConflict             = errors.New("Conflicting record found")
	ErrStoreNotFound        = errors.New("Store not found")
	ErrOrderNotFound        = errors.New("Order not found")
	ErrMerchantMismatch     = errors.New("Product does not belong to this store")
	ErrNoPaymentMethods     = errors.New("No payment methods available")
	ErrPaymentMethodDenied  = errors.New("The chosen payment method is not available for this store")
	ErrEmptyOrder           = errors.New("At least one item is required")
	ErrInvalidQuantity      = errors.New("Item quantity must be at least one")
	ErrInvalidEmail         = errors.New("A valid customer email is required")
	ErrMixedCurrencies      = errors.New("All items in an order must share one currency")
	ErrMissingCustomerField = errors.New("Customer name, email, contact number and delivery address are required")
	ErrProductUnavailable   = errors.New("One or more products are unavailable")
	ErrInsufficientStock    = errors.New("Insufficient stock for one or more products")
	ErrInvalidSignature     = errors.New("Webhook signature verification failed")
	ErrInvalidTransition    = errors.New("Order status transition is not allowed")
	ErrPaymentExpired       = errors.New("Payment for this order has expired")
	ErrPaymentInitFailed    = errors.New("Failed to initialize payment, please try again")
)

var errorMap = map[error]int{
	ErrInternalServer:       ErrStatusInternalServer,
	ErrClient:               ErrStatusClient,
	ErrNotFound:             ErrStatusNotFound,
	ErrConflict:             ErrStatusConflict,
	ErrStoreNotFound:        ErrStatusNotFound,
	ErrOrderNotFound:        ErrStatusNotFound,
	ErrMerchantMismatch:     ErrStatusClient,
	ErrNoPaymentMethods:     ErrStatusClient,
	ErrPaymentMethodDenied:  ErrStatusClient,
	ErrEmptyOrder:           ErrStatusClient,
	ErrInvalidQuantity:      ErrStatusClient,
	ErrInvalidEmail:         ErrStatusClient,
	ErrMixedCurrencies:      ErrStatusClient,
	ErrMissingCustomerField: ErrStatusClient,
	ErrProductUnavailable:   ErrStatusClient,
	ErrInsufficientStock:    ErrStatusConflict,
	ErrInvalidSignature:     ErrStatusClient,
	ErrInvalidTransition:    ErrStatusConflict,
	ErrPaymentExpired:       ErrStatusNoPermission,
	ErrPaymentInitFailed:    ErrBadGateway,
}

func GetErrorStatusCode(err error) int {
	errStatusCode, ok := errorMap[err]
	if !ok {
		errStatusCode = errorMap[ErrInternalServer]
	}
	return errStatusCode
}
