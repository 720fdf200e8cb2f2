package repository

import (
	"context"

	"github.com/minutemart/storefront-service/internal/domain"
	pkgdto "github.com/minutemart/storefront-service/pkg/dto"
)

// OrderStatusUpdate carries the optional columns written alongside a
// status transition. Nil fields leave the column untouched.
type OrderStatusUpdate struct {
	GatewayPaymentRef      *string
	ProofOfPaymentImageURL *string
	PaidAt                 *int64
}

type OrderRepository interface {
	HandleTrx(ctx context.Context, fn func(ctx context.Context, repo OrderRepository) error) error

	AddOrder(ctx context.Context, data domain.Order) (id int64, err error)
	AddOrderItems(ctx context.Context, data []domain.OrderItem) (err error)
	GetOrderByID(ctx context.Context, id int64) (data domain.Order, err error)
	GetOrderByOrderNumber(ctx context.Context, orderNumber string) (data domain.Order, err error)
	GetOrderByIdempotencyKey(ctx context.Context, merchantID int64, key string) (data domain.Order, err error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) (data []domain.OrderItem, err error)
	GetOrders(ctx context.Context, merchantID int64, filter pkgdto.Filter) (data []domain.Order, err error)
	CountOrders(ctx context.Context, merchantID int64, filter pkgdto.Filter) (count uint64, err error)
	GetExpiredPendingOrders(ctx context.Context, now int64) (data []domain.Order, err error)

	// TransitionOrderStatus performs a conditional update gated on the
	// current status and reports whether a row actually transitioned.
	TransitionOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus, update OrderStatusUpdate) (transitioned bool, err error)

	GetMerchantByID(ctx context.Context, id int64) (data domain.Merchant, err error)
	GetMerchantByName(ctx context.Context, name string) (data domain.Merchant, err error)
	GetMerchantOwnerEmail(ctx context.Context, merchantID int64) (email string, err error)

	GetProductsByIDs(ctx context.Context, ids []int64) (data []domain.Product, err error)
}
