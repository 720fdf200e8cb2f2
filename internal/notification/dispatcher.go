package notification

import (
	"fmt"
	"strings"

	"github.com/minutemart/storefront-service/internal/domain"
	"github.com/minutemart/storefront-service/pkg/utils"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Mailer is the outbound mail dependency.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// Dispatcher sends customer and merchant notifications after an order
// transition has been committed. Delivery is best-effort: failures are
// logged and never surfaced to the operation that triggered them.
type Dispatcher struct {
	mailer Mailer
}

func CreateDispatcher(mailer Mailer) *Dispatcher {
	return &Dispatcher{
		mailer: mailer,
	}
}

// NotifyCustomer is non-blocking; delivery happens in the background.
func (d *Dispatcher) NotifyCustomer(order domain.Order, storeName string) {
	go func() {
		subject := fmt.Sprintf("Order Confirmation #%d - %s", order.ID, storeName)

		err := d.mailer.Send(order.CustomerEmail, subject, customerEmailBody(order, storeName))
		if err != nil {
			log.Error().Err(err).Str("component", "NotifyCustomer").Int64("order_id", order.ID).Msg("")
			return
		}

		log.Info().Str("component", "NotifyCustomer").Int64("order_id", order.ID).Msg("customer notification sent")
	}()
}

// NotifyMerchant is non-blocking; delivery happens in the background.
func (d *Dispatcher) NotifyMerchant(order domain.Order, storeName, merchantEmail string) {
	go func() {
		subject := fmt.Sprintf("New Order #%d - %s", order.ID, storeName)

		err := d.mailer.Send(merchantEmail, subject, merchantEmailBody(order, storeName))
		if err != nil {
			log.Error().Err(err).Str("component", "NotifyMerchant").Int64("order_id", order.ID).Msg("")
			return
		}

		log.Info().Str("component", "NotifyMerchant").Int64("order_id", order.ID).Msg("merchant notification sent")
	}()
}

func customerEmailBody(order domain.Order, storeName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<h2>Thank you for your order, %s!</h2>", order.CustomerName)
	fmt.Fprintf(&b, "<p>Your order #%d from %s has been confirmed.</p>", order.ID, storeName)
	fmt.Fprintf(&b, "<p><strong>Order Date:</strong> %s</p>", utils.FormatOrderDate(order.CreatedAt))
	b.WriteString(itemsTable(order.Items))
	fmt.Fprintf(&b, "<p><strong>Total:</strong> %s %s</p>", order.TotalAmount, order.Currency)
	fmt.Fprintf(&b, "<p><strong>Delivery Address:</strong> %s</p>", order.DeliveryAddress)

	return b.String()
}

func merchantEmailBody(order domain.Order, storeName string) string {
	var b strings.Builder

	b.WriteString("<h2>New Order Received!</h2>")
	fmt.Fprintf(&b, "<p>You have received a new order on your %s store.</p>", storeName)
	fmt.Fprintf(&b, "<p><strong>Order ID:</strong> #%d</p>", order.ID)
	fmt.Fprintf(&b, "<p><strong>Customer:</strong> %s (%s)</p>", order.CustomerName, order.CustomerEmail)
	fmt.Fprintf(&b, "<p><strong>Contact Number:</strong> %s</p>", order.ContactNumber)
	fmt.Fprintf(&b, "<p><strong>Delivery Address:</strong> %s</p>", order.DeliveryAddress)
	fmt.Fprintf(&b, "<p><strong>Payment Method:</strong> %s</p>", paymentMethodLabel(order.PaymentMethod))
	fmt.Fprintf(&b, "<p><strong>Order Date:</strong> %s</p>", utils.FormatOrderDate(order.CreatedAt))
	b.WriteString(itemsTable(order.Items))
	fmt.Fprintf(&b, "<p><strong>Total:</strong> %s %s</p>", order.TotalAmount, order.Currency)

	return b.String()
}

func itemsTable(items []domain.OrderItem) string {
	var b strings.Builder

	b.WriteString("<h3>Items Ordered</h3>")
	for _, item := range items {
		lineTotal := ""
		if unitPrice, err := decimal.NewFromString(item.UnitPrice); err == nil {
			lineTotal = unitPrice.Mul(decimal.NewFromInt(item.Quantity)).StringFixed(2)
		}
		fmt.Fprintf(&b, "<p><strong>%s</strong><br>Quantity: %d × %s = %s %s</p>",
			item.ProductName, item.Quantity, item.UnitPrice, lineTotal, item.Currency)
	}

	return b.String()
}

func paymentMethodLabel(method domain.PaymentMethod) string {
	if method == domain.PaymentMethodHostedCard {
		return "Credit Card"
	}
	return "QR Transfer"
}
