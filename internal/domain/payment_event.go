package domain

// PaymentEventKind tags the small set of gateway notification kinds the
// order engine reacts to. Everything else decodes to Unhandled and is
// acknowledged without a state change.
type PaymentEventKind string

const (
	PaymentEventSessionCompleted      PaymentEventKind = "session_completed"
	PaymentEventAsyncPaymentSucceeded PaymentEventKind = "async_payment_succeeded"
	PaymentEventPaymentFailed         PaymentEventKind = "payment_failed"
	PaymentEventSubscriptionChanged   PaymentEventKind = "subscription_changed"
	PaymentEventUnhandled             PaymentEventKind = "unhandled"
)

// PaymentEvent is the typed form of a verified gateway notification,
// decoded once at the webhook boundary.
type PaymentEvent struct {
	Kind        PaymentEventKind
	OrderNumber string
	PaymentRef  string
	GrossAmount string
	// Captured is true when the session completed with funds captured.
	// A completed session without capture leaves the order pending until
	// an async-payment-succeeded event arrives.
	Captured bool
}
