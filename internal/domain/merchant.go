package domain

type Merchant struct {
	ID                int64   `db:"id"`
	Name              string  `db:"name"`
	HostedCardEnabled bool    `db:"hosted_card_enabled"`
	ManualQREnabled   bool    `db:"manual_qr_enabled"`
	QRImageURL        *string `db:"qr_image_url"`
	QRPaymentName     *string `db:"qr_payment_name"`
	QRPaymentDetails  *string `db:"qr_payment_details"`
	CreatedAt         int64   `db:"created_at"`
	UpdatedAt         int64   `db:"updated_at"`
}

// QRInstructions is the merchant-provided evidence shown on the manual
// transfer payment screen.
type QRInstructions struct {
	ImageURL       string `json:"qr_image_url"`
	PaymentName    string `json:"payment_name"`
	PaymentDetails string `json:"payment_details"`
}

// PaymentPolicy determines which payment paths a shopfront may offer.
// QR is nil when the manual transfer method is enabled but its metadata
// is incomplete; such a policy is degraded and must not reach customers.
type PaymentPolicy struct {
	HostedCardEnabled bool
	ManualQREnabled   bool
	QR                *QRInstructions
}

func (m Merchant) PaymentPolicy() PaymentPolicy {
	policy := PaymentPolicy{
		HostedCardEnabled: m.HostedCardEnabled,
		ManualQREnabled:   m.ManualQREnabled,
	}

	if m.ManualQREnabled && m.QRImageURL != nil && *m.QRImageURL != "" &&
		m.QRPaymentName != nil && *m.QRPaymentName != "" &&
		m.QRPaymentDetails != nil && *m.QRPaymentDetails != "" {
		policy.QR = &QRInstructions{
			ImageURL:       *m.QRImageURL,
			PaymentName:    *m.QRPaymentName,
			PaymentDetails: *m.QRPaymentDetails,
		}
	}

	return policy
}

// Allows reports whether the given method is currently usable. A degraded
// QR policy does not allow manual transfer checkout.
func (p PaymentPolicy) Allows(method PaymentMethod) bool {
	switch method {
	case PaymentMethodHostedCard:
		return p.HostedCardEnabled
	case PaymentMethodManualQR:
		return p.ManualQREnabled && p.QR != nil
	}
	return false
}

// Available reports whether checkout is possible at all.
func (p PaymentPolicy) Available() bool {
	return p.Allows(PaymentMethodHostedCard) || p.Allows(PaymentMethodManualQR)
}
