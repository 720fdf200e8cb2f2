package dto

import "github.com/minutemart/storefront-service/internal/domain"

type StoreResponse struct {
	MerchantID int64  `json:"merchant_id"`
	Name       string `json:"name"`
}

type PaymentSettingsResponse struct {
	HostedCardEnabled bool                   `json:"hosted_card_enabled"`
	ManualQREnabled   bool                   `json:"manual_qr_enabled"`
	QR                *domain.QRInstructions `json:"qr,omitempty"`
}
