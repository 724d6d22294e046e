package services

import "github.com/dealdesk-io/dealdesk/internal/models"

// Hook performs side effects when a payment is confirmed, based on what the
// payment settles.
type Hook interface {
	// CanHandle is used to check if the hook can handle the payment purpose
	CanHandle(purpose models.PaymentPurpose) bool
	// OnPaymentConfirmed is called when a payment intent is confirmed
	OnPaymentConfirmed(purpose models.PaymentPurpose, intentID string) error
}
