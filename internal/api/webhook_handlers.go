package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PaymentWebhookRequest struct {
	IntentID string `json:"intent_id" validate:"required"`
	Event    string `json:"event"`
}

// handlePaymentWebhook processes payment-confirmation events from the
// processor. Providers redeliver webhooks, so the downstream hooks treat a
// repeated (intent, hash) pair as a no-op and the handler always answers 200
// for an already-settled event.
func (s *APIServer) handlePaymentWebhook(c *fiber.Ctx) error {
	var req PaymentWebhookRequest
	if err := s.parseAndValidate(c, &req); err != nil {
		return err
	}

	if err := s.payments.HandlePaymentConfirmed(c.Context(), req.IntentID); err != nil {
		s.logger.Warn("payment webhook processing failed",
			zap.String("intent_id", req.IntentID),
			zap.Error(err))
		return s.errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"status": "processed"})
}
