package hooks

import (
	"errors"
	"fmt"
	"time"

	"github.com/dealdesk-io/dealdesk/internal/models"
	"github.com/dealdesk-io/dealdesk/internal/services"
	"github.com/dealdesk-io/dealdesk/internal/utils"
	"gorm.io/gorm"
)

// InvestmentActivationHook moves an approved deal to Active once the initial
// investment is captured: ledger entry, contract v1, payment flags. Replayed
// webhook deliveries are detected by content hash and ignored.
type InvestmentActivationHook struct {
	db        *gorm.DB
	contracts services.ContractService
	notifier  services.NotificationService
}

func NewInvestmentActivationHook(db *gorm.DB, contracts services.ContractService, notifier services.NotificationService) services.Hook {
	return &InvestmentActivationHook{
		db:        db,
		contracts: contracts,
		notifier:  notifier,
	}
}

// CanHandle implements Hook.
func (h *InvestmentActivationHook) CanHandle(purpose models.PaymentPurpose) bool {
	return purpose == models.PaymentPurposeInitialInvestment
}

// OnPaymentConfirmed implements Hook.
func (h *InvestmentActivationHook) OnPaymentConfirmed(purpose models.PaymentPurpose, intentID string) error {
	var deal models.Deal
	if err := h.db.Where("payment_intent_id = ?", intentID).First(&deal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrDealNotFound
		}
		return err
	}

	hash := utils.PaymentEventHash(intentID, string(purpose), deal.OfferMoney)
	if deal.LastProcessedPaymentHash == hash {
		// Same confirmation already settled this deal.
		return nil
	}
	if deal.Status == models.DealStatusActive {
		return nil
	}
	if !deal.Status.CanTransitionTo(models.DealStatusActive) {
		return fmt.Errorf("%s -> %s: %w", deal.Status, models.DealStatusActive, models.ErrInvalidStateTransition)
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := services.ApplyVersionedUpdates(tx, &deal, map[string]interface{}{
			"status":                      models.DealStatusActive,
			"is_payment_processed":        true,
			"last_processed_payment_hash": hash,
		}); err != nil {
			return err
		}
		deal.Status = models.DealStatusActive
		deal.IsPaymentProcessed = true

		entry := &models.DealTransaction{
			DealID:          deal.ID,
			Amount:          deal.OfferMoney,
			Type:            models.TransactionTypeInitialInvestment,
			TransactionID:   intentID,
			Description:     "initial investment captured",
			TransactionDate: time.Now(),
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		return h.contracts.GenerateContract(tx, &deal, services.ContractReasonOriginal)
	})
	if err != nil {
		return err
	}

	if deal.InvestorID != nil {
		h.notifier.NotifyBestEffort(&models.DealMessage{
			DealID:      deal.ID,
			SenderID:    deal.AuthorID,
			RecipientID: *deal.InvestorID,
			Text:        "Your investment was captured and the deal is now active.",
			MessageType: models.MessageTypeStatusChange,
		})
	}
	return nil
}
