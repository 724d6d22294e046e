package hooks

import (
	"errors"
	"time"

	"github.com/dealdesk-io/dealdesk/internal/models"
	"github.com/dealdesk-io/dealdesk/internal/services"
	"github.com/dealdesk-io/dealdesk/internal/utils"
	"gorm.io/gorm"
)

// ChangeSettlementHook completes an approved change request once its
// collection or refund is confirmed: payment flags, ledger entry, and a new
// contract version with the previous document archived.
type ChangeSettlementHook struct {
	db        *gorm.DB
	contracts services.ContractService
	notifier  services.NotificationService
}

func NewChangeSettlementHook(db *gorm.DB, contracts services.ContractService, notifier services.NotificationService) services.Hook {
	return &ChangeSettlementHook{
		db:        db,
		contracts: contracts,
		notifier:  notifier,
	}
}

// CanHandle implements Hook.
func (h *ChangeSettlementHook) CanHandle(purpose models.PaymentPurpose) bool {
	return purpose == models.PaymentPurposeChangeSettlement ||
		purpose == models.PaymentPurposeChangeRefund
}

// OnPaymentConfirmed implements Hook.
func (h *ChangeSettlementHook) OnPaymentConfirmed(purpose models.PaymentPurpose, intentID string) error {
	var deal models.Deal
	if err := h.db.Where("change_payment_intent_id = ?", intentID).First(&deal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrDealNotFound
		}
		return err
	}

	hash := utils.PaymentEventHash(intentID, string(purpose), deal.ChangeAmountDifference)
	if deal.LastProcessedPaymentHash == hash {
		return nil
	}
	if deal.IsChangePaymentProcessed {
		return nil
	}
	if !deal.IsChangePaymentRequired {
		return models.ErrPaymentNotProcessed
	}

	entryType := models.TransactionTypeChangePayment
	description := "change settlement collected"
	if purpose == models.PaymentPurposeChangeRefund {
		entryType = models.TransactionTypeRefund
		description = "change settlement refunded to investor"
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := services.ApplyVersionedUpdates(tx, &deal, map[string]interface{}{
			"is_change_payment_processed": true,
			"last_processed_payment_hash": hash,
		}); err != nil {
			return err
		}
		deal.IsChangePaymentProcessed = true

		entry := &models.DealTransaction{
			DealID:          deal.ID,
			Amount:          deal.ChangeAmountDifference,
			Type:            entryType,
			TransactionID:   intentID,
			Description:     description,
			TransactionDate: time.Now(),
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		return h.contracts.GenerateContract(tx, &deal, services.ContractReasonAmendment)
	})
	if err != nil {
		return err
	}

	recipients := []string{deal.AuthorID}
	if deal.InvestorID != nil {
		recipients = append(recipients, *deal.InvestorID)
	}
	for _, recipient := range recipients {
		h.notifier.NotifyBestEffort(&models.DealMessage{
			DealID:      deal.ID,
			SenderID:    deal.AuthorID,
			RecipientID: recipient,
			Text:        "The change settlement completed and a new contract version was generated.",
			MessageType: models.MessageTypeChangeRequest,
		})
	}
	return nil
}
