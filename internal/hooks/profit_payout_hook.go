package hooks

import (
	"errors"
	"time"

	"github.com/dealdesk-io/dealdesk/internal/models"
	"github.com/dealdesk-io/dealdesk/internal/services"
	"gorm.io/gorm"
)

// ProfitPayoutHook marks a distribution paid once its payout is confirmed
// and appends the ledger entry. An already-paid distribution is a no-op, so
// redelivered confirmations never duplicate the payout record.
type ProfitPayoutHook struct {
	db       *gorm.DB
	notifier services.NotificationService
}

func NewProfitPayoutHook(db *gorm.DB, notifier services.NotificationService) services.Hook {
	return &ProfitPayoutHook{db: db, notifier: notifier}
}

// CanHandle implements Hook.
func (h *ProfitPayoutHook) CanHandle(purpose models.PaymentPurpose) bool {
	return purpose == models.PaymentPurposeProfitPayout
}

// OnPaymentConfirmed implements Hook.
func (h *ProfitPayoutHook) OnPaymentConfirmed(purpose models.PaymentPurpose, intentID string) error {
	var profit models.DealProfit
	if err := h.db.Where("payout_intent_id = ?", intentID).First(&profit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrProfitNotFound
		}
		return err
	}
	if profit.IsPaid {
		return nil
	}

	var deal models.Deal
	if err := h.db.First(&deal, profit.DealID).Error; err != nil {
		return err
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&profit).Update("is_paid", true).Error; err != nil {
			return err
		}
		profit.IsPaid = true

		entry := &models.DealTransaction{
			DealID:          profit.DealID,
			Amount:          profit.InvestorShare,
			Type:            models.TransactionTypeProfitPayout,
			TransactionID:   intentID,
			Description:     "profit distribution paid out",
			TransactionDate: time.Now(),
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return err
	}

	if deal.InvestorID != nil {
		h.notifier.NotifyBestEffort(&models.DealMessage{
			DealID:      deal.ID,
			SenderID:    deal.AuthorID,
			RecipientID: *deal.InvestorID,
			Text:        "Your profit distribution was paid out.",
			MessageType: models.MessageTypeProfitDistribution,
			ProfitID:    &profit.ID,
		})
	}
	return nil
}
