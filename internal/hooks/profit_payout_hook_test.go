package hooks

import (
	"testing"
	"time"

	"github.com/dealdesk-io/dealdesk/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedProfit(t *testing.T, db *gorm.DB, dealID uint, investorShare int64) (*models.DealProfit, string) {
	intentID := "pi_" + uuid.New().String()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	profit := &models.DealProfit{
		DealID:           dealID,
		TotalRevenue:     10000,
		NetProfit:        5000,
		InvestorShare:    investorShare,
		OwnerShare:       5000 - investorShare,
		StartDate:        start,
		EndDate:          start.AddDate(0, 1, 0),
		DistributionDate: time.Now(),
		PayoutIntentID:   intentID,
	}
	require.NoError(t, db.Create(profit).Error)
	return profit, intentID
}

func TestProfitPayoutHook(t *testing.T) {
	db, _, notifier := setupHookTest(t)
	hook := NewProfitPayoutHook(db, notifier)
	owner, investor, category := seedParties(t, db)
	deal := seedDeal(t, db, owner, investor, category, models.DealStatusActive)

	t.Run("handles the payout purpose only", func(t *testing.T) {
		assert.True(t, hook.CanHandle(models.PaymentPurposeProfitPayout))
		assert.False(t, hook.CanHandle(models.PaymentPurposeInitialInvestment))
	})

	t.Run("marks the distribution paid and appends the ledger entry", func(t *testing.T) {
		profit, intentID := seedProfit(t, db, deal.ID, 1425)

		require.NoError(t, hook.OnPaymentConfirmed(models.PaymentPurposeProfitPayout, intentID))

		var updated models.DealProfit
		require.NoError(t, db.First(&updated, profit.ID).Error)
		assert.True(t, updated.IsPaid)

		var entries []models.DealTransaction
		require.NoError(t, db.
			Where("transaction_id = ? AND type = ?", intentID, models.TransactionTypeProfitPayout).
			Find(&entries).Error)
		require.Len(t, entries, 1)
		assert.EqualValues(t, 1425, entries[0].Amount)

		var messages []models.DealMessage
		require.NoError(t, db.
			Where("deal_id = ? AND message_type = ?", deal.ID, models.MessageTypeProfitDistribution).
			Find(&messages).Error)
		require.NotEmpty(t, messages)
		assert.Equal(t, investor.ID, messages[len(messages)-1].RecipientID)
	})

	t.Run("redelivered confirmation is a no-op", func(t *testing.T) {
		_, intentID := seedProfit(t, db, deal.ID, 900)

		require.NoError(t, hook.OnPaymentConfirmed(models.PaymentPurposeProfitPayout, intentID))
		require.NoError(t, hook.OnPaymentConfirmed(models.PaymentPurposeProfitPayout, intentID))

		var entries []models.DealTransaction
		require.NoError(t, db.
			Where("transaction_id = ?", intentID).
			Find(&entries).Error)
		assert.Len(t, entries, 1, "replay must not duplicate the payout entry")
	})

	t.Run("unknown intent", func(t *testing.T) {
		err := hook.OnPaymentConfirmed(models.PaymentPurposeProfitPayout, "pi_missing")
		assert.ErrorIs(t, err, models.ErrProfitNotFound)
	})
}
