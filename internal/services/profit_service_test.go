package services

import (
	"testing"
	"time"

	"github.com/dealdesk-io/dealdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestProfitService(t *testing.T) (ProfitService, *gorm.DB) {
	db := setupTestDB(t)
	notifier := NewNotificationService(db, zap.NewNop())
	return NewProfitService(db, notifier), db
}

func period(startDay, endDay int) (time.Time, time.Time) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, startDay), base.AddDate(0, 0, endDay)
}

func TestRecordProfit(t *testing.T) {
	service, db := newTestProfitService(t)
	owner, investor, category := createTestParties(t, db)

	t.Run("splits the period exactly", func(t *testing.T) {
		// 30% investor share, 5% platform fee on the net.
		deal := createTestDeal(t, db, owner, investor, category, models.DealStatusActive)
		start, end := period(0, 30)

		profit, err := service.RecordProfit(deal.ID, start, end, 10000, 4000, 1000)
		require.NoError(t, err)

		assert.EqualValues(t, 5000, profit.NetProfit)
		assert.EqualValues(t, 250, profit.PlatformFee)
		assert.EqualValues(t, 1425, profit.InvestorShare)
		assert.EqualValues(t, 3325, profit.OwnerShare)
		assert.EqualValues(t, profit.NetProfit, profit.InvestorShare+profit.OwnerShare+profit.PlatformFee)
		assert.False(t, profit.IsPaid)
	})

	t.Run("loss period carries negative net with no fee", func(t *testing.T) {
		deal := createTestDeal(t, db, owner, investor, category, models.DealStatusActive)
		start, end := period(0, 30)

		profit, err := service.RecordProfit(deal.ID, start, end, 3000, 4000, 1000)
		require.NoError(t, err)

		assert.EqualValues(t, -2000, profit.NetProfit)
		assert.EqualValues(t, 0, profit.PlatformFee)
		assert.EqualValues(t, profit.NetProfit, profit.InvestorShare+profit.OwnerShare)
	})

	t.Run("overlapping period is refused", func(t *testing.T) {
		deal := createTestDeal(t, db, owner, investor, category, models.DealStatusActive)
		start, end := period(0, 30)

		_, err := service.RecordProfit(deal.ID, start, end, 10000, 4000, 1000)
		require.NoError(t, err)

		// Identical period.
		_, err = service.RecordProfit(deal.ID, start, end, 10000, 4000, 1000)
		assert.ErrorIs(t, err, models.ErrDuplicatePeriod)

		// Partial overlap.
		overlapStart, overlapEnd := period(15, 45)
		_, err = service.RecordProfit(deal.ID, overlapStart, overlapEnd, 10000, 4000, 1000)
		assert.ErrorIs(t, err, models.ErrDuplicatePeriod)

		// Adjacent period sharing only the boundary instant is fine.
		nextStart, nextEnd := period(30, 60)
		_, err = service.RecordProfit(deal.ID, nextStart, nextEnd, 10000, 4000, 1000)
		assert.NoError(t, err)
	})

	t.Run("same period on another deal is independent", func(t *testing.T) {
		first := createTestDeal(t, db, owner, investor, category, models.DealStatusActive)
		second := createTestDeal(t, db, owner, investor, category, models.DealStatusActive)
		start, end := period(0, 30)

		_, err := service.RecordProfit(first.ID, start, end, 10000, 4000, 1000)
		require.NoError(t, err)
		_, err = service.RecordProfit(second.ID, start, end, 10000, 4000, 1000)
		assert.NoError(t, err)
	})

	t.Run("deal must be active", func(t *testing.T) {
		deal := createTestDeal(t, db, owner, investor, category, models.DealStatusCompleted)
		start, end := period(0, 30)

		_, err := service.RecordProfit(deal.ID, start, end, 10000, 4000, 1000)
		assert.ErrorIs(t, err, models.ErrDealNotActive)
	})

	t.Run("inverted period is refused", func(t *testing.T) {
		deal := createTestDeal(t, db, owner, investor, category, models.DealStatusActive)
		start, end := period(30, 0)

		_, err := service.RecordProfit(deal.ID, start, end, 10000, 4000, 1000)
		assert.Error(t, err)
	})

	t.Run("investor is notified of the distribution", func(t *testing.T) {
		deal := createTestDeal(t, db, owner, investor, category, models.DealStatusActive)
		start, end := period(0, 30)

		profit, err := service.RecordProfit(deal.ID, start, end, 10000, 4000, 1000)
		require.NoError(t, err)

		var messages []models.DealMessage
		require.NoError(t, db.
			Where("deal_id = ? AND message_type = ?", deal.ID, models.MessageTypeProfitDistribution).
			Find(&messages).Error)
		require.Len(t, messages, 1)
		assert.Equal(t, investor.ID, messages[0].RecipientID)
		require.NotNil(t, messages[0].ProfitID)
		assert.Equal(t, profit.ID, *messages[0].ProfitID)
	})
}

func TestMarkPaid(t *testing.T) {
	service, db := newTestProfitService(t)
	owner, investor, category := createTestParties(t, db)
	deal := createTestDeal(t, db, owner, investor, category, models.DealStatusActive)
	start, end := period(0, 30)

	profit, err := service.RecordProfit(deal.ID, start, end, 10000, 4000, 1000)
	require.NoError(t, err)

	require.NoError(t, service.MarkPaid(profit.ID))

	reloaded, err := service.GetProfitByID(profit.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsPaid)

	// Idempotent.
	require.NoError(t, service.MarkPaid(profit.ID))

	assert.ErrorIs(t, service.MarkPaid(99999), models.ErrProfitNotFound)
}

func TestProfitQueries(t *testing.T) {
	service, db := newTestProfitService(t)
	owner, investor, category := createTestParties(t, db)
	deal := createTestDeal(t, db, owner, investor, category, models.DealStatusActive)

	start1, end1 := period(0, 30)
	start2, end2 := period(30, 60)

	first, err := service.RecordProfit(deal.ID, start1, end1, 10000, 4000, 1000)
	require.NoError(t, err)
	second, err := service.RecordProfit(deal.ID, start2, end2, 20000, 8000, 2000)
	require.NoError(t, err)

	t.Run("period lookup", func(t *testing.T) {
		found, err := service.GetProfitForPeriod(deal.ID, start1, end1)
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)

		_, err = service.GetProfitForPeriod(deal.ID, start1, end2)
		assert.ErrorIs(t, err, models.ErrProfitNotFound)
	})

	t.Run("latest and full history", func(t *testing.T) {
		latest, err := service.LatestDistribution(deal.ID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, latest.ID)

		all, err := service.ListDistributions(deal.ID)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, second.ID, all[0].ID)
		assert.Equal(t, first.ID, all[1].ID)
	})

	t.Run("totals count paid distributions only", func(t *testing.T) {
		total, err := service.TotalInvestorProfit(investor.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)

		require.NoError(t, service.MarkPaid(first.ID))

		total, err = service.TotalInvestorProfit(investor.ID)
		require.NoError(t, err)
		assert.Equal(t, first.InvestorShare, total)

		ownerTotal, err := service.TotalOwnerProfit(owner.ID)
		require.NoError(t, err)
		assert.Equal(t, first.OwnerShare, ownerTotal)

		require.NoError(t, service.MarkPaid(second.ID))

		total, err = service.TotalInvestorProfit(investor.ID)
		require.NoError(t, err)
		assert.Equal(t, first.InvestorShare+second.InvestorShare, total)

		perDeal, err := service.InvestorProfitForDeal(deal.ID)
		require.NoError(t, err)
		assert.Equal(t, total, perDeal)
	})
}
