package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dealdesk-io/dealdesk/internal/models"
	"github.com/dealdesk-io/dealdesk/internal/utils"
	"gorm.io/gorm"
)

type ProfitService interface {
	RecordProfit(dealID uint, startDate, endDate time.Time, totalRevenue, manufacturingCost, otherCosts int64) (*models.DealProfit, error)
	MarkPaid(profitID uint) error
	GetProfitByID(profitID uint) (*models.DealProfit, error)
	GetProfitForPeriod(dealID uint, startDate, endDate time.Time) (*models.DealProfit, error)
	LatestDistribution(dealID uint) (*models.DealProfit, error)
	ListDistributions(dealID uint) ([]models.DealProfit, error)
	TotalInvestorProfit(investorID string) (int64, error)
	TotalOwnerProfit(ownerID string) (int64, error)
	InvestorProfitForDeal(dealID uint) (int64, error)
	OwnerProfitForDeal(dealID uint) (int64, error)
}

type profitService struct {
	db       *gorm.DB
	notifier NotificationService
}

// NewProfitService creates a new ProfitService
func NewProfitService(db *gorm.DB, notifier NotificationService) ProfitService {
	return &profitService{db: db, notifier: notifier}
}

// RecordProfit reconciles one period for an active deal. The overlap check
// and insert run in one transaction so a manual trigger and the scheduled
// job cannot both record the same period.
func (s *profitService) RecordProfit(dealID uint, startDate, endDate time.Time, totalRevenue, manufacturingCost, otherCosts int64) (*models.DealProfit, error) {
	if !endDate.After(startDate) {
		return nil, fmt.Errorf("invalid period: end %s is not after start %s", endDate, startDate)
	}

	var profit *models.DealProfit

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var deal models.Deal
		if err := tx.First(&deal, dealID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrDealNotFound
			}
			return err
		}
		if deal.Status != models.DealStatusActive {
			return models.ErrDealNotActive
		}

		var overlapping int64
		if err := tx.Model(&models.DealProfit{}).
			Where("deal_id = ? AND start_date < ? AND end_date > ?", dealID, endDate, startDate).
			Count(&overlapping).Error; err != nil {
			return err
		}
		if overlapping > 0 {
			return models.ErrDuplicatePeriod
		}

		split := utils.SplitProfit(totalRevenue, manufacturingCost, otherCosts, deal.OfferDeal, deal.PlatformFeePercentage)

		profit = &models.DealProfit{
			DealID:            dealID,
			TotalRevenue:      totalRevenue,
			ManufacturingCost: manufacturingCost,
			OtherCosts:        otherCosts,
			NetProfit:         split.NetProfit,
			InvestorShare:     split.InvestorShare,
			OwnerShare:        split.OwnerShare,
			PlatformFee:       split.PlatformFee,
			StartDate:         startDate,
			EndDate:           endDate,
			DistributionDate:  time.Now(),
			IsPaid:            false,
		}
		if err := tx.Create(profit).Error; err != nil {
			return err
		}

		if deal.InvestorID != nil {
			s.notifier.NotifyBestEffort(&models.DealMessage{
				DealID:      dealID,
				SenderID:    deal.AuthorID,
				RecipientID: *deal.InvestorID,
				Text:        fmt.Sprintf("A profit distribution of %d was recorded for your deal.", split.InvestorShare),
				MessageType: models.MessageTypeProfitDistribution,
				ProfitID:    &profit.ID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return profit, nil
}

// MarkPaid flips the paid flag after the payout transaction is confirmed.
// Calling it twice is a no-op, not an error.
func (s *profitService) MarkPaid(profitID uint) error {
	var profit models.DealProfit
	if err := s.db.First(&profit, profitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrProfitNotFound
		}
		return err
	}
	if profit.IsPaid {
		return nil
	}
	return s.db.Model(&profit).Update("is_paid", true).Error
}

func (s *profitService) GetProfitByID(profitID uint) (*models.DealProfit, error) {
	var profit models.DealProfit
	err := s.db.First(&profit, profitID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrProfitNotFound
		}
		return nil, err
	}
	return &profit, nil
}

// GetProfitForPeriod returns the distribution covering exactly the given
// period, if any.
func (s *profitService) GetProfitForPeriod(dealID uint, startDate, endDate time.Time) (*models.DealProfit, error) {
	var profit models.DealProfit
	err := s.db.
		Where("deal_id = ? AND start_date = ? AND end_date = ?", dealID, startDate, endDate).
		First(&profit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrProfitNotFound
		}
		return nil, err
	}
	return &profit, nil
}

// LatestDistribution returns the most recent distribution for a deal.
func (s *profitService) LatestDistribution(dealID uint) (*models.DealProfit, error) {
	var profit models.DealProfit
	err := s.db.
		Where("deal_id = ?", dealID).
		Order("distribution_date DESC").
		First(&profit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrProfitNotFound
		}
		return nil, err
	}
	return &profit, nil
}

// ListDistributions returns all distributions for a deal, newest first.
func (s *profitService) ListDistributions(dealID uint) ([]models.DealProfit, error) {
	var profits []models.DealProfit
	err := s.db.
		Where("deal_id = ?", dealID).
		Order("distribution_date DESC").
		Find(&profits).Error
	return profits, err
}

// TotalInvestorProfit sums the investor's realized share across all deals.
// Only paid distributions count toward realized totals.
func (s *profitService) TotalInvestorProfit(investorID string) (int64, error) {
	var total int64
	err := s.db.Model(&models.DealProfit{}).
		Joins("JOIN deals ON deals.id = deal_profits.deal_id").
		Where("deals.investor_id = ? AND deal_profits.is_paid = ?", investorID, true).
		Select("COALESCE(SUM(deal_profits.investor_share), 0)").
		Scan(&total).Error
	return total, err
}

// TotalOwnerProfit sums the owner's realized share across all deals.
func (s *profitService) TotalOwnerProfit(ownerID string) (int64, error) {
	var total int64
	err := s.db.Model(&models.DealProfit{}).
		Joins("JOIN deals ON deals.id = deal_profits.deal_id").
		Where("deals.author_id = ? AND deal_profits.is_paid = ?", ownerID, true).
		Select("COALESCE(SUM(deal_profits.owner_share), 0)").
		Scan(&total).Error
	return total, err
}

// InvestorProfitForDeal sums the investor's realized share for one deal.
func (s *profitService) InvestorProfitForDeal(dealID uint) (int64, error) {
	var total int64
	err := s.db.Model(&models.DealProfit{}).
		Where("deal_id = ? AND is_paid = ?", dealID, true).
		Select("COALESCE(SUM(investor_share), 0)").
		Scan(&total).Error
	return total, err
}

// OwnerProfitForDeal sums the owner's realized share for one deal.
func (s *profitService) OwnerProfitForDeal(dealID uint) (int64, error) {
	var total int64
	err := s.db.Model(&models.DealProfit{}).
		Where("deal_id = ? AND is_paid = ?", dealID, true).
		Select("COALESCE(SUM(owner_share), 0)").
		Scan(&total).Error
	return total, err
}
