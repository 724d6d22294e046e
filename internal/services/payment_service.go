package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dealdesk-io/dealdesk/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentProvider is the narrow contract with the external payment processor.
// The core only needs to open intents, ask whether one is captured, and issue
// refunds.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount int64, currency, description string) (string, error)
	IsCaptured(ctx context.Context, intentID string) (bool, error)
	Refund(ctx context.Context, intentID string, amount int64) (string, error)
}

type PaymentService interface {
	RequestInitialPayment(ctx context.Context, dealID uint) (string, error)
	RequestChangeSettlement(ctx context.Context, dealID uint) (string, error)
	RequestProfitPayout(ctx context.Context, profitID uint) (string, error)
	HandlePaymentConfirmed(ctx context.Context, intentID string) error
}

type paymentService struct {
	db       *gorm.DB
	provider PaymentProvider
	hooks    HookService
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(db *gorm.DB, provider PaymentProvider, hooks HookService) PaymentService {
	return &paymentService{db: db, provider: provider, hooks: hooks}
}

// RequestInitialPayment opens a payment intent for the investor's capital on
// an admin-approved deal and records the intent id for webhook correlation.
func (s *paymentService) RequestInitialPayment(ctx context.Context, dealID uint) (string, error) {
	var deal models.Deal
	if err := s.db.First(&deal, dealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", models.ErrDealNotFound
		}
		return "", err
	}
	if deal.Status != models.DealStatusAdminApproved {
		return "", fmt.Errorf("deal %d is %s: %w", dealID, deal.Status, models.ErrInvalidStateTransition)
	}
	if deal.IsPaymentProcessed {
		return "", models.ErrPaymentAlreadyProcessed
	}
	if deal.PaymentIntentID != "" {
		return deal.PaymentIntentID, nil
	}

	intentID, err := s.provider.CreateIntent(ctx, deal.OfferMoney, "usd",
		fmt.Sprintf("initial investment for deal %d", dealID))
	if err != nil {
		return "", fmt.Errorf("payment provider: %w", err)
	}

	if err := ApplyVersionedUpdates(s.db, &deal, map[string]interface{}{
		"payment_intent_id": intentID,
	}); err != nil {
		return "", err
	}
	return intentID, nil
}

// RequestChangeSettlement settles the financial delta of an approved change
// request. A positive difference opens a collection intent settled later by
// webhook; a negative one refunds the investor immediately and dispatches
// the settlement hooks in-line.
func (s *paymentService) RequestChangeSettlement(ctx context.Context, dealID uint) (string, error) {
	var deal models.Deal
	if err := s.db.First(&deal, dealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", models.ErrDealNotFound
		}
		return "", err
	}
	if !deal.IsChangePaymentRequired {
		return "", fmt.Errorf("deal %d has no pending change settlement: %w", dealID, models.ErrPaymentNotProcessed)
	}
	if deal.IsChangePaymentProcessed {
		return "", models.ErrPaymentAlreadyProcessed
	}
	if deal.ChangePaymentIntentID != "" {
		return deal.ChangePaymentIntentID, nil
	}

	if deal.ChangeAmountDifference > 0 {
		intentID, err := s.provider.CreateIntent(ctx, deal.ChangeAmountDifference, "usd",
			fmt.Sprintf("change settlement for deal %d", dealID))
		if err != nil {
			return "", fmt.Errorf("payment provider: %w", err)
		}
		if err := ApplyVersionedUpdates(s.db, &deal, map[string]interface{}{
			"change_payment_intent_id": intentID,
		}); err != nil {
			return "", err
		}
		return intentID, nil
	}

	refundID, err := s.provider.Refund(ctx, deal.PaymentIntentID, -deal.ChangeAmountDifference)
	if err != nil {
		return "", fmt.Errorf("payment provider: %w", err)
	}
	if err := ApplyVersionedUpdates(s.db, &deal, map[string]interface{}{
		"change_payment_intent_id": refundID,
	}); err != nil {
		return "", err
	}
	if err := s.hooks.OnPaymentConfirmed(models.PaymentPurposeChangeRefund, refundID); err != nil {
		return "", err
	}
	return refundID, nil
}

// RequestProfitPayout opens a payout intent for a distribution's investor
// share.
func (s *paymentService) RequestProfitPayout(ctx context.Context, profitID uint) (string, error) {
	var profit models.DealProfit
	if err := s.db.First(&profit, profitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", models.ErrProfitNotFound
		}
		return "", err
	}
	if profit.IsPaid {
		return "", models.ErrPaymentAlreadyProcessed
	}
	if profit.PayoutIntentID != "" {
		return profit.PayoutIntentID, nil
	}
	if profit.InvestorShare <= 0 {
		return "", fmt.Errorf("distribution %d has no positive investor share to pay out", profitID)
	}

	intentID, err := s.provider.CreateIntent(ctx, profit.InvestorShare, "usd",
		fmt.Sprintf("profit payout for deal %d", profit.DealID))
	if err != nil {
		return "", fmt.Errorf("payment provider: %w", err)
	}

	if err := s.db.Model(&profit).Update("payout_intent_id", intentID).Error; err != nil {
		return "", err
	}
	return intentID, nil
}

// HandlePaymentConfirmed is the webhook entry point. It verifies capture with
// the provider, correlates the intent with its deal or distribution, and
// dispatches the purpose-specific hooks. Redeliveries are harmless: the hooks
// detect an already-processed event by content hash and no-op.
func (s *paymentService) HandlePaymentConfirmed(ctx context.Context, intentID string) error {
	captured, err := s.provider.IsCaptured(ctx, intentID)
	if err != nil {
		return fmt.Errorf("payment provider: %w", err)
	}
	if !captured {
		return models.ErrPaymentNotProcessed
	}

	var deal models.Deal
	err = s.db.
		Where("payment_intent_id = ? OR change_payment_intent_id = ?", intentID, intentID).
		First(&deal).Error
	if err == nil {
		purpose := models.PaymentPurposeInitialInvestment
		if deal.ChangePaymentIntentID == intentID {
			purpose = models.PaymentPurposeChangeSettlement
		}
		return s.hooks.OnPaymentConfirmed(purpose, intentID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var profit models.DealProfit
	err = s.db.Where("payout_intent_id = ?", intentID).First(&profit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("intent %s: %w", intentID, models.ErrDealNotFound)
		}
		return err
	}
	return s.hooks.OnPaymentConfirmed(models.PaymentPurposeProfitPayout, intentID)
}

// memoryPaymentProvider is an in-process PaymentProvider used for local
// development and tests. Intents are captured explicitly via Capture.
type memoryPaymentProvider struct {
	mu       sync.Mutex
	captured map[string]bool
	amounts  map[string]int64
}

func NewMemoryPaymentProvider() *memoryPaymentProvider {
	return &memoryPaymentProvider{
		captured: make(map[string]bool),
		amounts:  make(map[string]int64),
	}
}

func (p *memoryPaymentProvider) CreateIntent(_ context.Context, amount int64, _, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	intentID := "pi_" + uuid.New().String()
	p.captured[intentID] = false
	p.amounts[intentID] = amount
	return intentID, nil
}

func (p *memoryPaymentProvider) IsCaptured(_ context.Context, intentID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	captured, ok := p.captured[intentID]
	if !ok {
		return false, fmt.Errorf("unknown intent %s", intentID)
	}
	return captured, nil
}

func (p *memoryPaymentProvider) Refund(_ context.Context, intentID string, amount int64) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.captured[intentID]; !ok {
		return "", fmt.Errorf("unknown intent %s", intentID)
	}
	refundID := "re_" + uuid.New().String()
	p.captured[refundID] = true
	p.amounts[refundID] = -amount
	return refundID, nil
}

// Capture marks an intent as captured, standing in for the processor's
// charge confirmation.
func (p *memoryPaymentProvider) Capture(intentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.captured[intentID]; !ok {
		return fmt.Errorf("unknown intent %s", intentID)
	}
	p.captured[intentID] = true
	return nil
}
