package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dealdesk-io/dealdesk/internal/models"
	"gorm.io/gorm"
)

// DealSortField is the closed set of fields list queries may sort by.
type DealSortField string

const (
	DealSortCreatedAt  DealSortField = "created_at"
	DealSortEndDate    DealSortField = "scheduled_end_date"
	DealSortOfferMoney DealSortField = "offer_money"
	DealSortStatus     DealSortField = "status"
)

var dealSortColumns = map[DealSortField]string{
	DealSortCreatedAt:  "created_at",
	DealSortEndDate:    "scheduled_end_date",
	DealSortOfferMoney: "offer_money",
	DealSortStatus:     "status",
}

// ListDealsOptions controls pagination and ordering of deal list queries.
type ListDealsOptions struct {
	Skip       int
	Limit      int
	SortBy     DealSortField
	Descending bool
}

type DealService interface {
	CreateDeal(deal *models.Deal) error
	GetDealByID(id uint) (*models.Deal, error)
	GetDealDetail(id uint) (*models.Deal, error)
	GetDealByPaymentIntentID(intentID string) (*models.Deal, error)

	AcceptOffer(dealID uint, ownerID string) (*models.Deal, error)
	RejectDeal(dealID uint, actorID, reason string) (*models.Deal, error)
	ApproveDeal(dealID uint, adminID string) (*models.Deal, error)
	ActivateDeal(dealID uint) (*models.Deal, error)
	CompleteDeal(dealID uint, reason string) (*models.Deal, error)
	TerminateDeal(dealID uint, actorID, reason string) (*models.Deal, error)

	HasActiveDeal(authorID, investorID string) (bool, error)

	ListDealsByApprovalState(approved bool, opts ListDealsOptions) ([]models.Deal, int64, error)
	ListDealsByAuthor(authorID string) ([]models.Deal, error)
	ListDealsByInvestor(investorID string) ([]models.Deal, error)
	ListActiveDealsByInvestor(investorID string) ([]models.Deal, error)
	ListDealsPendingApproval() ([]models.Deal, error)
	ListDealsReadyForProduct() ([]models.Deal, error)
	ListDealsEndingWithin(ctx context.Context, days int) ([]models.Deal, error)
	ListDealsEndedToday(ctx context.Context, now time.Time) ([]models.Deal, error)
}

type dealService struct {
	db       *gorm.DB
	notifier NotificationService
}

// NewDealService creates a new DealService
func NewDealService(db *gorm.DB, notifier NotificationService) DealService {
	return &dealService{db: db, notifier: notifier}
}

// ApplyVersionedUpdates performs an optimistic-concurrency write on a deal.
// The update only matches the version the caller read; a stale version means
// another actor won the race and the caller gets ErrConcurrentModification.
// On success the in-memory deal's version is advanced to match the row.
func ApplyVersionedUpdates(db *gorm.DB, deal *models.Deal, updates map[string]interface{}) error {
	updates["version"] = deal.Version + 1
	res := db.Model(&models.Deal{}).
		Where("id = ? AND version = ?", deal.ID, deal.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.Deal{}).Where("id = ?", deal.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return models.ErrDealNotFound
		}
		return models.ErrConcurrentModification
	}
	deal.Version++
	return nil
}

// isDealActor reports whether the caller may act on the deal: one of its
// parties, or a platform administrator.
func isDealActor(db *gorm.DB, deal *models.Deal, actorID string) bool {
	if deal.AuthorID == actorID || (deal.InvestorID != nil && *deal.InvestorID == actorID) {
		return true
	}
	var user models.User
	if err := db.Select("role").First(&user, "id = ?", actorID).Error; err != nil {
		return false
	}
	return user.Role == models.RoleAdmin
}

// CreateDeal validates terms and stores a new deal in Proposed status.
func (s *dealService) CreateDeal(deal *models.Deal) error {
	if deal.OfferDeal < 0 || deal.OfferDeal > 100 {
		return fmt.Errorf("offer deal percentage %.2f out of range [0,100]: %w", deal.OfferDeal, models.ErrInvalidTerms)
	}
	if deal.PlatformFeePercentage < 0 || deal.PlatformFeePercentage > 100 {
		return fmt.Errorf("platform fee percentage %.2f out of range [0,100]: %w", deal.PlatformFeePercentage, models.ErrInvalidTerms)
	}
	if deal.Status == "" {
		deal.Status = models.DealStatusProposed
	}
	if deal.ContractVersion == 0 {
		deal.ContractVersion = 1
	}
	return s.db.Create(deal).Error
}

// GetDealByID returns a deal with its direct associations.
func (s *dealService) GetDealByID(id uint) (*models.Deal, error) {
	var deal models.Deal
	err := s.db.Preload("Category").First(&deal, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrDealNotFound
		}
		return nil, err
	}
	return &deal, nil
}

// GetDealDetail returns a deal with the full aggregate graph: parties,
// category, product, messages, profit distributions and ledger entries.
func (s *dealService) GetDealDetail(id uint) (*models.Deal, error) {
	var deal models.Deal
	err := s.db.
		Preload("Category").
		Preload("Author").
		Preload("Investor").
		Preload("Product").
		Preload("ChangeRequest").
		Preload("DeleteRequest").
		Preload("Messages").
		Preload("Profits").
		Preload("Transactions").
		First(&deal, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrDealNotFound
		}
		return nil, err
	}
	return &deal, nil
}

// GetDealByPaymentIntentID correlates a payment webhook with its deal. Both
// the initial and the change-settlement intent ids are checked.
func (s *dealService) GetDealByPaymentIntentID(intentID string) (*models.Deal, error) {
	var deal models.Deal
	err := s.db.
		Where("payment_intent_id = ? OR change_payment_intent_id = ?", intentID, intentID).
		First(&deal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrDealNotFound
		}
		return nil, err
	}
	return &deal, nil
}

// transition loads the deal, checks the table and applies a version-checked
// status update plus any extra column changes.
func (s *dealService) transition(dealID uint, to models.DealStatus, guard func(*models.Deal) error, extra map[string]interface{}) (*models.Deal, error) {
	deal, err := s.GetDealByID(dealID)
	if err != nil {
		return nil, err
	}
	if !deal.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%s -> %s: %w", deal.Status, to, models.ErrInvalidStateTransition)
	}
	if guard != nil {
		if err := guard(deal); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	if err := ApplyVersionedUpdates(s.db, deal, updates); err != nil {
		return nil, err
	}
	deal.Status = to
	return deal, nil
}

// AcceptOffer moves a proposed deal to OwnerAccepted and notifies the
// investor.
func (s *dealService) AcceptOffer(dealID uint, ownerID string) (*models.Deal, error) {
	deal, err := s.transition(dealID, models.DealStatusOwnerAccepted, func(d *models.Deal) error {
		if d.AuthorID != ownerID {
			return models.ErrNotAuthorized
		}
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}

	if deal.InvestorID != nil {
		s.notifier.NotifyBestEffort(&models.DealMessage{
			DealID:      deal.ID,
			SenderID:    ownerID,
			RecipientID: *deal.InvestorID,
			Text:        "Your offer was accepted by the business owner.",
			MessageType: models.MessageTypeStatusChange,
		})
	}
	return deal, nil
}

// RejectDeal moves a deal to Rejected, recording the reason, and notifies the
// counter-party.
func (s *dealService) RejectDeal(dealID uint, actorID, reason string) (*models.Deal, error) {
	deal, err := s.transition(dealID, models.DealStatusRejected, func(d *models.Deal) error {
		if !isDealActor(s.db, d, actorID) {
			return models.ErrNotAuthorized
		}
		return nil
	}, map[string]interface{}{
		"rejection_reason": reason,
	})
	if err != nil {
		return nil, err
	}
	deal.RejectionReason = reason

	for _, recipient := range dealParties(deal, actorID) {
		s.notifier.NotifyBestEffort(&models.DealMessage{
			DealID:      deal.ID,
			SenderID:    actorID,
			RecipientID: recipient,
			Text:        fmt.Sprintf("The deal was rejected: %s", reason),
			MessageType: models.MessageTypeStatusChange,
		})
	}
	return deal, nil
}

// ApproveDeal is the admin gate: OwnerAccepted -> AdminApproved.
func (s *dealService) ApproveDeal(dealID uint, adminID string) (*models.Deal, error) {
	deal, err := s.transition(dealID, models.DealStatusAdminApproved, nil, map[string]interface{}{
		"is_approved": true,
	})
	if err != nil {
		return nil, err
	}
	deal.IsApproved = true

	for _, recipient := range dealParties(deal, adminID) {
		s.notifier.NotifyBestEffort(&models.DealMessage{
			DealID:      deal.ID,
			SenderID:    adminID,
			RecipientID: recipient,
			Text:        "The deal was approved by an administrator.",
			MessageType: models.MessageTypeStatusChange,
		})
	}
	return deal, nil
}

// ActivateDeal moves an approved deal to Active. The payment must already be
// captured; the webhook-driven activation hook is the usual caller.
func (s *dealService) ActivateDeal(dealID uint) (*models.Deal, error) {
	return s.transition(dealID, models.DealStatusActive, func(d *models.Deal) error {
		if !d.IsPaymentProcessed {
			return models.ErrPaymentNotProcessed
		}
		return nil
	}, nil)
}

// CompleteDeal finalizes an active deal that reached its scheduled end date
// or was completed manually.
func (s *dealService) CompleteDeal(dealID uint, reason string) (*models.Deal, error) {
	return s.transition(dealID, models.DealStatusCompleted, nil, map[string]interface{}{
		"deal_end_reason": reason,
	})
}

// TerminateDeal ends a deal early, recording the termination reason.
func (s *dealService) TerminateDeal(dealID uint, actorID, reason string) (*models.Deal, error) {
	deal, err := s.transition(dealID, models.DealStatusTerminated, func(d *models.Deal) error {
		if !isDealActor(s.db, d, actorID) {
			return models.ErrNotAuthorized
		}
		return nil
	}, map[string]interface{}{
		"deal_end_reason": reason,
	})
	if err != nil {
		return nil, err
	}
	deal.DealEndReason = reason

	for _, recipient := range dealParties(deal, actorID) {
		s.notifier.NotifyBestEffort(&models.DealMessage{
			DealID:      deal.ID,
			SenderID:    actorID,
			RecipientID: recipient,
			Text:        fmt.Sprintf("The deal was terminated: %s", reason),
			MessageType: models.MessageTypeStatusChange,
		})
	}
	return deal, nil
}

// HasActiveDeal reports whether an in-flight deal already exists between the
// two parties. OwnerAccepted, AdminApproved and Active count as active.
func (s *dealService) HasActiveDeal(authorID, investorID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Deal{}).
		Where("author_id = ? AND investor_id = ? AND status IN ?", authorID, investorID, models.ActiveDealStatuses()).
		Count(&count).Error
	return count > 0, err
}

// ListDealsByApprovalState returns a page of deals filtered by the admin
// approval flag, with the total count for pagination.
func (s *dealService) ListDealsByApprovalState(approved bool, opts ListDealsOptions) ([]models.Deal, int64, error) {
	query := s.db.Model(&models.Deal{}).Where("is_approved = ?", approved)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := dealSortColumns[opts.SortBy]
	if !ok {
		column = dealSortColumns[DealSortCreatedAt]
	}
	order := column
	if opts.Descending {
		order += " DESC"
	}

	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	var deals []models.Deal
	err := query.Order(order).Offset(opts.Skip).Limit(opts.Limit).Find(&deals).Error
	return deals, total, err
}

// ListDealsByAuthor returns all deals raised by a business owner.
func (s *dealService) ListDealsByAuthor(authorID string) ([]models.Deal, error) {
	var deals []models.Deal
	err := s.db.Preload("Category").Where("author_id = ?", authorID).Find(&deals).Error
	return deals, err
}

// ListDealsByInvestor returns all deals an investor participates in.
func (s *dealService) ListDealsByInvestor(investorID string) ([]models.Deal, error) {
	var deals []models.Deal
	err := s.db.Preload("Category").Where("investor_id = ?", investorID).Find(&deals).Error
	return deals, err
}

// ListActiveDealsByInvestor returns the investor's deals in the active set.
func (s *dealService) ListActiveDealsByInvestor(investorID string) ([]models.Deal, error) {
	var deals []models.Deal
	err := s.db.
		Where("investor_id = ? AND status IN ?", investorID, models.ActiveDealStatuses()).
		Find(&deals).Error
	return deals, err
}

// ListDealsPendingApproval returns deals waiting on the admin gate.
func (s *dealService) ListDealsPendingApproval() ([]models.Deal, error) {
	var deals []models.Deal
	err := s.db.
		Preload("Author").
		Where("status = ?", models.DealStatusOwnerAccepted).
		Find(&deals).Error
	return deals, err
}

// ListDealsReadyForProduct returns active deals eligible to spawn a product.
func (s *dealService) ListDealsReadyForProduct() ([]models.Deal, error) {
	var deals []models.Deal
	err := s.db.
		Where("status = ? AND is_ready_for_product = ? AND is_product_created = ?",
			models.DealStatusActive, true, false).
		Find(&deals).Error
	return deals, err
}

// ListDealsEndingWithin returns active deals whose scheduled end date falls
// within the next N days. Used by the renewal-reminder sweep.
func (s *dealService) ListDealsEndingWithin(ctx context.Context, days int) ([]models.Deal, error) {
	now := time.Now()
	cutoff := now.AddDate(0, 0, days)

	var deals []models.Deal
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_end_date IS NOT NULL AND scheduled_end_date BETWEEN ? AND ?",
			models.DealStatusActive, now, cutoff).
		Find(&deals).Error
	return deals, err
}

// ListDealsEndedToday returns active deals whose scheduled end date falls on
// the given day, candidates for the nightly completion sweep.
func (s *dealService) ListDealsEndedToday(ctx context.Context, now time.Time) ([]models.Deal, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var deals []models.Deal
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_end_date >= ? AND scheduled_end_date < ?",
			models.DealStatusActive, dayStart, dayEnd).
		Find(&deals).Error
	return deals, err
}

// dealParties returns the deal's participants excluding the acting user, for
// counter-party notifications.
func dealParties(deal *models.Deal, except string) []string {
	var parties []string
	if deal.AuthorID != "" && deal.AuthorID != except {
		parties = append(parties, deal.AuthorID)
	}
	if deal.InvestorID != nil && *deal.InvestorID != except {
		parties = append(parties, *deal.InvestorID)
	}
	return parties
}
