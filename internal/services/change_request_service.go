package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dealdesk-io/dealdesk/internal/models"
	"gorm.io/gorm"
)

// DealChangeValues carries the fields a change request may modify. Nil
// pointers leave the current value untouched.
type DealChangeValues struct {
	OfferMoney        *int64   `json:"offer_money,omitempty"`
	OfferDeal         *float64 `json:"offer_deal,omitempty" validate:"omitempty,gte=0,lte=100"`
	EstimatedPrice    *int64   `json:"estimated_price,omitempty"`
	ManufacturingCost *int64   `json:"manufacturing_cost,omitempty"`
	DurationMonths    *int     `json:"duration_months,omitempty" validate:"omitempty,gte=1"`
	AutoRenew         *bool    `json:"auto_renew,omitempty"`
}

type ChangeRequestService interface {
	ProposeChange(dealID uint, requesterID string, changes DealChangeValues, notes string) (*models.DealChangeRequest, error)
	RespondToChangeRequest(requestID uint, approverID string, approve bool, reason string) (*models.DealChangeRequest, error)
	GetPendingRequestForDeal(dealID uint) (*models.DealChangeRequest, error)
	GetChangeRequestByID(requestID uint) (*models.DealChangeRequest, error)
}

type changeRequestService struct {
	db       *gorm.DB
	notifier NotificationService
}

// NewChangeRequestService creates a new ChangeRequestService
func NewChangeRequestService(db *gorm.DB, notifier NotificationService) ChangeRequestService {
	return &changeRequestService{db: db, notifier: notifier}
}

// snapshotDealTerms captures the financially relevant deal fields for the
// request's before/after record.
func snapshotDealTerms(deal *models.Deal) models.JSON {
	return models.JSON{
		"offer_money":        deal.OfferMoney,
		"offer_deal":         deal.OfferDeal,
		"estimated_price":    deal.EstimatedPrice,
		"manufacturing_cost": deal.ManufacturingCost,
		"duration_months":    deal.DurationMonths,
		"auto_renew":         deal.AutoRenew,
	}
}

func applyChangeValues(snapshot models.JSON, changes DealChangeValues) models.JSON {
	requested := models.JSON{}
	for k, v := range snapshot {
		requested[k] = v
	}
	if changes.OfferMoney != nil {
		requested["offer_money"] = *changes.OfferMoney
	}
	if changes.OfferDeal != nil {
		requested["offer_deal"] = *changes.OfferDeal
	}
	if changes.EstimatedPrice != nil {
		requested["estimated_price"] = *changes.EstimatedPrice
	}
	if changes.ManufacturingCost != nil {
		requested["manufacturing_cost"] = *changes.ManufacturingCost
	}
	if changes.DurationMonths != nil {
		requested["duration_months"] = *changes.DurationMonths
	}
	if changes.AutoRenew != nil {
		requested["auto_renew"] = *changes.AutoRenew
	}
	return requested
}

// jsonInt64 reads a numeric snapshot field. Values round-trip through JSON
// so they come back as float64.
func jsonInt64(m models.JSON, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func jsonFloat64(m models.JSON, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func jsonBool(m models.JSON, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// ProposeChange records a proposed modification to an active deal. The
// existence check and insert run in one transaction so two concurrent
// proposals cannot both pass the at-most-one-pending gate.
func (s *changeRequestService) ProposeChange(dealID uint, requesterID string, changes DealChangeValues, notes string) (*models.DealChangeRequest, error) {
	var request *models.DealChangeRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var deal models.Deal
		if err := tx.First(&deal, dealID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrDealNotFound
			}
			return err
		}
		if deal.AuthorID != requesterID && (deal.InvestorID == nil || *deal.InvestorID != requesterID) {
			return models.ErrNotAuthorized
		}
		if deal.Status != models.DealStatusActive {
			return models.ErrDealNotActive
		}

		var pending int64
		if err := tx.Model(&models.DealChangeRequest{}).
			Where("deal_id = ? AND status = ?", dealID, models.RequestStatusPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return models.ErrChangeRequestPending
		}

		original := snapshotDealTerms(&deal)
		request = &models.DealChangeRequest{
			DealID:          dealID,
			RequestedByID:   requesterID,
			OriginalValues:  original,
			RequestedValues: applyChangeValues(original, changes),
			Status:          models.RequestStatusPending,
			Notes:           notes,
		}
		return tx.Create(request).Error
	})
	if err != nil {
		return nil, err
	}

	return request, nil
}

// RespondToChangeRequest resolves a pending request. Only the counter-party
// or an administrator may respond; the requester cannot approve their own
// request. Approval applies the requested values to the deal and flags a
// settlement payment when the investor's capital requirement changed.
// Responding twice fails with ErrRequestNotPending.
func (s *changeRequestService) RespondToChangeRequest(requestID uint, approverID string, approve bool, reason string) (*models.DealChangeRequest, error) {
	var request models.DealChangeRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrRequestNotFound
			}
			return err
		}
		if request.Status != models.RequestStatusPending {
			return models.ErrRequestNotPending
		}

		var deal models.Deal
		if err := tx.First(&deal, request.DealID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrDealNotFound
			}
			return err
		}
		if approverID == request.RequestedByID || !isDealActor(tx, &deal, approverID) {
			return models.ErrNotAuthorized
		}

		now := time.Now()
		status := models.RequestStatusRejected
		if approve {
			status = models.RequestStatusApproved
		}

		if approve {
			// The deal may have ended between proposal and response.
			if deal.Status != models.DealStatusActive {
				return models.ErrDealNotActive
			}

			// The cost basis is the investor's capital commitment; a non-zero
			// delta between the snapshots requires a settlement payment or
			// refund before the change is financially complete. A settlement
			// intent from an earlier change must not survive into this one.
			diff := jsonInt64(request.RequestedValues, "offer_money") - jsonInt64(request.OriginalValues, "offer_money")

			updates := map[string]interface{}{
				"offer_money":                 jsonInt64(request.RequestedValues, "offer_money"),
				"offer_deal":                  jsonFloat64(request.RequestedValues, "offer_deal"),
				"estimated_price":             jsonInt64(request.RequestedValues, "estimated_price"),
				"manufacturing_cost":          jsonInt64(request.RequestedValues, "manufacturing_cost"),
				"duration_months":             jsonInt64(request.RequestedValues, "duration_months"),
				"auto_renew":                  jsonBool(request.RequestedValues, "auto_renew"),
				"change_amount_difference":    diff,
				"is_change_payment_required":  diff != 0,
				"is_change_payment_processed": false,
				"change_payment_intent_id":    "",
			}
			if err := ApplyVersionedUpdates(tx, &deal, updates); err != nil {
				return err
			}
		}

		if err := tx.Model(&request).Updates(map[string]interface{}{
			"status":        status,
			"responded_by":  approverID,
			"responded_at":  now,
			"response_note": reason,
		}).Error; err != nil {
			return err
		}
		request.Status = status
		request.RespondedBy = approverID
		request.RespondedAt = &now
		request.ResponseNote = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	verdict := "rejected"
	if approve {
		verdict = "approved"
	}
	s.notifier.NotifyBestEffort(&models.DealMessage{
		DealID:          request.DealID,
		SenderID:        approverID,
		RecipientID:     request.RequestedByID,
		Text:            fmt.Sprintf("Your change request was %s.", verdict),
		MessageType:     models.MessageTypeChangeRequest,
		ChangeRequestID: &request.ID,
	})

	return &request, nil
}

// GetPendingRequestForDeal returns the single pending request for a deal.
// Callers rely on this cardinality; the propose path guarantees it.
func (s *changeRequestService) GetPendingRequestForDeal(dealID uint) (*models.DealChangeRequest, error) {
	var request models.DealChangeRequest
	err := s.db.
		Where("deal_id = ? AND status = ?", dealID, models.RequestStatusPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (s *changeRequestService) GetChangeRequestByID(requestID uint) (*models.DealChangeRequest, error) {
	var request models.DealChangeRequest
	err := s.db.First(&request, requestID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}
