package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dealdesk-io/dealdesk/internal/models"
	"gorm.io/gorm"
)

type DeleteRequestService interface {
	ProposeDelete(dealID uint, requesterID, reason string) (*models.DealDeleteRequest, error)
	RespondToDeleteRequest(requestID uint, approverID string, approve bool, note string) (*models.DealDeleteRequest, error)
	GetPendingRequestForDeal(dealID uint) (*models.DealDeleteRequest, error)
}

type deleteRequestService struct {
	db       *gorm.DB
	notifier NotificationService
}

// NewDeleteRequestService creates a new DeleteRequestService
func NewDeleteRequestService(db *gorm.DB, notifier NotificationService) DeleteRequestService {
	return &deleteRequestService{db: db, notifier: notifier}
}

// ProposeDelete records a termination intent for a deal. Check and insert
// run in one transaction to keep at most one pending request per deal.
func (s *deleteRequestService) ProposeDelete(dealID uint, requesterID, reason string) (*models.DealDeleteRequest, error) {
	var request *models.DealDeleteRequest

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
		if deal.Status.IsTerminal() {
			return fmt.Errorf("deal already ended: %w", models.ErrInvalidStateTransition)
		}

		var pending int64
		if err := tx.Model(&models.DealDeleteRequest{}).
			Where("deal_id = ? AND status = ?", dealID, models.RequestStatusPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return models.ErrDeleteRequestPending
		}

		request = &models.DealDeleteRequest{
			DealID:        dealID,
			RequestedByID: requesterID,
			Status:        models.RequestStatusPending,
			Reason:        reason,
		}
		return tx.Create(request).Error
	})
	if err != nil {
		return nil, err
	}

	return request, nil
}

// RespondToDeleteRequest resolves a pending delete request. Only the
// counter-party or an administrator may respond. Approval and the deal's
// Terminated transition commit together: if the deal cannot terminate, the
// request stays pending and the response can be retried.
func (s *deleteRequestService) RespondToDeleteRequest(requestID uint, approverID string, approve bool, note string) (*models.DealDeleteRequest, error) {
	var request models.DealDeleteRequest
	var deal models.Deal

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

		if err := tx.First(&deal, request.DealID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrDealNotFound
			}
			return err
		}
		if approverID == request.RequestedByID || !isDealActor(tx, &deal, approverID) {
			return models.ErrNotAuthorized
		}

		status := models.RequestStatusRejected
		if approve {
			status = models.RequestStatusApproved
		}

		now := time.Now()
		if err := tx.Model(&request).Updates(map[string]interface{}{
			"status":        status,
			"responded_by":  approverID,
			"responded_at":  now,
			"response_note": note,
		}).Error; err != nil {
			return err
		}
		request.Status = status
		request.RespondedBy = approverID
		request.RespondedAt = &now
		request.ResponseNote = note

		if approve {
			if !deal.Status.CanTransitionTo(models.DealStatusTerminated) {
				return fmt.Errorf("%s -> %s: %w", deal.Status, models.DealStatusTerminated, models.ErrInvalidStateTransition)
			}
			reason := request.Reason
			if reason == "" {
				reason = "termination request approved"
			}
			if err := ApplyVersionedUpdates(tx, &deal, map[string]interface{}{
				"status":          models.DealStatusTerminated,
				"deal_end_reason": reason,
			}); err != nil {
				return err
			}
			deal.Status = models.DealStatusTerminated
			deal.DealEndReason = reason
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if approve {
		for _, recipient := range dealParties(&deal, approverID) {
			s.notifier.NotifyBestEffort(&models.DealMessage{
				DealID:          request.DealID,
				SenderID:        approverID,
				RecipientID:     recipient,
				Text:            fmt.Sprintf("The deal was terminated: %s", deal.DealEndReason),
				MessageType:     models.MessageTypeStatusChange,
				DeleteRequestID: &request.ID,
			})
		}
	} else {
		s.notifier.NotifyBestEffort(&models.DealMessage{
			DealID:          request.DealID,
			SenderID:        approverID,
			RecipientID:     request.RequestedByID,
			Text:            "Your termination request was rejected.",
			MessageType:     models.MessageTypeDeleteRequest,
			DeleteRequestID: &request.ID,
		})
	}

	return &request, nil
}

// GetPendingRequestForDeal returns the single pending delete request.
func (s *deleteRequestService) GetPendingRequestForDeal(dealID uint) (*models.DealDeleteRequest, error) {
	var request models.DealDeleteRequest
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
