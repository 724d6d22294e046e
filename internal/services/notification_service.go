package services

import (
	"github.com/dealdesk-io/dealdesk/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationService persists deal messages. Notifications are a best-effort
// side channel: losing one is recoverable, so NotifyBestEffort downgrades
// failures to a warning instead of failing the parent operation.
type NotificationService interface {
	Notify(message *models.DealMessage) error
	NotifyBestEffort(message *models.DealMessage)
	ListMessagesForDeal(dealID uint) ([]models.DealMessage, error)
	ListUnreadForUser(userID string) ([]models.DealMessage, error)
	MarkRead(messageID uint) error
}

type notificationService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(db *gorm.DB, logger *zap.Logger) NotificationService {
	return &notificationService{db: db, logger: logger}
}

func (s *notificationService) Notify(message *models.DealMessage) error {
	if message.MessageType == "" {
		message.MessageType = models.MessageTypeGeneral
	}
	return s.db.Create(message).Error
}

func (s *notificationService) NotifyBestEffort(message *models.DealMessage) {
	if err := s.Notify(message); err != nil {
		s.logger.Warn("failed to deliver deal notification",
			zap.Uint("deal_id", message.DealID),
			zap.String("recipient_id", message.RecipientID),
			zap.Error(err))
	}
}

func (s *notificationService) ListMessagesForDeal(dealID uint) ([]models.DealMessage, error) {
	var messages []models.DealMessage
	err := s.db.Where("deal_id = ?", dealID).Order("created_at DESC").Find(&messages).Error
	return messages, err
}

func (s *notificationService) ListUnreadForUser(userID string) ([]models.DealMessage, error) {
	var messages []models.DealMessage
	err := s.db.Where("recipient_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").Find(&messages).Error
	return messages, err
}

func (s *notificationService) MarkRead(messageID uint) error {
	return s.db.Model(&models.DealMessage{}).
		Where("id = ?", messageID).
		Update("is_read", true).Error
}
