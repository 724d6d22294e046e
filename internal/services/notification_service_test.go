package services

import (
	"testing"

	"github.com/dealdesk-io/dealdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotificationService(t *testing.T) {
	db := setupTestDB(t)
	service := NewNotificationService(db, zap.NewNop())
	owner, investor, category := createTestParties(t, db)
	deal := createTestDeal(t, db, owner, investor, category, models.DealStatusActive)

	t.Run("defaults to the general type", func(t *testing.T) {
		message := &models.DealMessage{
			DealID:      deal.ID,
			SenderID:    owner.ID,
			RecipientID: investor.ID,
			Text:        "Shipment of the first batch is scheduled.",
		}
		require.NoError(t, service.Notify(message))
		assert.Equal(t, models.MessageTypeGeneral, message.MessageType)
	})

	t.Run("unread listing and mark read", func(t *testing.T) {
		unread, err := service.ListUnreadForUser(investor.ID)
		require.NoError(t, err)
		require.Len(t, unread, 1)

		require.NoError(t, service.MarkRead(unread[0].ID))

		unread, err = service.ListUnreadForUser(investor.ID)
		require.NoError(t, err)
		assert.Empty(t, unread)
	})

	t.Run("deal history", func(t *testing.T) {
		messages, err := service.ListMessagesForDeal(deal.ID)
		require.NoError(t, err)
		assert.Len(t, messages, 1)
	})
}
