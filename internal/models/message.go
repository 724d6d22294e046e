package models

import "time"

type MessageType string

const (
	MessageTypeGeneral            MessageType = "general"
	MessageTypeStatusChange       MessageType = "status_change"
	MessageTypeChangeRequest      MessageType = "change_request"
	MessageTypeDeleteRequest      MessageType = "delete_request"
	MessageTypeProfitDistribution MessageType = "profit_distribution"
)

// DealMessage is a communication tied to a deal between sender and recipient,
// optionally correlated to the change/delete request or profit distribution
// it notifies about. Cascade-deletes with its deal.
type DealMessage struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	DealID      uint   `gorm:"not null;index" json:"deal_id"`
	SenderID    string `gorm:"type:varchar(255);not null" json:"sender_id"`
	RecipientID string `gorm:"type:varchar(255);not null;index" json:"recipient_id"`

	Text        string      `gorm:"type:text;not null" json:"text"`
	MessageType MessageType `gorm:"default:general" json:"message_type"`
	IsRead      bool        `gorm:"default:false" json:"is_read"`

	ChangeRequestID *uint `json:"change_request_id,omitempty"`
	DeleteRequestID *uint `json:"delete_request_id,omitempty"`
	ProfitID        *uint `json:"profit_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
