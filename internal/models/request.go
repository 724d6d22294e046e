package models

import (
	"time"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// DealChangeRequest is a proposed modification to an in-flight deal. At most
// one pending request may exist per deal; the propose path enforces that
// inside a transaction.
type DealChangeRequest struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	DealID        uint   `gorm:"not null;index" json:"deal_id"`
	RequestedByID string `gorm:"type:varchar(255);not null" json:"requested_by_id"`

	// OriginalValues snapshots the financially relevant deal fields at
	// proposal time; RequestedValues holds the proposed replacements.
	OriginalValues  JSON `gorm:"type:text" json:"original_values"`
	RequestedValues JSON `gorm:"type:text" json:"requested_values"`

	Status       RequestStatus `gorm:"default:pending;index" json:"status"`
	Notes        string        `gorm:"type:text" json:"notes,omitempty"`
	ResponseNote string        `gorm:"type:text" json:"response_note,omitempty"`
	RespondedBy  string        `gorm:"type:varchar(255)" json:"responded_by,omitempty"`
	RespondedAt  *time.Time    `json:"responded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DealDeleteRequest mirrors the change-request shape but carries a binary
// termination intent only.
type DealDeleteRequest struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	DealID        uint   `gorm:"not null;index" json:"deal_id"`
	RequestedByID string `gorm:"type:varchar(255);not null" json:"requested_by_id"`

	Status       RequestStatus `gorm:"default:pending;index" json:"status"`
	Reason       string        `gorm:"type:text" json:"reason,omitempty"`
	ResponseNote string        `gorm:"type:text" json:"response_note,omitempty"`
	RespondedBy  string        `gorm:"type:varchar(255)" json:"responded_by,omitempty"`
	RespondedAt  *time.Time    `json:"responded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
