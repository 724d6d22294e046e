package models

import (
	"time"

	"gorm.io/gorm"
)

type DealStatus string

const (
	DealStatusProposed      DealStatus = "proposed"
	DealStatusOwnerAccepted DealStatus = "owner_accepted"
	DealStatusAdminApproved DealStatus = "admin_approved"
	DealStatusActive        DealStatus = "active"
	DealStatusCompleted     DealStatus = "completed"
	DealStatusRejected      DealStatus = "rejected"
	DealStatusTerminated    DealStatus = "terminated"
)

// dealTransitions is the single source of truth for legal status changes.
// Rejected and Terminated are reachable from every non-terminal state via
// admin override, so they are appended below rather than listed per row.
var dealTransitions = map[DealStatus][]DealStatus{
	DealStatusProposed:      {DealStatusOwnerAccepted},
	DealStatusOwnerAccepted: {DealStatusAdminApproved},
	DealStatusAdminApproved: {DealStatusActive},
	DealStatusActive:        {DealStatusCompleted},
	DealStatusCompleted:     {},
	DealStatusRejected:      {},
	DealStatusTerminated:    {},
}

// IsTerminal reports whether no further transition is allowed from s.
func (s DealStatus) IsTerminal() bool {
	switch s {
	case DealStatusCompleted, DealStatusRejected, DealStatusTerminated:
		return true
	}
	return false
}

// CanTransitionTo checks the transition table. Any non-terminal state may
// move to Rejected or Terminated.
func (s DealStatus) CanTransitionTo(to DealStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if to == DealStatusRejected || to == DealStatusTerminated {
		return true
	}
	for _, next := range dealTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ActiveDealStatuses is the set treated as "active" by the has-active-deal
// check that blocks a second concurrent deal between the same parties.
func ActiveDealStatuses() []DealStatus {
	return []DealStatus{DealStatusOwnerAccepted, DealStatusAdminApproved, DealStatusActive}
}

// Deal is an investment offer between a business owner (author) and an
// investor on a prospective product. All money amounts are stored in the
// currency's minor unit (cents).
type Deal struct {
	ID uint `gorm:"primaryKey" json:"id"`

	AuthorID   string  `gorm:"index;type:varchar(255);not null" json:"author_id"`
	InvestorID *string `gorm:"index;type:varchar(255)" json:"investor_id,omitempty"`
	CategoryID uint    `gorm:"not null" json:"category_id"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	// Commercial terms. OfferDeal and PlatformFeePercentage are percentages
	// in [0,100].
	OfferMoney            int64   `gorm:"not null" json:"offer_money"`
	OfferDeal             float64 `gorm:"not null" json:"offer_deal"`
	ManufacturingCost     int64   `json:"manufacturing_cost"`
	EstimatedPrice        int64   `json:"estimated_price"`
	PlatformFeePercentage float64 `gorm:"default:1" json:"platform_fee_percentage"`

	Status     DealStatus `gorm:"default:proposed;index" json:"status"`
	IsApproved bool       `gorm:"default:false" json:"is_approved"`
	IsVisible  bool       `gorm:"default:true" json:"is_visible"`

	RejectionReason string `json:"rejection_reason,omitempty"`
	DealEndReason   string `json:"deal_end_reason,omitempty"`

	ScheduledEndDate *time.Time `gorm:"index" json:"scheduled_end_date,omitempty"`
	DurationMonths   int        `json:"duration_months"`
	AutoRenew        bool       `gorm:"default:false" json:"auto_renew"`

	PaymentIntentID    string `gorm:"index" json:"payment_intent_id,omitempty"`
	IsPaymentProcessed bool   `gorm:"default:false" json:"is_payment_processed"`

	IsChangePaymentRequired  bool   `gorm:"default:false" json:"is_change_payment_required"`
	IsChangePaymentProcessed bool   `gorm:"default:false" json:"is_change_payment_processed"`
	ChangePaymentIntentID    string `gorm:"index" json:"change_payment_intent_id,omitempty"`
	ChangeAmountDifference   int64  `json:"change_amount_difference"`
	LastProcessedPaymentHash string `json:"last_processed_payment_hash,omitempty"`

	ContractVersion         int        `gorm:"default:1;check:contract_version >= 1" json:"contract_version"`
	LastContractGeneratedAt *time.Time `json:"last_contract_generated_at,omitempty"`
	ContractDocumentURL     string     `json:"contract_document_url,omitempty"`
	ContractDocumentHash    string     `json:"contract_document_hash,omitempty"`
	PreviousContractDocURL  string     `json:"previous_contract_document_url,omitempty"`

	ProductID         *uint `json:"product_id,omitempty"`
	IsReadyForProduct bool  `gorm:"default:false" json:"is_ready_for_product"`
	IsProductCreated  bool  `gorm:"default:false" json:"is_product_created"`

	// Version is the optimistic-concurrency token. Every mutation must go
	// through a version-checked update; a stale write fails with
	// ErrConcurrentModification.
	Version uint `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Category Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	Author   User     `gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:RESTRICT" json:"author,omitempty"`
	Investor *User    `gorm:"foreignKey:InvestorID;references:ID;constraint:OnDelete:RESTRICT" json:"investor,omitempty"`
	Product  *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	ChangeRequest *DealChangeRequest `gorm:"foreignKey:DealID" json:"change_request,omitempty"`
	DeleteRequest *DealDeleteRequest `gorm:"foreignKey:DealID" json:"delete_request,omitempty"`

	Messages     []DealMessage     `gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	Profits      []DealProfit      `gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE" json:"profits,omitempty"`
	Transactions []DealTransaction `gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
}

// RoleAdmin marks platform administrators, who may override party-level
// transition gates.
const RoleAdmin = "admin"

// User is the party record referenced by deals. Deletion is restricted while
// deals exist.
type User struct {
	ID        string         `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Name      string         `gorm:"not null" json:"name"`
	Role      string         `gorm:"default:customer" json:"role"` // customer, owner, investor, admin
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is the sellable article a deal converts into once it is active and
// ready.
type Product struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	CategoryID uint      `gorm:"not null" json:"category_id"`
	OwnerID    string    `gorm:"index;type:varchar(255);not null" json:"owner_id"`
	Price      int64     `gorm:"not null" json:"price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Category Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
}
