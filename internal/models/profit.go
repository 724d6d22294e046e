package models

import "time"

// DealProfit is one profit-distribution period's reconciliation for a deal.
// Amounts are minor units. The creating logic guarantees
// InvestorShare + OwnerShare + PlatformFee == NetProfit exactly.
type DealProfit struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	DealID uint `gorm:"not null;index" json:"deal_id"`

	TotalRevenue      int64 `gorm:"not null" json:"total_revenue"`
	ManufacturingCost int64 `gorm:"not null" json:"manufacturing_cost"`
	OtherCosts        int64 `gorm:"not null" json:"other_costs"`
	NetProfit         int64 `gorm:"not null" json:"net_profit"`

	InvestorShare int64 `gorm:"not null" json:"investor_share"`
	OwnerShare    int64 `gorm:"not null" json:"owner_share"`
	PlatformFee   int64 `gorm:"not null" json:"platform_fee"`

	StartDate        time.Time `gorm:"not null;index" json:"start_date"`
	EndDate          time.Time `gorm:"not null;index" json:"end_date"`
	DistributionDate time.Time `gorm:"not null" json:"distribution_date"`

	// IsPaid flips to true only after the payout transaction is confirmed.
	IsPaid         bool   `gorm:"default:false;index" json:"is_paid"`
	PayoutIntentID string `gorm:"index" json:"payout_intent_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
