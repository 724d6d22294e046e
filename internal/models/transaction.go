package models

import "time"

type DealTransactionType string

const (
	TransactionTypeInitialInvestment DealTransactionType = "initial_investment"
	TransactionTypeChangePayment     DealTransactionType = "change_payment"
	TransactionTypeProfitPayout      DealTransactionType = "profit_payout"
	TransactionTypeRefund            DealTransactionType = "refund"
)

// PaymentPurpose identifies what a confirmed payment intent settles. Hooks
// dispatch on it the same way the webhook handler correlates intents.
type PaymentPurpose string

const (
	PaymentPurposeInitialInvestment PaymentPurpose = "initial_investment"
	PaymentPurposeChangeSettlement  PaymentPurpose = "change_settlement"
	PaymentPurposeChangeRefund      PaymentPurpose = "change_refund"
	PaymentPurposeProfitPayout      PaymentPurpose = "profit_payout"
)

// DealTransaction is an append-only ledger entry for money movement tied to a
// deal. Rows are never updated or deleted except via cascade with the deal.
type DealTransaction struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	DealID uint `gorm:"not null;index" json:"deal_id"`

	Amount int64               `gorm:"not null" json:"amount"`
	Type   DealTransactionType `gorm:"not null" json:"type"`

	// TransactionID is the payment processor's identifier for the movement.
	TransactionID string `gorm:"index" json:"transaction_id"`
	Description   string `gorm:"type:text" json:"description,omitempty"`

	TransactionDate time.Time `gorm:"not null" json:"transaction_date"`
	CreatedAt       time.Time `json:"created_at"`
}
