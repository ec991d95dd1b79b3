package models

import "github.com/shopspring/decimal"

// Shareholding is a ledger entry linking one shareholder to one share
// class with a quantity. Unique per (company, shareholder, share class);
// a holding that reaches zero quantity is deleted, never kept.
type Shareholding struct {
	Base
	CompanyID     string          `gorm:"type:uuid;not null;index;uniqueIndex:idx_holding" json:"company_id"`
	ShareholderID string          `gorm:"type:uuid;not null;uniqueIndex:idx_holding" json:"shareholder_id"`
	ShareClassID  string          `gorm:"type:uuid;not null;uniqueIndex:idx_holding" json:"share_class_id"`
	Quantity      decimal.Decimal `gorm:"type:numeric(30,6);not null" json:"quantity"`
	OwnershipPct  decimal.Decimal `gorm:"type:numeric(12,6);not null" json:"ownership_pct"`
	VotingPct     decimal.Decimal `gorm:"type:numeric(12,6);not null" json:"voting_pct"`

	Shareholder Shareholder `gorm:"foreignKey:ShareholderID" json:"shareholder"`
	ShareClass  ShareClass  `gorm:"foreignKey:ShareClassID" json:"share_class"`
}
