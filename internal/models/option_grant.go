package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OptionGrantStatus represents the lifecycle status of an option grant.
type OptionGrantStatus string

const (
	OptionGrantStatusActive    OptionGrantStatus = "active"
	OptionGrantStatusExercised OptionGrantStatus = "exercised"
	OptionGrantStatusCancelled OptionGrantStatus = "cancelled"
)

// OptionGrant is a time-vested right to acquire shares of a class.
// Invariant: QuantityExercised <= vested(now) <= Quantity.
type OptionGrant struct {
	Base
	CompanyID         string            `gorm:"type:uuid;not null;index" json:"company_id"`
	ShareholderID     string            `gorm:"type:uuid;not null;index" json:"shareholder_id"`
	ShareClassID      string            `gorm:"type:uuid;not null" json:"share_class_id"`
	Quantity          decimal.Decimal   `gorm:"type:numeric(30,6);not null" json:"quantity"`
	QuantityExercised decimal.Decimal   `gorm:"type:numeric(30,6);not null" json:"quantity_exercised"`
	StrikePrice       *decimal.Decimal  `gorm:"type:numeric(30,6)" json:"strike_price,omitempty"`
	GrantDate         time.Time         `gorm:"not null" json:"grant_date"`
	CliffMonths       int               `gorm:"not null" json:"cliff_months"`
	VestingMonths     int               `gorm:"not null" json:"vesting_months"`
	CliffPct          decimal.Decimal   `gorm:"type:numeric(12,6);not null" json:"cliff_pct"`
	Status            OptionGrantStatus `gorm:"not null;default:active" json:"status"`

	Shareholder Shareholder `gorm:"foreignKey:ShareholderID" json:"shareholder"`
	ShareClass  ShareClass  `gorm:"foreignKey:ShareClassID" json:"share_class"`
}
