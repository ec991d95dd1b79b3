package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement records a payment leg attached to a confirmed transaction.
type Settlement struct {
	Base
	TransactionID string          `gorm:"type:uuid;not null;index" json:"transaction_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(30,6);not null" json:"amount"`
	Currency      string          `gorm:"size:3;not null" json:"currency"`
	Method        string          `json:"method,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	SettledAt     time.Time       `gorm:"not null" json:"settled_at"`
}
