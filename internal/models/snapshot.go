package models

import (
	"time"

	"captable/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Snapshot trigger labels.
const (
	SnapshotTriggerManual               = "manual"
	SnapshotTriggerTransactionConfirmed = "transaction_confirmed"
)

// SnapshotEntry is one line of a captured cap table.
type SnapshotEntry struct {
	ShareholderID string          `json:"shareholder_id"`
	ShareClassID  string          `json:"share_class_id"`
	Shares        decimal.Decimal `json:"shares"`
	OwnershipPct  decimal.Decimal `json:"ownership_pct"`
}

// CapTableSnapshot is an immutable, hashed record of the cap table's state
// at a point in time. No Base embed, no soft deletes.
type CapTableSnapshot struct {
	ID           string          `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID    string          `gorm:"type:uuid;not null;index" json:"company_id"`
	SnapshotDate time.Time       `gorm:"not null;index" json:"snapshot_date"`
	Entries      string          `gorm:"type:text;not null" json:"-"`
	TotalShares  decimal.Decimal `gorm:"type:numeric(30,6);not null" json:"total_shares"`
	Trigger      string          `gorm:"not null" json:"trigger"`
	Notes        string          `json:"notes,omitempty"`
	ContentHash  string          `gorm:"size:64;not null" json:"content_hash"`
	CreatedAt    time.Time       `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (s *CapTableSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New()
	}
	return nil
}
