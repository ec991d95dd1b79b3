package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of ownership mutation a transaction performs.
type TransactionType string

const (
	TransactionTypeIssuance     TransactionType = "ISSUANCE"
	TransactionTypeTransfer     TransactionType = "TRANSFER"
	TransactionTypeCancellation TransactionType = "CANCELLATION"
	TransactionTypeConversion   TransactionType = "CONVERSION"
	TransactionTypeSplit        TransactionType = "SPLIT"
)

// TransactionStatus represents where a transaction sits in its lifecycle.
type TransactionStatus string

const (
	TransactionStatusDraft           TransactionStatus = "DRAFT"
	TransactionStatusPendingApproval TransactionStatus = "PENDING_APPROVAL"
	TransactionStatusSubmitted       TransactionStatus = "SUBMITTED"
	TransactionStatusConfirmed       TransactionStatus = "CONFIRMED"
	TransactionStatusFailed          TransactionStatus = "FAILED"
	TransactionStatusCancelled       TransactionStatus = "CANCELLED"
)

// statusTransitions is the allowed status graph. CONFIRMED and CANCELLED
// are terminal.
var statusTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusDraft:           {TransactionStatusPendingApproval, TransactionStatusSubmitted, TransactionStatusCancelled},
	TransactionStatusPendingApproval: {TransactionStatusSubmitted, TransactionStatusCancelled},
	TransactionStatusSubmitted:       {TransactionStatusConfirmed, TransactionStatusFailed, TransactionStatusCancelled},
	TransactionStatusFailed:          {TransactionStatusSubmitted, TransactionStatusCancelled},
	TransactionStatusConfirmed:       {},
	TransactionStatusCancelled:       {},
}

// CanTransitionTo reports whether the status graph permits moving from s to target.
func (s TransactionStatus) CanTransitionTo(target TransactionStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s TransactionStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// Transaction is an ownership-changing event. It is created in DRAFT or
// PENDING_APPROVAL, mutated only through state-machine transitions, and
// becomes immutable once CONFIRMED.
type Transaction struct {
	Base
	CompanyID string            `gorm:"type:uuid;not null;index" json:"company_id"`
	Type      TransactionType   `gorm:"not null" json:"type"`
	Status    TransactionStatus `gorm:"not null;index" json:"status"`

	FromShareholderID *string         `gorm:"type:uuid" json:"from_shareholder_id,omitempty"`
	ToShareholderID   *string         `gorm:"type:uuid" json:"to_shareholder_id,omitempty"`
	ShareClassID      string          `gorm:"type:uuid;not null" json:"share_class_id"`
	Quantity          decimal.Decimal `gorm:"type:numeric(30,6);not null" json:"quantity"`
	PricePerShare     *decimal.Decimal `gorm:"type:numeric(30,6)" json:"price_per_share,omitempty"`

	// Type-specific payload columns, surfaced through Details().
	TargetShareClassID *string          `gorm:"type:uuid" json:"target_share_class_id,omitempty"`
	SplitRatio         *decimal.Decimal `gorm:"type:numeric(30,6)" json:"split_ratio,omitempty"`

	Notes            string `json:"notes,omitempty"`
	RequiresApproval bool   `json:"requires_approval"`

	CreatedBy   string     `gorm:"type:uuid;not null" json:"created_by"`
	ApprovedBy  *string    `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	CancelledBy *string    `gorm:"type:uuid" json:"cancelled_by,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`

	FromShareholder  *Shareholder `gorm:"foreignKey:FromShareholderID" json:"from_shareholder,omitempty"`
	ToShareholder    *Shareholder `gorm:"foreignKey:ToShareholderID" json:"to_shareholder,omitempty"`
	ShareClass       ShareClass   `gorm:"foreignKey:ShareClassID" json:"share_class"`
	TargetShareClass *ShareClass  `gorm:"foreignKey:TargetShareClassID" json:"target_share_class,omitempty"`
	Settlements      []Settlement `gorm:"foreignKey:TransactionID" json:"settlements,omitempty"`
}

// TotalValue returns quantity * price per share, or zero when no price is set.
func (t *Transaction) TotalValue() decimal.Decimal {
	if t.PricePerShare == nil {
		return decimal.Zero
	}
	return t.Quantity.Mul(*t.PricePerShare)
}

// TransactionDetails is the tagged per-type payload of a transaction.
// The validator and the mutation engine match it exhaustively.
type TransactionDetails interface {
	isTransactionDetails()
}

// IssuanceDetails carries the destination of newly issued shares.
type IssuanceDetails struct {
	ShareholderID string
}

// TransferDetails carries the source and destination of a transfer.
type TransferDetails struct {
	FromShareholderID string
	ToShareholderID   string
}

// CancellationDetails carries the holder whose shares are retired.
type CancellationDetails struct {
	ShareholderID string
}

// ConversionDetails carries the holder and the class shares convert into.
type ConversionDetails struct {
	ShareholderID      string
	TargetShareClassID string
}

// SplitDetails carries the multiplier applied to every holding of the class.
type SplitDetails struct {
	Ratio decimal.Decimal
}

func (IssuanceDetails) isTransactionDetails()     {}
func (TransferDetails) isTransactionDetails()     {}
func (CancellationDetails) isTransactionDetails() {}
func (ConversionDetails) isTransactionDetails()   {}
func (SplitDetails) isTransactionDetails()        {}

// Details assembles the typed payload from the transaction's columns.
// The boolean is false when required fields for the type are missing.
func (t *Transaction) Details() (TransactionDetails, bool) {
	switch t.Type {
	case TransactionTypeIssuance:
		if t.ToShareholderID == nil {
			return nil, false
		}
		return IssuanceDetails{ShareholderID: *t.ToShareholderID}, true
	case TransactionTypeTransfer:
		if t.FromShareholderID == nil || t.ToShareholderID == nil {
			return nil, false
		}
		return TransferDetails{FromShareholderID: *t.FromShareholderID, ToShareholderID: *t.ToShareholderID}, true
	case TransactionTypeCancellation:
		if t.FromShareholderID == nil {
			return nil, false
		}
		return CancellationDetails{ShareholderID: *t.FromShareholderID}, true
	case TransactionTypeConversion:
		if t.FromShareholderID == nil || t.TargetShareClassID == nil {
			return nil, false
		}
		return ConversionDetails{ShareholderID: *t.FromShareholderID, TargetShareClassID: *t.TargetShareClassID}, true
	case TransactionTypeSplit:
		if t.SplitRatio == nil {
			return nil, false
		}
		return SplitDetails{Ratio: *t.SplitRatio}, true
	}
	return nil, false
}
