package models

import "github.com/shopspring/decimal"

// ShareClassKind represents the category of equity a class carries.
type ShareClassKind string

const (
	ShareClassKindCommon    ShareClassKind = "common"
	ShareClassKindPreferred ShareClassKind = "preferred"
	ShareClassKindQuota     ShareClassKind = "quota"
)

// ShareClass is a category of equity with its own authorization limit and
// voting weight. TotalIssued must never exceed TotalAuthorized and always
// equals the sum of all shareholding quantities for the class.
type ShareClass struct {
	Base
	CompanyID       string          `gorm:"type:uuid;not null;index" json:"company_id"`
	Name            string          `gorm:"not null" json:"name"`
	Kind            ShareClassKind  `gorm:"not null" json:"kind"`
	VotesPerShare   decimal.Decimal `gorm:"type:numeric(30,6);not null" json:"votes_per_share"`
	TotalAuthorized decimal.Decimal `gorm:"type:numeric(30,6);not null" json:"total_authorized"`
	TotalIssued     decimal.Decimal `gorm:"type:numeric(30,6);not null" json:"total_issued"`

	// Optional lock-up period in months applied to transfers out of
	// holdings in this class, counted from the holding's creation.
	LockUpMonths *int `json:"lock_up_months,omitempty"`

	// Conversion / anti-dilution metadata, carried for reporting only.
	ConversionRatio   *decimal.Decimal `gorm:"type:numeric(30,6)" json:"conversion_ratio,omitempty"`
	AntiDilutionClause string          `json:"anti_dilution_clause,omitempty"`

	Company Company `gorm:"foreignKey:CompanyID" json:"-"`
}

// Remaining returns the number of shares still available to issue.
func (sc *ShareClass) Remaining() decimal.Decimal {
	return sc.TotalAuthorized.Sub(sc.TotalIssued)
}
