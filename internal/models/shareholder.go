package models

// ShareholderKind distinguishes natural persons from legal entities.
type ShareholderKind string

const (
	ShareholderKindIndividual ShareholderKind = "individual"
	ShareholderKindEntity     ShareholderKind = "entity"
)

// ShareholderStatus represents the lifecycle status of a shareholder.
type ShareholderStatus string

const (
	ShareholderStatusActive   ShareholderStatus = "active"
	ShareholderStatusInactive ShareholderStatus = "inactive"
)

// Shareholder represents a party that can hold shares in a company.
type Shareholder struct {
	Base
	CompanyID   string            `gorm:"type:uuid;not null;index" json:"company_id"`
	Name        string            `gorm:"not null" json:"name"`
	Kind        ShareholderKind   `gorm:"not null" json:"kind"`
	Status      ShareholderStatus `gorm:"not null;default:active" json:"status"`
	Email       string            `json:"email,omitempty"`
	CountryCode string            `gorm:"size:2" json:"country_code,omitempty"`
	TaxID       string            `json:"-"`

	Company Company `gorm:"foreignKey:CompanyID" json:"-"`
}

// IsActive reports whether the shareholder can take part in transactions.
func (s *Shareholder) IsActive() bool {
	return s.Status == ShareholderStatusActive
}
