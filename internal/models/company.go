package models

// CompanyStatus represents the lifecycle status of a company.
type CompanyStatus string

const (
	CompanyStatusActive    CompanyStatus = "active"
	CompanyStatusSuspended CompanyStatus = "suspended"
	CompanyStatusClosed    CompanyStatus = "closed"
)

// Company is the issuer whose cap table is managed.
type Company struct {
	Base
	Name        string        `gorm:"not null" json:"name"`
	LegalName   string        `json:"legal_name"`
	CountryCode string        `gorm:"size:2" json:"country_code"`
	Status      CompanyStatus `gorm:"not null;default:active" json:"status"`
}

// IsActive reports whether ledger-mutating operations are permitted.
func (c *Company) IsActive() bool {
	return c.Status == CompanyStatusActive
}
