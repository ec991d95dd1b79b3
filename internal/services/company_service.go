package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "captable/internal/errors"
	"captable/internal/models"
)

// companyService handles company-related business logic.
type companyService struct {
	db *gorm.DB
}

// NewCompanyService creates a new CompanyServicer.
func NewCompanyService(db *gorm.DB) CompanyServicer {
	return &companyService{db: db}
}

// CreateCompany creates a company in active status.
func (s *companyService) CreateCompany(name, legalName, countryCode string) (*models.Company, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "company name is required")
	}

	company := &models.Company{
		Name:        name,
		LegalName:   legalName,
		CountryCode: countryCode,
		Status:      models.CompanyStatusActive,
	}
	if err := s.db.Create(company).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return company, nil
}

// GetCompanyByID retrieves a company by ID.
func (s *companyService) GetCompanyByID(id string) (*models.Company, error) {
	var company models.Company
	if err := s.db.First(&company, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCompanyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &company, nil
}

// GetActiveCompany retrieves a company and requires it to be active.
// Ledger-mutating operations go through this check.
func (s *companyService) GetActiveCompany(id string) (*models.Company, error) {
	company, err := s.GetCompanyByID(id)
	if err != nil {
		return nil, err
	}
	if !company.IsActive() {
		return nil, apperrors.ErrCompanyNotActive
	}
	return company, nil
}

// UpdateCompanyStatus moves a company to a new lifecycle status.
func (s *companyService) UpdateCompanyStatus(id string, status models.CompanyStatus) (*models.Company, error) {
	company, err := s.GetCompanyByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(company).Update("status", status).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return company, nil
}
