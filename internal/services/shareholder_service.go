package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "captable/internal/errors"
	"captable/internal/models"
	"captable/internal/pagination"
)

// shareholderService handles shareholder-related business logic.
type shareholderService struct {
	db             *gorm.DB
	companyService CompanyServicer
}

// NewShareholderService creates a new ShareholderServicer.
func NewShareholderService(db *gorm.DB, companyService CompanyServicer) ShareholderServicer {
	return &shareholderService{db: db, companyService: companyService}
}

// CreateShareholder registers a new shareholder for a company.
func (s *shareholderService) CreateShareholder(companyID, name string, kind models.ShareholderKind, email, countryCode, taxID string) (*models.Shareholder, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "shareholder name is required")
	}
	if _, err := s.companyService.GetActiveCompany(companyID); err != nil {
		return nil, err
	}

	shareholder := &models.Shareholder{
		CompanyID:   companyID,
		Name:        name,
		Kind:        kind,
		Status:      models.ShareholderStatusActive,
		Email:       email,
		CountryCode: countryCode,
		TaxID:       taxID,
	}
	if err := s.db.Create(shareholder).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return shareholder, nil
}

// GetShareholderByID retrieves a shareholder scoped to a company.
func (s *shareholderService) GetShareholderByID(companyID, shareholderID string) (*models.Shareholder, error) {
	var shareholder models.Shareholder
	if err := s.db.Where("id = ? AND company_id = ?", shareholderID, companyID).First(&shareholder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrShareholderNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &shareholder, nil
}

// GetCompanyShareholders returns a paginated list of a company's shareholders.
func (s *shareholderService) GetCompanyShareholders(companyID string, page pagination.PageRequest) (*pagination.PageResponse[models.Shareholder], error) {
	if _, err := s.companyService.GetCompanyByID(companyID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Shareholder{}).Where("company_id = ?", companyID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var shareholders []models.Shareholder
	if err := base.Scopes(pagination.Paginate(page)).
		Order("name ASC").
		Find(&shareholders).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(shareholders, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateShareholderStatus activates or deactivates a shareholder.
func (s *shareholderService) UpdateShareholderStatus(companyID, shareholderID string, status models.ShareholderStatus) (*models.Shareholder, error) {
	shareholder, err := s.GetShareholderByID(companyID, shareholderID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(shareholder).Update("status", status).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return shareholder, nil
}
