package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "captable/internal/errors"
	"captable/internal/models"
	"captable/internal/pagination"
)

// shareClassService handles share-class-related business logic.
type shareClassService struct {
	db             *gorm.DB
	companyService CompanyServicer
}

// NewShareClassService creates a new ShareClassServicer.
func NewShareClassService(db *gorm.DB, companyService CompanyServicer) ShareClassServicer {
	return &shareClassService{db: db, companyService: companyService}
}

// CreateShareClass creates a share class with zero issued shares.
func (s *shareClassService) CreateShareClass(companyID string, input CreateShareClassInput) (*models.ShareClass, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "share class name is required")
	}
	if !input.TotalAuthorized.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "total authorized must be greater than zero")
	}
	if input.VotesPerShare.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "votes per share cannot be negative")
	}
	if input.LockUpMonths != nil && *input.LockUpMonths < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "lock-up months cannot be negative")
	}
	if _, err := s.companyService.GetActiveCompany(companyID); err != nil {
		return nil, err
	}

	class := &models.ShareClass{
		CompanyID:       companyID,
		Name:            input.Name,
		Kind:            input.Kind,
		VotesPerShare:   input.VotesPerShare,
		TotalAuthorized: input.TotalAuthorized,
		TotalIssued:     decimal.Zero,
		LockUpMonths:    input.LockUpMonths,
		ConversionRatio: input.ConversionRatio,
	}
	if err := s.db.Create(class).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return class, nil
}

// GetShareClassByID retrieves a share class scoped to a company.
func (s *shareClassService) GetShareClassByID(companyID, classID string) (*models.ShareClass, error) {
	var class models.ShareClass
	if err := s.db.Where("id = ? AND company_id = ?", classID, companyID).First(&class).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrShareClassNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &class, nil
}

// GetCompanyShareClasses returns a paginated list of a company's share classes.
func (s *shareClassService) GetCompanyShareClasses(companyID string, page pagination.PageRequest) (*pagination.PageResponse[models.ShareClass], error) {
	if _, err := s.companyService.GetCompanyByID(companyID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.ShareClass{}).Where("company_id = ?", companyID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var classes []models.ShareClass
	if err := base.Scopes(pagination.Paginate(page)).
		Order("name ASC").
		Find(&classes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(classes, page.Page, page.PageSize, totalItems)
	return &result, nil
}
