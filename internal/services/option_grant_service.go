package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "captable/internal/errors"
	"captable/internal/models"
	"captable/internal/pagination"
	"captable/internal/vesting"
)

var hundredPct = decimal.NewFromInt(100)

// optionGrantService handles option-grant business logic.
type optionGrantService struct {
	db             *gorm.DB
	companyService CompanyServicer
}

// NewOptionGrantService creates a new OptionGrantServicer.
func NewOptionGrantService(db *gorm.DB, companyService CompanyServicer) OptionGrantServicer {
	return &optionGrantService{db: db, companyService: companyService}
}

// CreateGrant records a new option grant. The grant itself does not touch
// the ledger; shares enter holdings only when exercised and issued.
func (s *optionGrantService) CreateGrant(actorID string, input CreateGrantInput) (*models.OptionGrant, error) {
	if _, err := s.companyService.GetActiveCompany(input.CompanyID); err != nil {
		return nil, err
	}
	if !input.Quantity.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "grant quantity must be greater than zero")
	}
	if input.VestingMonths <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "vesting months must be greater than zero")
	}
	if input.CliffMonths < 0 || input.CliffMonths > input.VestingMonths {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "cliff months must be between zero and the vesting period")
	}
	if input.CliffPct.IsNegative() || input.CliffPct.GreaterThan(hundredPct) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "cliff percentage must be between 0 and 100")
	}

	var shareholder models.Shareholder
	if err := s.db.Where("id = ? AND company_id = ?", input.ShareholderID, input.CompanyID).
		First(&shareholder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrShareholderNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !shareholder.IsActive() {
		return nil, apperrors.ErrShareholderInactive
	}

	var class models.ShareClass
	if err := s.db.Where("id = ? AND company_id = ?", input.ShareClassID, input.CompanyID).
		First(&class).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrShareClassNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	grant := &models.OptionGrant{
		CompanyID:         input.CompanyID,
		ShareholderID:     input.ShareholderID,
		ShareClassID:      input.ShareClassID,
		Quantity:          input.Quantity,
		QuantityExercised: decimal.Zero,
		StrikePrice:       input.StrikePrice,
		GrantDate:         input.GrantDate,
		CliffMonths:       input.CliffMonths,
		VestingMonths:     input.VestingMonths,
		CliffPct:          input.CliffPct,
		Status:            models.OptionGrantStatusActive,
	}
	if err := s.db.Create(grant).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return grant, nil
}

// GetGrantByID retrieves a grant with its shareholder and share class.
func (s *optionGrantService) GetGrantByID(grantID string) (*models.OptionGrant, error) {
	var grant models.OptionGrant
	if err := s.db.Preload("Shareholder").Preload("ShareClass").
		First(&grant, "id = ?", grantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOptionGrantNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &grant, nil
}

// GetCompanyGrants returns a paginated list of a company's option grants.
func (s *optionGrantService) GetCompanyGrants(companyID string, page pagination.PageRequest) (*pagination.PageResponse[models.OptionGrant], error) {
	if _, err := s.companyService.GetCompanyByID(companyID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.OptionGrant{}).Where("company_id = ?", companyID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var grants []models.OptionGrant
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Shareholder").
		Preload("ShareClass").
		Order("grant_date DESC").
		Find(&grants).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(grants, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// VestingSummary breaks the grant's quantity down at the given time.
func (s *optionGrantService) VestingSummary(grantID string, asOf time.Time) (*VestingSummary, error) {
	grant, err := s.GetGrantByID(grantID)
	if err != nil {
		return nil, err
	}

	vested := vesting.Vested(grant.Quantity, grant.GrantDate, grant.CliffMonths, grant.VestingMonths, grant.CliffPct, asOf)
	return &VestingSummary{
		GrantID:           grant.ID,
		AsOf:              asOf,
		Quantity:          grant.Quantity,
		Vested:            vested,
		VestedUnexercised: vesting.VestedUnexercised(vested, grant.QuantityExercised),
		Unvested:          vesting.Unvested(grant.Quantity, vested),
		Exercised:         grant.QuantityExercised,
	}, nil
}

// Exercise converts vested options into exercised ones. The requested
// quantity must fit inside the vested, unexercised portion at the time of
// the call. A fully exercised grant is closed.
func (s *optionGrantService) Exercise(actorID, grantID string, quantity decimal.Decimal) (*models.OptionGrant, error) {
	if !quantity.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "exercise quantity must be greater than zero")
	}

	grant, err := s.GetGrantByID(grantID)
	if err != nil {
		return nil, err
	}
	if grant.Status != models.OptionGrantStatusActive {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "grant is not active")
	}

	now := time.Now()
	vested := vesting.Vested(grant.Quantity, grant.GrantDate, grant.CliffMonths, grant.VestingMonths, grant.CliffPct, now)
	newExercised := grant.QuantityExercised.Add(quantity)
	if newExercised.GreaterThan(vested) {
		return nil, apperrors.WithDetails(apperrors.ErrExceedsVestedShares, map[string]any{
			"vested":    vested.String(),
			"exercised": grant.QuantityExercised.String(),
			"requested": quantity.String(),
		})
	}

	updates := map[string]any{"quantity_exercised": newExercised}
	if newExercised.Equal(grant.Quantity) {
		updates["status"] = models.OptionGrantStatusExercised
	}
	if err := s.db.Model(grant).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return grant, nil
}
