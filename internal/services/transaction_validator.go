package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "captable/internal/errors"
	"captable/internal/models"
)

// validateCreate runs the type-specific precondition checks for a proposed
// transaction. Checks are read-only; nothing is mutated here. Balances are
// re-checked at mutation time, so a pass here is not a reservation.
func (s *transactionService) validateCreate(input CreateTransactionInput) error {
	if _, err := s.companyService.GetActiveCompany(input.CompanyID); err != nil {
		return err
	}
	if !input.Quantity.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be greater than zero")
	}

	class, err := s.getCompanyClass(input.CompanyID, input.ShareClassID)
	if err != nil {
		return err
	}

	details, ok := (&models.Transaction{
		Type:               input.Type,
		FromShareholderID:  input.FromShareholderID,
		ToShareholderID:    input.ToShareholderID,
		TargetShareClassID: input.TargetShareClassID,
		SplitRatio:         input.SplitRatio,
	}).Details()
	if !ok {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "missing required fields for transaction type "+string(input.Type))
	}

	switch d := details.(type) {
	case models.IssuanceDetails:
		return s.validateIssuance(input, class, d)
	case models.TransferDetails:
		return s.validateTransfer(input, class, d)
	case models.CancellationDetails:
		return s.validateDecrement(input, class, d.ShareholderID)
	case models.ConversionDetails:
		return s.validateConversion(input, class, d)
	case models.SplitDetails:
		return s.validateSplit(d)
	}
	return apperrors.ErrInvalidTransactionType
}

func (s *transactionService) validateIssuance(input CreateTransactionInput, class *models.ShareClass, d models.IssuanceDetails) error {
	if err := s.requireActiveShareholder(input.CompanyID, d.ShareholderID); err != nil {
		return err
	}

	if class.TotalIssued.Add(input.Quantity).GreaterThan(class.TotalAuthorized) {
		return apperrors.WithDetails(apperrors.ErrExceedsAuthorized, map[string]any{
			"authorized":    class.TotalAuthorized.String(),
			"currentIssued": class.TotalIssued.String(),
			"requested":     input.Quantity.String(),
		})
	}
	return nil
}

func (s *transactionService) validateTransfer(input CreateTransactionInput, class *models.ShareClass, d models.TransferDetails) error {
	if d.FromShareholderID == d.ToShareholderID {
		return apperrors.ErrSameShareholder
	}
	if err := s.requireActiveShareholder(input.CompanyID, d.FromShareholderID); err != nil {
		return err
	}
	if err := s.requireActiveShareholder(input.CompanyID, d.ToShareholderID); err != nil {
		return err
	}

	holding, err := s.requireSufficientHolding(input.CompanyID, d.FromShareholderID, class.ID, input)
	if err != nil {
		return err
	}

	// Lock-up applies to transfers only, counted from the holding's creation.
	if class.LockUpMonths != nil && *class.LockUpMonths > 0 {
		unlockAt := holding.CreatedAt.AddDate(0, *class.LockUpMonths, 0)
		if time.Now().Before(unlockAt) {
			return apperrors.WithDetails(apperrors.ErrLockupActive, map[string]any{
				"lockedUntil":  unlockAt.Format(time.RFC3339),
				"lockUpMonths": *class.LockUpMonths,
			})
		}
	}
	return nil
}

func (s *transactionService) validateDecrement(input CreateTransactionInput, class *models.ShareClass, shareholderID string) error {
	if err := s.requireActiveShareholder(input.CompanyID, shareholderID); err != nil {
		return err
	}
	_, err := s.requireSufficientHolding(input.CompanyID, shareholderID, class.ID, input)
	return err
}

func (s *transactionService) validateConversion(input CreateTransactionInput, class *models.ShareClass, d models.ConversionDetails) error {
	if d.TargetShareClassID == class.ID {
		return apperrors.ErrInvalidConversionTarget
	}
	if _, err := s.getCompanyClass(input.CompanyID, d.TargetShareClassID); err != nil {
		if errors.Is(err, apperrors.ErrShareClassNotFound) {
			return apperrors.ErrInvalidConversionTarget
		}
		return err
	}
	return s.validateDecrement(input, class, d.ShareholderID)
}

func (s *transactionService) validateSplit(d models.SplitDetails) error {
	if !d.Ratio.IsPositive() {
		return apperrors.WithDetails(apperrors.ErrInvalidSplitRatio, map[string]any{
			"ratio": d.Ratio.String(),
		})
	}
	return nil
}

// getCompanyClass loads a share class and verifies it belongs to the company.
func (s *transactionService) getCompanyClass(companyID, classID string) (*models.ShareClass, error) {
	var class models.ShareClass
	if err := s.db.First(&class, "id = ?", classID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrShareClassNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if class.CompanyID != companyID {
		return nil, apperrors.ErrShareClassMismatch
	}
	return &class, nil
}

// requireActiveShareholder verifies the shareholder exists in the company
// and is active.
func (s *transactionService) requireActiveShareholder(companyID, shareholderID string) error {
	var shareholder models.Shareholder
	if err := s.db.Where("id = ? AND company_id = ?", shareholderID, companyID).First(&shareholder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrShareholderNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !shareholder.IsActive() {
		return apperrors.ErrShareholderInactive
	}
	return nil
}

// requireSufficientHolding verifies the source holding covers the requested
// quantity and returns it.
func (s *transactionService) requireSufficientHolding(companyID, shareholderID, classID string, input CreateTransactionInput) (*models.Shareholding, error) {
	holding, err := getHolding(s.db, companyID, shareholderID, classID)
	if err != nil {
		return nil, err
	}
	if holding == nil || holding.Quantity.LessThan(input.Quantity) {
		available := "0"
		if holding != nil {
			available = holding.Quantity.String()
		}
		return nil, apperrors.WithDetails(apperrors.ErrInsufficientShares, map[string]any{
			"available": available,
			"requested": input.Quantity.String(),
		})
	}
	return holding, nil
}

// getHolding fetches a holding, returning nil when none exists.
func getHolding(db *gorm.DB, companyID, shareholderID, classID string) (*models.Shareholding, error) {
	var holding models.Shareholding
	err := db.Where("company_id = ? AND shareholder_id = ? AND share_class_id = ?",
		companyID, shareholderID, classID).First(&holding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &holding, nil
}
