package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"captable/internal/decimals"
	apperrors "captable/internal/errors"
	"captable/internal/models"
)

// applyMutation executes the ledger changes for a transaction being
// confirmed. It runs inside the confirm's database transaction: either
// every change below and the CONFIRMED status update commit together, or
// none do. Balances and authorization limits are re-checked here because
// the create-time validation may have read stale state.
func (s *transactionService) applyMutation(tx *gorm.DB, txn *models.Transaction) error {
	details, ok := txn.Details()
	if !ok {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction payload is incomplete")
	}

	switch d := details.(type) {
	case models.IssuanceDetails:
		return applyIssuance(tx, txn.CompanyID, d.ShareholderID, txn.ShareClassID, txn.Quantity)
	case models.TransferDetails:
		return applyTransfer(tx, txn.CompanyID, d, txn.ShareClassID, txn.Quantity)
	case models.CancellationDetails:
		return applyCancellation(tx, txn.CompanyID, d.ShareholderID, txn.ShareClassID, txn.Quantity)
	case models.ConversionDetails:
		// A conversion is a cancellation on the source class followed by an
		// issuance on the target class, all in the same atomic unit.
		if err := applyCancellation(tx, txn.CompanyID, d.ShareholderID, txn.ShareClassID, txn.Quantity); err != nil {
			return err
		}
		return applyIssuance(tx, txn.CompanyID, d.ShareholderID, d.TargetShareClassID, txn.Quantity)
	case models.SplitDetails:
		return applySplit(tx, txn.CompanyID, txn.ShareClassID, d.Ratio)
	}
	return apperrors.ErrInvalidTransactionType
}

// applyIssuance upserts the destination holding and increments the class
// issued total, enforcing the authorized limit at mutation time.
func applyIssuance(tx *gorm.DB, companyID, shareholderID, classID string, quantity decimal.Decimal) error {
	class, err := loadClass(tx, classID)
	if err != nil {
		return err
	}

	newIssued := class.TotalIssued.Add(quantity)
	if newIssued.GreaterThan(class.TotalAuthorized) {
		return apperrors.WithDetails(apperrors.ErrExceedsAuthorized, map[string]any{
			"authorized":    class.TotalAuthorized.String(),
			"currentIssued": class.TotalIssued.String(),
			"requested":     quantity.String(),
		})
	}

	if err := incrementHolding(tx, companyID, shareholderID, classID, quantity); err != nil {
		return err
	}

	if err := tx.Model(class).Update("total_issued", newIssued).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// applyTransfer moves quantity between two holders. Class totals are unchanged.
func applyTransfer(tx *gorm.DB, companyID string, d models.TransferDetails, classID string, quantity decimal.Decimal) error {
	if err := decrementHolding(tx, companyID, d.FromShareholderID, classID, quantity); err != nil {
		return err
	}
	return incrementHolding(tx, companyID, d.ToShareholderID, classID, quantity)
}

// applyCancellation retires quantity from a holding and decrements the
// class issued total.
func applyCancellation(tx *gorm.DB, companyID, shareholderID, classID string, quantity decimal.Decimal) error {
	class, err := loadClass(tx, classID)
	if err != nil {
		return err
	}

	if err := decrementHolding(tx, companyID, shareholderID, classID, quantity); err != nil {
		return err
	}

	newIssued := class.TotalIssued.Sub(quantity)
	if newIssued.IsNegative() {
		return apperrors.WithDetails(apperrors.ErrInsufficientShares, map[string]any{
			"available": class.TotalIssued.String(),
			"requested": quantity.String(),
		})
	}
	if err := tx.Model(class).Update("total_issued", newIssued).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// applySplit multiplies every holding of the class by the ratio. The whole
// operation is rejected before any write if a resulting quantity would be
// fractional. Both the issued and authorized totals scale by the ratio.
func applySplit(tx *gorm.DB, companyID, classID string, ratio decimal.Decimal) error {
	if !ratio.IsPositive() {
		return apperrors.WithDetails(apperrors.ErrInvalidSplitRatio, map[string]any{
			"ratio": ratio.String(),
		})
	}

	class, err := loadClass(tx, classID)
	if err != nil {
		return err
	}

	var holdings []models.Shareholding
	if err := tx.Where("company_id = ? AND share_class_id = ?", companyID, classID).
		Find(&holdings).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Check every resulting quantity before applying any change.
	for i := range holdings {
		newQuantity := holdings[i].Quantity.Mul(ratio)
		if !decimals.IsWhole(newQuantity) {
			return apperrors.WithDetails(apperrors.ErrInvalidSplitRatio, map[string]any{
				"ratio":         ratio.String(),
				"shareholderId": holdings[i].ShareholderID,
				"quantity":      holdings[i].Quantity.String(),
			})
		}
	}

	for i := range holdings {
		newQuantity := holdings[i].Quantity.Mul(ratio)
		if err := tx.Model(&holdings[i]).Update("quantity", newQuantity).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if err := tx.Model(class).Updates(map[string]any{
		"total_issued":     class.TotalIssued.Mul(ratio),
		"total_authorized": class.TotalAuthorized.Mul(ratio),
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// incrementHolding adds quantity to a holding, creating it with zero
// placeholder percentages when absent. Recalculation fills them in later.
func incrementHolding(tx *gorm.DB, companyID, shareholderID, classID string, quantity decimal.Decimal) error {
	holding, err := getHolding(tx, companyID, shareholderID, classID)
	if err != nil {
		return err
	}

	if holding == nil {
		holding = &models.Shareholding{
			CompanyID:     companyID,
			ShareholderID: shareholderID,
			ShareClassID:  classID,
			Quantity:      quantity,
			OwnershipPct:  decimal.Zero,
			VotingPct:     decimal.Zero,
		}
		if err := tx.Create(holding).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	}

	if err := tx.Model(holding).Update("quantity", holding.Quantity.Add(quantity)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// decrementHolding removes quantity from a holding, re-validating the
// available balance under the current transaction. A holding that reaches
// exactly zero is deleted, not retained.
func decrementHolding(tx *gorm.DB, companyID, shareholderID, classID string, quantity decimal.Decimal) error {
	holding, err := getHolding(tx, companyID, shareholderID, classID)
	if err != nil {
		return err
	}

	if holding == nil || holding.Quantity.LessThan(quantity) {
		available := "0"
		if holding != nil {
			available = holding.Quantity.String()
		}
		return apperrors.WithDetails(apperrors.ErrInsufficientShares, map[string]any{
			"available": available,
			"requested": quantity.String(),
		})
	}

	newQuantity := holding.Quantity.Sub(quantity)
	if newQuantity.IsZero() {
		if err := tx.Unscoped().Delete(holding).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	}

	if err := tx.Model(holding).Update("quantity", newQuantity).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// loadClass reads a share class inside the mutation's transaction.
func loadClass(tx *gorm.DB, classID string) (*models.ShareClass, error) {
	var class models.ShareClass
	if err := tx.First(&class, "id = ?", classID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrShareClassNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &class, nil
}
