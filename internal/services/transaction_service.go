package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "captable/internal/errors"
	"captable/internal/events"
	"captable/internal/logger"
	"captable/internal/models"
	"captable/internal/pagination"
)

// transactionService owns the transaction state machine and the ledger
// mutation engine behind confirm().
type transactionService struct {
	db             *gorm.DB
	companyService CompanyServicer
	capTable       CapTableServicer
	dispatcher     *events.Dispatcher
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, companyService CompanyServicer, capTable CapTableServicer, dispatcher *events.Dispatcher) TransactionServicer {
	return &transactionService{
		db:             db,
		companyService: companyService,
		capTable:       capTable,
		dispatcher:     dispatcher,
	}
}

// CreateTransaction validates the proposal and persists it in DRAFT, or in
// PENDING_APPROVAL when board approval is required. Validation has no side
// effects; nothing is mutated until confirm().
func (s *transactionService) CreateTransaction(actorID string, input CreateTransactionInput) (*models.Transaction, error) {
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	status := models.TransactionStatusDraft
	if input.RequiresApproval {
		status = models.TransactionStatusPendingApproval
	}

	txn := &models.Transaction{
		CompanyID:          input.CompanyID,
		Type:               input.Type,
		Status:             status,
		FromShareholderID:  input.FromShareholderID,
		ToShareholderID:    input.ToShareholderID,
		ShareClassID:       input.ShareClassID,
		Quantity:           input.Quantity,
		PricePerShare:      input.PricePerShare,
		TargetShareClassID: input.TargetShareClassID,
		SplitRatio:         input.SplitRatio,
		Notes:              input.Notes,
		RequiresApproval:   input.RequiresApproval,
		CreatedBy:          actorID,
	}
	if err := s.db.Create(txn).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txn, nil
}

// SubmitTransaction moves a DRAFT (or FAILED) transaction to SUBMITTED, or
// to PENDING_APPROVAL when board approval is required.
func (s *transactionService) SubmitTransaction(actorID, transactionID string) (*models.Transaction, error) {
	txn, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return nil, err
	}

	target := models.TransactionStatusSubmitted
	if txn.RequiresApproval && txn.Status == models.TransactionStatusDraft {
		target = models.TransactionStatusPendingApproval
	}

	if err := s.transition(txn, target, nil); err != nil {
		return nil, err
	}
	return txn, nil
}

// ApproveTransaction moves a PENDING_APPROVAL or DRAFT transaction to
// SUBMITTED, recording approver and timestamp.
func (s *transactionService) ApproveTransaction(actorID, transactionID string) (*models.Transaction, error) {
	txn, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]any{
		"approved_by": actorID,
		"approved_at": now,
	}
	if err := s.transition(txn, models.TransactionStatusSubmitted, updates); err != nil {
		return nil, err
	}
	txn.ApprovedBy = &actorID
	txn.ApprovedAt = &now
	return txn, nil
}

// CancelTransaction cancels a transaction from any non-terminal state.
func (s *transactionService) CancelTransaction(actorID, transactionID string) (*models.Transaction, error) {
	txn, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]any{
		"cancelled_by": actorID,
		"cancelled_at": now,
	}
	if err := s.transition(txn, models.TransactionStatusCancelled, updates); err != nil {
		return nil, err
	}
	txn.CancelledBy = &actorID
	txn.CancelledAt = &now

	s.dispatcher.Publish(events.Event{
		Name:          events.TransactionCancelled,
		CompanyID:     txn.CompanyID,
		TransactionID: txn.ID,
		ActorID:       actorID,
	})
	return txn, nil
}

// transition applies a state-machine move, failing with an
// invalid-transition error naming the current and target states.
func (s *transactionService) transition(txn *models.Transaction, target models.TransactionStatus, extra map[string]any) error {
	if !txn.Status.CanTransitionTo(target) {
		return apperrors.WithDetails(apperrors.ErrInvalidStatusTransition, map[string]any{
			"from": string(txn.Status),
			"to":   string(target),
		})
	}

	updates := map[string]any{"status": target}
	for k, v := range extra {
		updates[k] = v
	}

	// Guard on the current status so concurrent transitions cannot both win.
	res := s.db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", txn.ID, txn.Status).
		Updates(updates)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.WithDetails(apperrors.ErrInvalidStatusTransition, map[string]any{
			"from": string(txn.Status),
			"to":   string(target),
		})
	}

	txn.Status = target
	return nil
}

// ConfirmTransaction executes the ledger mutation for a SUBMITTED
// transaction inside one atomic unit. The SUBMITTED precondition is
// re-checked under the store's isolation via a guarded UPDATE, so two
// concurrent confirmations of the same transaction cannot both apply.
// Ownership recalculation runs after commit; snapshot, audit, and
// notification side effects are best-effort and never fail the confirm.
func (s *transactionService) ConfirmTransaction(actorID, transactionID string) (*models.Transaction, error) {
	txn, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status != models.TransactionStatusSubmitted {
		return nil, apperrors.WithDetails(apperrors.ErrInvalidStatusTransition, map[string]any{
			"from": string(txn.Status),
			"to":   string(models.TransactionStatusConfirmed),
		})
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", transactionID, models.TransactionStatusSubmitted).
			Updates(map[string]any{
				"status":       models.TransactionStatusConfirmed,
				"confirmed_at": now,
			})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.WithDetails(apperrors.ErrInvalidStatusTransition, map[string]any{
				"from": string(models.TransactionStatusConfirmed),
				"to":   string(models.TransactionStatusConfirmed),
			})
		}

		return s.applyMutation(tx, txn)
	})
	if err != nil {
		s.markFailed(txn, err)
		return nil, err
	}

	// Recalculation is a separate batch step; a brief window of stale
	// percentages is acceptable, so a failure here is logged, not raised.
	if recalcErr := s.capTable.Recalculate(txn.CompanyID); recalcErr != nil {
		logger.Get().Errorw("ownership recalculation failed after confirm",
			"company_id", txn.CompanyID,
			"transaction_id", txn.ID,
			"error", recalcErr,
		)
	}

	s.dispatcher.Publish(events.Event{
		Name:          events.TransactionConfirmed,
		CompanyID:     txn.CompanyID,
		TransactionID: txn.ID,
		ActorID:       actorID,
		Payload: map[string]any{
			"type":     string(txn.Type),
			"quantity": txn.Quantity.String(),
		},
	})

	return s.GetTransactionByID(transactionID)
}

// markFailed moves a transaction whose mutation was rejected for a business
// reason from SUBMITTED to FAILED, so it can be corrected and resubmitted.
// Infrastructure errors leave the status untouched.
func (s *transactionService) markFailed(txn *models.Transaction, cause error) {
	var appErr *apperrors.AppError
	if !errors.As(cause, &appErr) || appErr.Code == apperrors.ErrInternalServer.Code {
		return
	}

	res := s.db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", txn.ID, models.TransactionStatusSubmitted).
		Update("status", models.TransactionStatusFailed)
	if res.Error != nil {
		logger.Get().Errorw("failed to mark transaction as failed",
			"transaction_id", txn.ID,
			"error", res.Error,
		)
	}
}

// GetCompanyTransactions retrieves a paginated, filtered list of a
// company's transactions.
func (s *transactionService) GetCompanyTransactions(companyID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := s.companyService.GetCompanyByID(companyID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("company_id = ?", companyID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("FromShareholder").
		Preload("ToShareholder").
		Preload("ShareClass").
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.ShareholderID != nil {
		q = q.Where("from_shareholder_id = ? OR to_shareholder_id = ?", *f.ShareholderID, *f.ShareholderID)
	}
	if f.ShareClassID != nil {
		q = q.Where("share_class_id = ? OR target_share_class_id = ?", *f.ShareClassID, *f.ShareClassID)
	}
	if f.FromDate != nil {
		q = q.Where("created_at >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("created_at <= ?", *f.ToDate)
	}
	return q
}

// GetTransactionByID retrieves a transaction with its linked parties,
// share classes, and settlement records.
func (s *transactionService) GetTransactionByID(transactionID string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.
		Preload("FromShareholder").
		Preload("ToShareholder").
		Preload("ShareClass").
		Preload("TargetShareClass").
		Preload("Settlements").
		First(&txn, "id = ?", transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &txn, nil
}
