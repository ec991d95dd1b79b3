package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "captable/internal/errors"
	"captable/internal/events"
	"captable/internal/models"
	"captable/internal/pagination"
	"captable/internal/testutil"
)

func pageRequest(page, pageSize int) pagination.PageRequest {
	return pagination.PageRequest{Page: page, PageSize: pageSize}
}

func newTestTransactionService(db *gorm.DB) TransactionServicer {
	companySvc := NewCompanyService(db)
	capSvc := NewCapTableService(db, companySvc)
	return NewTransactionService(db, companySvc, capSvc, events.NewDispatcher())
}

func strp(s string) *string { return &s }

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateTransaction(t *testing.T) {
	t.Run("issuance_starts_in_draft", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		holder := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 0)

		txn, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:       company.ID,
			Type:            models.TransactionTypeIssuance,
			ToShareholderID: strp(holder.ID),
			ShareClassID:    class.ID,
			Quantity:        decimal.NewFromInt(1000),
		})
		testutil.AssertNoError(t, err)

		if txn.Status != models.TransactionStatusDraft {
			t.Errorf("expected status DRAFT, got %s", txn.Status)
		}
		if txn.CreatedBy != user.ID {
			t.Errorf("expected created_by %s, got %s", user.ID, txn.CreatedBy)
		}

		// Nothing moves before confirmation.
		var count int64
		db.Model(&models.Shareholding{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no holdings, got %d", count)
		}
	})

	t.Run("requires_approval_starts_pending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		holder := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 0)

		txn, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:        company.ID,
			Type:             models.TransactionTypeIssuance,
			ToShareholderID:  strp(holder.ID),
			ShareClassID:     class.ID,
			Quantity:         decimal.NewFromInt(1000),
			RequiresApproval: true,
		})
		testutil.AssertNoError(t, err)

		if txn.Status != models.TransactionStatusPendingApproval {
			t.Errorf("expected status PENDING_APPROVAL, got %s", txn.Status)
		}
	})

	t.Run("issuance_exceeds_authorized", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		holder := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 95000)

		_, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:       company.ID,
			Type:            models.TransactionTypeIssuance,
			ToShareholderID: strp(holder.ID),
			ShareClassID:    class.ID,
			Quantity:        decimal.NewFromInt(10000),
		})
		testutil.AssertAppError(t, err, "EXCEEDS_AUTHORIZED")

		appErr := err.(*apperrors.AppError)
		if appErr.Details["authorized"] != "100000" {
			t.Errorf("expected authorized detail 100000, got %v", appErr.Details["authorized"])
		}
		if appErr.Details["currentIssued"] != "95000" {
			t.Errorf("expected currentIssued detail 95000, got %v", appErr.Details["currentIssued"])
		}
		if appErr.Details["requested"] != "10000" {
			t.Errorf("expected requested detail 10000, got %v", appErr.Details["requested"])
		}
	})

	t.Run("transfer_same_shareholder", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		holder := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 50000)
		testutil.CreateTestHolding(t, db, company.ID, holder.ID, class.ID, 50000)

		_, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:         company.ID,
			Type:              models.TransactionTypeTransfer,
			FromShareholderID: strp(holder.ID),
			ToShareholderID:   strp(holder.ID),
			ShareClassID:      class.ID,
			Quantity:          decimal.NewFromInt(1000),
		})
		testutil.AssertAppError(t, err, "SAME_SHAREHOLDER")
	})

	t.Run("transfer_insufficient_shares", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		from := testutil.CreateTestShareholder(t, db, company.ID)
		to := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 30000)
		testutil.CreateTestHolding(t, db, company.ID, from.ID, class.ID, 30000)

		_, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:         company.ID,
			Type:              models.TransactionTypeTransfer,
			FromShareholderID: strp(from.ID),
			ToShareholderID:   strp(to.ID),
			ShareClassID:      class.ID,
			Quantity:          decimal.NewFromInt(50000),
		})
		testutil.AssertAppError(t, err, "INSUFFICIENT_SHARES")

		appErr := err.(*apperrors.AppError)
		if appErr.Details["available"] != "30000" {
			t.Errorf("expected available detail 30000, got %v", appErr.Details["available"])
		}
		if appErr.Details["requested"] != "50000" {
			t.Errorf("expected requested detail 50000, got %v", appErr.Details["requested"])
		}
	})

	t.Run("transfer_during_lockup", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		from := testutil.CreateTestShareholder(t, db, company.ID)
		to := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClassWithLockup(t, db, company.ID, 100000, 10000, 12)
		testutil.CreateTestHolding(t, db, company.ID, from.ID, class.ID, 10000)

		_, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:         company.ID,
			Type:              models.TransactionTypeTransfer,
			FromShareholderID: strp(from.ID),
			ToShareholderID:   strp(to.ID),
			ShareClassID:      class.ID,
			Quantity:          decimal.NewFromInt(1000),
		})
		testutil.AssertAppError(t, err, "LOCKUP_ACTIVE")
	})

	t.Run("inactive_shareholder", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		holder := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 0)
		db.Model(holder).Update("status", models.ShareholderStatusInactive)

		_, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:       company.ID,
			Type:            models.TransactionTypeIssuance,
			ToShareholderID: strp(holder.ID),
			ShareClassID:    class.ID,
			Quantity:        decimal.NewFromInt(1000),
		})
		testutil.AssertAppError(t, err, "SHAREHOLDER_INACTIVE")
	})

	t.Run("conversion_into_same_class", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		holder := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 10000)
		testutil.CreateTestHolding(t, db, company.ID, holder.ID, class.ID, 10000)

		_, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:          company.ID,
			Type:               models.TransactionTypeConversion,
			FromShareholderID:  strp(holder.ID),
			ShareClassID:       class.ID,
			TargetShareClassID: strp(class.ID),
			Quantity:           decimal.NewFromInt(1000),
		})
		testutil.AssertAppError(t, err, "INVALID_CONVERSION_TARGET")
	})

	t.Run("suspended_company", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		holder := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 0)
		db.Model(company).Update("status", models.CompanyStatusSuspended)

		_, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:       company.ID,
			Type:            models.TransactionTypeIssuance,
			ToShareholderID: strp(holder.ID),
			ShareClassID:    class.ID,
			Quantity:        decimal.NewFromInt(1000),
		})
		testutil.AssertAppError(t, err, "COMPANY_NOT_ACTIVE")
	})

	t.Run("share_class_of_another_company", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		other := testutil.CreateTestCompany(t, db)
		holder := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, other.ID, 100000, 0)

		_, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:       company.ID,
			Type:            models.TransactionTypeIssuance,
			ToShareholderID: strp(holder.ID),
			ShareClassID:    class.ID,
			Quantity:        decimal.NewFromInt(1000),
		})
		testutil.AssertAppError(t, err, "SHARE_CLASS_MISMATCH")
	})
}

func TestTransactionStateMachine(t *testing.T) {
	setup := func(t *testing.T, db *gorm.DB, requiresApproval bool) (TransactionServicer, *models.User, *models.Transaction) {
		t.Helper()
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		holder := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 0)

		txn, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:        company.ID,
			Type:             models.TransactionTypeIssuance,
			ToShareholderID:  strp(holder.ID),
			ShareClassID:     class.ID,
			Quantity:         decimal.NewFromInt(1000),
			RequiresApproval: requiresApproval,
		})
		testutil.AssertNoError(t, err)
		return txSvc, user, txn
	}

	t.Run("submit_moves_draft_to_submitted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc, user, txn := setup(t, db, false)

		updated, err := txSvc.SubmitTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)
		if updated.Status != models.TransactionStatusSubmitted {
			t.Errorf("expected SUBMITTED, got %s", updated.Status)
		}
	})

	t.Run("approval_flow", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc, user, txn := setup(t, db, true)

		approved, err := txSvc.ApproveTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)
		if approved.Status != models.TransactionStatusSubmitted {
			t.Errorf("expected SUBMITTED after approval, got %s", approved.Status)
		}
		if approved.ApprovedBy == nil || *approved.ApprovedBy != user.ID {
			t.Error("expected approver to be recorded")
		}
		if approved.ApprovedAt == nil {
			t.Error("expected approval timestamp to be recorded")
		}
	})

	t.Run("confirm_requires_submitted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc, user, txn := setup(t, db, false)

		_, err := txSvc.ConfirmTransaction(user.ID, txn.ID)
		testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")
	})

	t.Run("cancel_records_actor", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc, user, txn := setup(t, db, false)

		cancelled, err := txSvc.CancelTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)
		if cancelled.Status != models.TransactionStatusCancelled {
			t.Errorf("expected CANCELLED, got %s", cancelled.Status)
		}
		if cancelled.CancelledBy == nil || *cancelled.CancelledBy != user.ID {
			t.Error("expected canceller to be recorded")
		}
	})

	t.Run("terminal_states_reject_transitions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc, user, txn := setup(t, db, false)

		_, err := txSvc.CancelTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)

		_, err = txSvc.SubmitTransaction(user.ID, txn.ID)
		testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")

		_, err = txSvc.CancelTransaction(user.ID, txn.ID)
		testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")
	})

	t.Run("confirm_twice_applies_once", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc, user, txn := setup(t, db, false)

		_, err := txSvc.SubmitTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)

		confirmed, err := txSvc.ConfirmTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)
		if confirmed.Status != models.TransactionStatusConfirmed {
			t.Errorf("expected CONFIRMED, got %s", confirmed.Status)
		}

		_, err = txSvc.ConfirmTransaction(user.ID, txn.ID)
		testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")

		// Only one issuance applied.
		var class models.ShareClass
		db.First(&class, "id = ?", confirmed.ShareClassID)
		if !class.TotalIssued.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("expected total issued 1000, got %s", class.TotalIssued)
		}
	})
}

func TestConfirmTransactionMutations(t *testing.T) {
	t.Run("issuance_creates_holding_and_updates_totals", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		holder := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 0)

		txn, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:       company.ID,
			Type:            models.TransactionTypeIssuance,
			ToShareholderID: strp(holder.ID),
			ShareClassID:    class.ID,
			Quantity:        decimal.NewFromInt(10000),
			PricePerShare:   decp("1.50"),
		})
		testutil.AssertNoError(t, err)
		_, err = txSvc.SubmitTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)
		_, err = txSvc.ConfirmTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)

		var holding models.Shareholding
		err = db.Where("shareholder_id = ? AND share_class_id = ?", holder.ID, class.ID).First(&holding).Error
		testutil.AssertNoError(t, err)
		if !holding.Quantity.Equal(decimal.NewFromInt(10000)) {
			t.Errorf("expected quantity 10000, got %s", holding.Quantity)
		}
		// Sole holder owns everything after recalculation.
		if !holding.OwnershipPct.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected ownership 100, got %s", holding.OwnershipPct)
		}

		var updatedClass models.ShareClass
		db.First(&updatedClass, "id = ?", class.ID)
		if !updatedClass.TotalIssued.Equal(decimal.NewFromInt(10000)) {
			t.Errorf("expected total issued 10000, got %s", updatedClass.TotalIssued)
		}
	})

	t.Run("transfer_conserves_totals", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		from := testutil.CreateTestShareholder(t, db, company.ID)
		to := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 30000)
		testutil.CreateTestHolding(t, db, company.ID, from.ID, class.ID, 30000)

		txn, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:         company.ID,
			Type:              models.TransactionTypeTransfer,
			FromShareholderID: strp(from.ID),
			ToShareholderID:   strp(to.ID),
			ShareClassID:      class.ID,
			Quantity:          decimal.NewFromInt(12000),
		})
		testutil.AssertNoError(t, err)
		_, err = txSvc.SubmitTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)
		_, err = txSvc.ConfirmTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)

		var fromHolding, toHolding models.Shareholding
		testutil.AssertNoError(t, db.Where("shareholder_id = ?", from.ID).First(&fromHolding).Error)
		testutil.AssertNoError(t, db.Where("shareholder_id = ?", to.ID).First(&toHolding).Error)
		if !fromHolding.Quantity.Equal(decimal.NewFromInt(18000)) {
			t.Errorf("expected source quantity 18000, got %s", fromHolding.Quantity)
		}
		if !toHolding.Quantity.Equal(decimal.NewFromInt(12000)) {
			t.Errorf("expected destination quantity 12000, got %s", toHolding.Quantity)
		}

		// Transfers never change the issued total.
		var updatedClass models.ShareClass
		db.First(&updatedClass, "id = ?", class.ID)
		if !updatedClass.TotalIssued.Equal(decimal.NewFromInt(30000)) {
			t.Errorf("expected total issued 30000, got %s", updatedClass.TotalIssued)
		}
	})

	t.Run("transfer_of_entire_holding_removes_it", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		from := testutil.CreateTestShareholder(t, db, company.ID)
		to := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 5000)
		testutil.CreateTestHolding(t, db, company.ID, from.ID, class.ID, 5000)

		txn, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:         company.ID,
			Type:              models.TransactionTypeTransfer,
			FromShareholderID: strp(from.ID),
			ToShareholderID:   strp(to.ID),
			ShareClassID:      class.ID,
			Quantity:          decimal.NewFromInt(5000),
		})
		testutil.AssertNoError(t, err)
		_, err = txSvc.SubmitTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)
		_, err = txSvc.ConfirmTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)

		var count int64
		db.Model(&models.Shareholding{}).Where("shareholder_id = ?", from.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected zero-quantity holding to be removed, found %d", count)
		}
	})

	t.Run("cancellation_decrements_issued_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		holder := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 20000)
		testutil.CreateTestHolding(t, db, company.ID, holder.ID, class.ID, 20000)

		txn, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:         company.ID,
			Type:              models.TransactionTypeCancellation,
			FromShareholderID: strp(holder.ID),
			ShareClassID:      class.ID,
			Quantity:          decimal.NewFromInt(8000),
		})
		testutil.AssertNoError(t, err)
		_, err = txSvc.SubmitTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)
		_, err = txSvc.ConfirmTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)

		var holding models.Shareholding
		testutil.AssertNoError(t, db.Where("shareholder_id = ?", holder.ID).First(&holding).Error)
		if !holding.Quantity.Equal(decimal.NewFromInt(12000)) {
			t.Errorf("expected quantity 12000, got %s", holding.Quantity)
		}

		var updatedClass models.ShareClass
		db.First(&updatedClass, "id = ?", class.ID)
		if !updatedClass.TotalIssued.Equal(decimal.NewFromInt(12000)) {
			t.Errorf("expected total issued 12000, got %s", updatedClass.TotalIssued)
		}
	})

	t.Run("conversion_moves_between_classes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		holder := testutil.CreateTestShareholder(t, db, company.ID)
		preferred := testutil.CreateTestShareClass(t, db, company.ID, 50000, 10000)
		common := testutil.CreateTestShareClass(t, db, company.ID, 200000, 0)
		testutil.CreateTestHolding(t, db, company.ID, holder.ID, preferred.ID, 10000)

		txn, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:          company.ID,
			Type:               models.TransactionTypeConversion,
			FromShareholderID:  strp(holder.ID),
			ShareClassID:       preferred.ID,
			TargetShareClassID: strp(common.ID),
			Quantity:           decimal.NewFromInt(4000),
		})
		testutil.AssertNoError(t, err)
		_, err = txSvc.SubmitTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)
		_, err = txSvc.ConfirmTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)

		var preferredHolding, commonHolding models.Shareholding
		testutil.AssertNoError(t, db.Where("share_class_id = ?", preferred.ID).First(&preferredHolding).Error)
		testutil.AssertNoError(t, db.Where("share_class_id = ?", common.ID).First(&commonHolding).Error)
		if !preferredHolding.Quantity.Equal(decimal.NewFromInt(6000)) {
			t.Errorf("expected preferred quantity 6000, got %s", preferredHolding.Quantity)
		}
		if !commonHolding.Quantity.Equal(decimal.NewFromInt(4000)) {
			t.Errorf("expected common quantity 4000, got %s", commonHolding.Quantity)
		}

		var updatedPreferred, updatedCommon models.ShareClass
		db.First(&updatedPreferred, "id = ?", preferred.ID)
		db.First(&updatedCommon, "id = ?", common.ID)
		if !updatedPreferred.TotalIssued.Equal(decimal.NewFromInt(6000)) {
			t.Errorf("expected preferred issued 6000, got %s", updatedPreferred.TotalIssued)
		}
		if !updatedCommon.TotalIssued.Equal(decimal.NewFromInt(4000)) {
			t.Errorf("expected common issued 4000, got %s", updatedCommon.TotalIssued)
		}
	})

	t.Run("split_doubles_all_holdings", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		a := testutil.CreateTestShareholder(t, db, company.ID)
		b := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 30)
		testutil.CreateTestHolding(t, db, company.ID, a.ID, class.ID, 10)
		testutil.CreateTestHolding(t, db, company.ID, b.ID, class.ID, 20)

		txn, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:    company.ID,
			Type:         models.TransactionTypeSplit,
			ShareClassID: class.ID,
			Quantity:     decimal.NewFromInt(30),
			SplitRatio:   decp("2"),
		})
		testutil.AssertNoError(t, err)
		_, err = txSvc.SubmitTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)
		_, err = txSvc.ConfirmTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)

		var aHolding, bHolding models.Shareholding
		testutil.AssertNoError(t, db.Where("shareholder_id = ?", a.ID).First(&aHolding).Error)
		testutil.AssertNoError(t, db.Where("shareholder_id = ?", b.ID).First(&bHolding).Error)
		if !aHolding.Quantity.Equal(decimal.NewFromInt(20)) {
			t.Errorf("expected quantity 20, got %s", aHolding.Quantity)
		}
		if !bHolding.Quantity.Equal(decimal.NewFromInt(40)) {
			t.Errorf("expected quantity 40, got %s", bHolding.Quantity)
		}

		var updatedClass models.ShareClass
		db.First(&updatedClass, "id = ?", class.ID)
		if !updatedClass.TotalIssued.Equal(decimal.NewFromInt(60)) {
			t.Errorf("expected total issued 60, got %s", updatedClass.TotalIssued)
		}
		if !updatedClass.TotalAuthorized.Equal(decimal.NewFromInt(200000)) {
			t.Errorf("expected total authorized 200000, got %s", updatedClass.TotalAuthorized)
		}
	})

	t.Run("fractional_split_rejected_without_side_effects", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		a := testutil.CreateTestShareholder(t, db, company.ID)
		b := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 13)
		testutil.CreateTestHolding(t, db, company.ID, a.ID, class.ID, 10)
		testutil.CreateTestHolding(t, db, company.ID, b.ID, class.ID, 3)

		txn, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:    company.ID,
			Type:         models.TransactionTypeSplit,
			ShareClassID: class.ID,
			Quantity:     decimal.NewFromInt(13),
			SplitRatio:   decp("1.5"),
		})
		testutil.AssertNoError(t, err)
		_, err = txSvc.SubmitTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)

		_, err = txSvc.ConfirmTransaction(user.ID, txn.ID)
		testutil.AssertAppError(t, err, "INVALID_SPLIT_RATIO")

		// Every holding is untouched; the 10-share holding would have
		// multiplied cleanly but must not change either.
		var aHolding, bHolding models.Shareholding
		testutil.AssertNoError(t, db.Where("shareholder_id = ?", a.ID).First(&aHolding).Error)
		testutil.AssertNoError(t, db.Where("shareholder_id = ?", b.ID).First(&bHolding).Error)
		if !aHolding.Quantity.Equal(decimal.NewFromInt(10)) || !bHolding.Quantity.Equal(decimal.NewFromInt(3)) {
			t.Errorf("expected holdings unchanged, got %s and %s", aHolding.Quantity, bHolding.Quantity)
		}

		// Business failure parks the transaction in FAILED for retry.
		failed, err := txSvc.GetTransactionByID(txn.ID)
		testutil.AssertNoError(t, err)
		if failed.Status != models.TransactionStatusFailed {
			t.Errorf("expected FAILED, got %s", failed.Status)
		}

		// A corrected resubmission succeeds.
		_, err = txSvc.SubmitTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)
	})

	t.Run("stale_validation_rechecked_at_confirm", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		from := testutil.CreateTestShareholder(t, db, company.ID)
		to := testutil.CreateTestShareholder(t, db, company.ID)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 10000)
		holding := testutil.CreateTestHolding(t, db, company.ID, from.ID, class.ID, 10000)

		txn, err := txSvc.CreateTransaction(user.ID, CreateTransactionInput{
			CompanyID:         company.ID,
			Type:              models.TransactionTypeTransfer,
			FromShareholderID: strp(from.ID),
			ToShareholderID:   strp(to.ID),
			ShareClassID:      class.ID,
			Quantity:          decimal.NewFromInt(8000),
		})
		testutil.AssertNoError(t, err)
		_, err = txSvc.SubmitTransaction(user.ID, txn.ID)
		testutil.AssertNoError(t, err)

		// The balance shrinks between validation and confirmation.
		db.Model(holding).Update("quantity", decimal.NewFromInt(5000))

		_, err = txSvc.ConfirmTransaction(user.ID, txn.ID)
		testutil.AssertAppError(t, err, "INSUFFICIENT_SHARES")
	})
}

func TestGetCompanyTransactions(t *testing.T) {
	t.Run("filters_by_type_and_status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		company := testutil.CreateTestCompany(t, db)
		class := testutil.CreateTestShareClass(t, db, company.ID, 100000, 0)

		testutil.CreateTestTransaction(t, db, company.ID, user.ID, models.TransactionTypeIssuance, models.TransactionStatusDraft, class.ID, 100)
		testutil.CreateTestTransaction(t, db, company.ID, user.ID, models.TransactionTypeIssuance, models.TransactionStatusConfirmed, class.ID, 200)
		testutil.CreateTestTransaction(t, db, company.ID, user.ID, models.TransactionTypeSplit, models.TransactionStatusDraft, class.ID, 300)

		txType := models.TransactionTypeIssuance
		status := models.TransactionStatusDraft
		result, err := txSvc.GetCompanyTransactions(company.ID, pageRequest(1, 10), TransactionFilter{Type: &txType, Status: &status})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 {
			t.Errorf("expected 1 transaction, got %d", result.TotalItems)
		}
	})

	t.Run("unknown_company", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := newTestTransactionService(db)

		_, err := txSvc.GetCompanyTransactions("0198c0de-0000-7000-8000-000000000000", pageRequest(1, 10), TransactionFilter{})
		testutil.AssertAppError(t, err, "COMPANY_NOT_FOUND")
	})
}
