package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"captable/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an acting user with a unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{
		Email:    fmt.Sprintf("user%d@test.com", nextID()),
		Name:     "Test User",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCompany creates an active company.
func CreateTestCompany(t *testing.T, db *gorm.DB) *models.Company {
	t.Helper()
	return CreateTestCompanyWithCountry(t, db, "US")
}

// CreateTestCompanyWithCountry creates an active company incorporated in
// the given country.
func CreateTestCompanyWithCountry(t *testing.T, db *gorm.DB, countryCode string) *models.Company {
	t.Helper()

	company := &models.Company{
		Name:        fmt.Sprintf("Test Company %d", nextID()),
		LegalName:   "Test Company Inc.",
		CountryCode: countryCode,
		Status:      models.CompanyStatusActive,
	}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("failed to create test company: %v", err)
	}
	return company
}

// CreateTestShareholder creates an active individual shareholder.
func CreateTestShareholder(t *testing.T, db *gorm.DB, companyID string) *models.Shareholder {
	t.Helper()
	return CreateTestShareholderWithCountry(t, db, companyID, "US")
}

// CreateTestShareholderWithCountry creates an active shareholder resident
// in the given country.
func CreateTestShareholderWithCountry(t *testing.T, db *gorm.DB, companyID, countryCode string) *models.Shareholder {
	t.Helper()

	n := nextID()
	shareholder := &models.Shareholder{
		CompanyID:   companyID,
		Name:        fmt.Sprintf("Test Shareholder %d", n),
		Kind:        models.ShareholderKindIndividual,
		Status:      models.ShareholderStatusActive,
		Email:       fmt.Sprintf("holder%d@test.com", n),
		CountryCode: countryCode,
		TaxID:       fmt.Sprintf("TAX-%08d", n),
	}
	if err := db.Create(shareholder).Error; err != nil {
		t.Fatalf("failed to create test shareholder: %v", err)
	}
	return shareholder
}

// CreateTestShareClass creates a common share class with the given
// authorized and issued totals and one vote per share.
func CreateTestShareClass(t *testing.T, db *gorm.DB, companyID string, authorized, issued int64) *models.ShareClass {
	t.Helper()

	class := &models.ShareClass{
		CompanyID:       companyID,
		Name:            fmt.Sprintf("Class %d", nextID()),
		Kind:            models.ShareClassKindCommon,
		VotesPerShare:   decimal.NewFromInt(1),
		TotalAuthorized: decimal.NewFromInt(authorized),
		TotalIssued:     decimal.NewFromInt(issued),
	}
	if err := db.Create(class).Error; err != nil {
		t.Fatalf("failed to create test share class: %v", err)
	}
	return class
}

// CreateTestShareClassWithLockup creates a share class with a transfer
// lock-up period in months.
func CreateTestShareClassWithLockup(t *testing.T, db *gorm.DB, companyID string, authorized, issued int64, lockUpMonths int) *models.ShareClass {
	t.Helper()

	class := CreateTestShareClass(t, db, companyID, authorized, issued)
	if err := db.Model(class).Update("lock_up_months", lockUpMonths).Error; err != nil {
		t.Fatalf("failed to set lock-up months: %v", err)
	}
	class.LockUpMonths = &lockUpMonths
	return class
}

// CreateTestHolding creates a shareholding with zero percentage columns.
func CreateTestHolding(t *testing.T, db *gorm.DB, companyID, shareholderID, classID string, quantity int64) *models.Shareholding {
	t.Helper()

	holding := &models.Shareholding{
		CompanyID:     companyID,
		ShareholderID: shareholderID,
		ShareClassID:  classID,
		Quantity:      decimal.NewFromInt(quantity),
		OwnershipPct:  decimal.Zero,
		VotingPct:     decimal.Zero,
	}
	if err := db.Create(holding).Error; err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return holding
}

// CreateTestGrant creates an active option grant with a 12-month cliff at
// 25 percent and 48 months of total vesting.
func CreateTestGrant(t *testing.T, db *gorm.DB, companyID, shareholderID, classID string, quantity int64, grantDate time.Time) *models.OptionGrant {
	t.Helper()

	grant := &models.OptionGrant{
		CompanyID:         companyID,
		ShareholderID:     shareholderID,
		ShareClassID:      classID,
		Quantity:          decimal.NewFromInt(quantity),
		QuantityExercised: decimal.Zero,
		GrantDate:         grantDate,
		CliffMonths:       12,
		VestingMonths:     48,
		CliffPct:          decimal.NewFromInt(25),
		Status:            models.OptionGrantStatusActive,
	}
	if err := db.Create(grant).Error; err != nil {
		t.Fatalf("failed to create test grant: %v", err)
	}
	return grant
}

// CreateTestTransaction creates a transaction in the given status.
func CreateTestTransaction(t *testing.T, db *gorm.DB, companyID, createdBy string, txType models.TransactionType, status models.TransactionStatus, classID string, quantity int64) *models.Transaction {
	t.Helper()

	txn := &models.Transaction{
		CompanyID:    companyID,
		Type:         txType,
		Status:       status,
		ShareClassID: classID,
		Quantity:     decimal.NewFromInt(quantity),
		CreatedBy:    createdBy,
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return txn
}
