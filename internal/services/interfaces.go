package services

import (
	"time"

	"github.com/shopspring/decimal"

	"captable/internal/events"
	"captable/internal/models"
	"captable/internal/pagination"
)

// CompanyServicer defines the contract for company-related business logic.
type CompanyServicer interface {
	CreateCompany(name, legalName, countryCode string) (*models.Company, error)
	GetCompanyByID(id string) (*models.Company, error)
	GetActiveCompany(id string) (*models.Company, error)
	UpdateCompanyStatus(id string, status models.CompanyStatus) (*models.Company, error)
}

// ShareholderServicer defines the contract for shareholder-related business logic.
type ShareholderServicer interface {
	CreateShareholder(companyID, name string, kind models.ShareholderKind, email, countryCode, taxID string) (*models.Shareholder, error)
	GetShareholderByID(companyID, shareholderID string) (*models.Shareholder, error)
	GetCompanyShareholders(companyID string, page pagination.PageRequest) (*pagination.PageResponse[models.Shareholder], error)
	UpdateShareholderStatus(companyID, shareholderID string, status models.ShareholderStatus) (*models.Shareholder, error)
}

// CreateShareClassInput holds the fields needed to create a share class.
type CreateShareClassInput struct {
	Name            string
	Kind            models.ShareClassKind
	VotesPerShare   decimal.Decimal
	TotalAuthorized decimal.Decimal
	LockUpMonths    *int
	ConversionRatio *decimal.Decimal
}

// ShareClassServicer defines the contract for share-class-related business logic.
type ShareClassServicer interface {
	CreateShareClass(companyID string, input CreateShareClassInput) (*models.ShareClass, error)
	GetShareClassByID(companyID, classID string) (*models.ShareClass, error)
	GetCompanyShareClasses(companyID string, page pagination.PageRequest) (*pagination.PageResponse[models.ShareClass], error)
}

// CreateTransactionInput holds the fields needed to propose a transaction.
type CreateTransactionInput struct {
	CompanyID          string
	Type               models.TransactionType
	FromShareholderID  *string
	ToShareholderID    *string
	ShareClassID       string
	Quantity           decimal.Decimal
	PricePerShare      *decimal.Decimal
	TargetShareClassID *string
	SplitRatio         *decimal.Decimal
	Notes              string
	RequiresApproval   bool
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Type          *models.TransactionType
	Status        *models.TransactionStatus
	ShareholderID *string
	ShareClassID  *string
	FromDate      *time.Time
	ToDate        *time.Time
}

// TransactionServicer defines the contract for the transaction state machine.
type TransactionServicer interface {
	CreateTransaction(actorID string, input CreateTransactionInput) (*models.Transaction, error)
	SubmitTransaction(actorID, transactionID string) (*models.Transaction, error)
	ApproveTransaction(actorID, transactionID string) (*models.Transaction, error)
	ConfirmTransaction(actorID, transactionID string) (*models.Transaction, error)
	CancelTransaction(actorID, transactionID string) (*models.Transaction, error)
	GetCompanyTransactions(companyID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(transactionID string) (*models.Transaction, error)
}

// OwnershipEntry is one row of a cap-table view.
type OwnershipEntry struct {
	ShareholderID   string          `json:"shareholder_id"`
	ShareholderName string          `json:"shareholder_name"`
	ShareClassID    string          `json:"share_class_id"`
	ShareClassName  string          `json:"share_class_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	OwnershipPct    decimal.Decimal `json:"ownership_pct"`
	VotingPct       decimal.Decimal `json:"voting_pct"`
}

// CapTableView is the current or fully-diluted ownership of a company.
type CapTableView struct {
	CompanyID    string           `json:"company_id"`
	TotalShares  decimal.Decimal  `json:"total_shares"`
	FullyDiluted bool             `json:"fully_diluted"`
	Entries      []OwnershipEntry `json:"entries"`
}

// ConcentrationReport aggregates ownership-distribution analytics computed
// from current holdings.
type ConcentrationReport struct {
	CompanyID       string          `json:"company_id"`
	GiniCoefficient decimal.Decimal `json:"gini_coefficient"`
	ForeignPct      decimal.Decimal `json:"foreign_ownership_pct"`
	HolderCount     int             `json:"holder_count"`
}

// CapTableServicer defines the contract for derived cap-table views and
// the ownership recalculation engine.
type CapTableServicer interface {
	Recalculate(companyID string) error
	CurrentOwnership(companyID string) (*CapTableView, error)
	FullyDiluted(companyID string) (*CapTableView, error)
	Export(companyID string) (*CapTableExport, error)
	ConcentrationReport(companyID string) (*ConcentrationReport, error)
}

// CreateGrantInput holds the fields needed to create an option grant.
type CreateGrantInput struct {
	CompanyID     string
	ShareholderID string
	ShareClassID  string
	Quantity      decimal.Decimal
	StrikePrice   *decimal.Decimal
	GrantDate     time.Time
	CliffMonths   int
	VestingMonths int
	CliffPct      decimal.Decimal
}

// VestingSummary breaks a grant's quantity down at a point in time.
type VestingSummary struct {
	GrantID           string          `json:"grant_id"`
	AsOf              time.Time       `json:"as_of"`
	Quantity          decimal.Decimal `json:"quantity"`
	Vested            decimal.Decimal `json:"vested"`
	VestedUnexercised decimal.Decimal `json:"vested_unexercised"`
	Unvested          decimal.Decimal `json:"unvested"`
	Exercised         decimal.Decimal `json:"exercised"`
}

// OptionGrantServicer defines the contract for option-grant business logic.
type OptionGrantServicer interface {
	CreateGrant(actorID string, input CreateGrantInput) (*models.OptionGrant, error)
	GetGrantByID(grantID string) (*models.OptionGrant, error)
	GetCompanyGrants(companyID string, page pagination.PageRequest) (*pagination.PageResponse[models.OptionGrant], error)
	VestingSummary(grantID string, asOf time.Time) (*VestingSummary, error)
	Exercise(actorID, grantID string, quantity decimal.Decimal) (*models.OptionGrant, error)
}

// Granularity is the spacing of dilution-timeline points.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// TimelineSlice is the aggregated position of one share class at a point.
type TimelineSlice struct {
	ShareClassID string          `json:"share_class_id"`
	Shares       decimal.Decimal `json:"shares"`
}

// TimelinePoint is the reconstructed cap-table state at one timeline date.
type TimelinePoint struct {
	Date        time.Time       `json:"date"`
	TotalShares decimal.Decimal `json:"total_shares"`
	ByClass     []TimelineSlice `json:"by_class"`
	SnapshotID  string          `json:"snapshot_id,omitempty"`
}

// SnapshotServicer defines the contract for snapshot capture and lookup.
type SnapshotServicer interface {
	CreateManualSnapshot(actorID, companyID string, date time.Time, notes string) (*models.CapTableSnapshot, error)
	Capture(companyID string, date time.Time, trigger, notes string) (*models.CapTableSnapshot, error)
	GetSnapshots(companyID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.CapTableSnapshot], error)
	GetSnapshotAtDate(companyID string, date time.Time) (*models.CapTableSnapshot, error)
	DilutionTimeline(companyID string, from, to time.Time, granularity Granularity) ([]TimelinePoint, error)
	HandleTransactionConfirmed(evt events.Event) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(actorID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}

// Notifier delivers fire-and-forget user messages. The real dispatcher is
// an external collaborator; the default implementation logs.
type Notifier interface {
	Notify(userID, subject, body string)
}
