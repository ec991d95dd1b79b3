package services

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"captable/internal/decimals"
	apperrors "captable/internal/errors"
	"captable/internal/logger"
	"captable/internal/models"
)

// recalcTolerance is the acceptable drift between the sum of ownership
// percentages and 100 before a warning is logged. Rounding each row to
// six places can accumulate up to this much error.
var recalcTolerance = decimal.NewFromFloat(0.02)

// CapTableExport is a structured, interchange-friendly rendering of a
// company's equity records.
type CapTableExport struct {
	GeneratedAt  time.Time           `json:"generated_at"`
	Issuer       ExportIssuer        `json:"issuer"`
	StockClasses []ExportStockClass  `json:"stock_classes"`
	Stockholders []ExportStockholder `json:"stockholders"`
	Issuances    []ExportIssuance    `json:"issuances"`
}

// ExportIssuer identifies the company in an export.
type ExportIssuer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	LegalName   string `json:"legal_name,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// ExportStockClass is one share class in an export.
type ExportStockClass struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Kind            string          `json:"kind"`
	VotesPerShare   decimal.Decimal `json:"votes_per_share"`
	TotalAuthorized decimal.Decimal `json:"total_authorized"`
	TotalIssued     decimal.Decimal `json:"total_issued"`
}

// ExportStockholder is one holder in an export. Tax identifiers are
// masked down to their last four characters.
type ExportStockholder struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	CountryCode string `json:"country_code,omitempty"`
	TaxID       string `json:"tax_id,omitempty"`
}

// ExportIssuance is one confirmed issuance event in an export.
type ExportIssuance struct {
	TransactionID string           `json:"transaction_id"`
	StockholderID string           `json:"stockholder_id"`
	StockClassID  string           `json:"stock_class_id"`
	Quantity      decimal.Decimal  `json:"quantity"`
	PricePerShare *decimal.Decimal `json:"price_per_share,omitempty"`
	ConfirmedAt   *time.Time       `json:"confirmed_at,omitempty"`
}

// capTableService computes derived ownership views and keeps the stored
// percentage columns in sync with holdings.
type capTableService struct {
	db             *gorm.DB
	companyService CompanyServicer
}

// NewCapTableService creates a new CapTableServicer.
func NewCapTableService(db *gorm.DB, companyService CompanyServicer) CapTableServicer {
	return &capTableService{db: db, companyService: companyService}
}

// Recalculate recomputes ownership and voting percentages for every
// holding of the company from current quantities. Percentages are rounded
// to six decimal places; if the rounded rows sum more than the tolerance
// away from 100 a warning is logged but the result stands.
func (s *capTableService) Recalculate(companyID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var holdings []models.Shareholding
		if err := tx.Where("company_id = ?", companyID).Find(&holdings).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(holdings) == 0 {
			return nil
		}

		classes, err := classVotesByID(tx, companyID)
		if err != nil {
			return err
		}

		totalShares := decimal.Zero
		totalVotes := decimal.Zero
		for i := range holdings {
			totalShares = totalShares.Add(holdings[i].Quantity)
			totalVotes = totalVotes.Add(holdings[i].Quantity.Mul(classes[holdings[i].ShareClassID]))
		}

		ownershipSum := decimal.Zero
		for i := range holdings {
			ownershipPct := decimals.Percent(holdings[i].Quantity, totalShares)
			votingPct := decimals.Percent(holdings[i].Quantity.Mul(classes[holdings[i].ShareClassID]), totalVotes)
			ownershipSum = ownershipSum.Add(ownershipPct)

			if err := tx.Model(&holdings[i]).Updates(map[string]any{
				"ownership_pct": ownershipPct,
				"voting_pct":    votingPct,
			}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if totalShares.IsPositive() {
			drift := ownershipSum.Sub(decimal.NewFromInt(100)).Abs()
			if drift.GreaterThan(recalcTolerance) {
				logger.Get().Warnw("ownership percentages drift beyond tolerance",
					"company_id", companyID,
					"sum", ownershipSum.String(),
					"drift", drift.String(),
				)
			}
		}
		return nil
	})
}

// CurrentOwnership returns the cap table from confirmed holdings only.
func (s *capTableService) CurrentOwnership(companyID string) (*CapTableView, error) {
	if _, err := s.companyService.GetCompanyByID(companyID); err != nil {
		return nil, err
	}

	holdings, err := s.companyHoldings(companyID)
	if err != nil {
		return nil, err
	}

	view := &CapTableView{CompanyID: companyID, TotalShares: decimal.Zero, Entries: []OwnershipEntry{}}
	for i := range holdings {
		view.TotalShares = view.TotalShares.Add(holdings[i].Quantity)
		view.Entries = append(view.Entries, OwnershipEntry{
			ShareholderID:   holdings[i].ShareholderID,
			ShareholderName: holdings[i].Shareholder.Name,
			ShareClassID:    holdings[i].ShareClassID,
			ShareClassName:  holdings[i].ShareClass.Name,
			Quantity:        holdings[i].Quantity,
			OwnershipPct:    holdings[i].OwnershipPct,
			VotingPct:       holdings[i].VotingPct,
		})
	}
	return view, nil
}

// FullyDiluted returns the cap table as if every unexercised option were
// exercised today. Percentages are recomputed over the enlarged pool and
// are not persisted.
func (s *capTableService) FullyDiluted(companyID string) (*CapTableView, error) {
	if _, err := s.companyService.GetCompanyByID(companyID); err != nil {
		return nil, err
	}

	holdings, err := s.companyHoldings(companyID)
	if err != nil {
		return nil, err
	}

	var grants []models.OptionGrant
	if err := s.db.Preload("Shareholder").Preload("ShareClass").
		Where("company_id = ? AND status = ?", companyID, models.OptionGrantStatusActive).
		Find(&grants).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	type key struct{ shareholderID, classID string }
	quantities := make(map[key]decimal.Decimal)
	names := make(map[key][2]string)
	order := []key{}

	add := func(k key, q decimal.Decimal, shareholderName, className string) {
		if _, seen := quantities[k]; !seen {
			order = append(order, k)
			names[k] = [2]string{shareholderName, className}
		}
		quantities[k] = quantities[k].Add(q)
	}

	for i := range holdings {
		k := key{holdings[i].ShareholderID, holdings[i].ShareClassID}
		add(k, holdings[i].Quantity, holdings[i].Shareholder.Name, holdings[i].ShareClass.Name)
	}
	for i := range grants {
		remaining := grants[i].Quantity.Sub(grants[i].QuantityExercised)
		if !remaining.IsPositive() {
			continue
		}
		k := key{grants[i].ShareholderID, grants[i].ShareClassID}
		add(k, remaining, grants[i].Shareholder.Name, grants[i].ShareClass.Name)
	}

	total := decimal.Zero
	for _, k := range order {
		total = total.Add(quantities[k])
	}

	view := &CapTableView{CompanyID: companyID, TotalShares: total, FullyDiluted: true, Entries: []OwnershipEntry{}}
	for _, k := range order {
		view.Entries = append(view.Entries, OwnershipEntry{
			ShareholderID:   k.shareholderID,
			ShareholderName: names[k][0],
			ShareClassID:    k.classID,
			ShareClassName:  names[k][1],
			Quantity:        quantities[k],
			OwnershipPct:    decimals.Percent(quantities[k], total),
		})
	}
	return view, nil
}

// Export renders the company's equity records as a structured document:
// issuer, stock classes, stockholders, and confirmed issuance events.
func (s *capTableService) Export(companyID string) (*CapTableExport, error) {
	company, err := s.companyService.GetCompanyByID(companyID)
	if err != nil {
		return nil, err
	}

	var classes []models.ShareClass
	if err := s.db.Where("company_id = ?", companyID).Order("name ASC").Find(&classes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var shareholders []models.Shareholder
	if err := s.db.Where("company_id = ?", companyID).Order("name ASC").Find(&shareholders).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var issuances []models.Transaction
	if err := s.db.Where("company_id = ? AND type = ? AND status = ?",
		companyID, models.TransactionTypeIssuance, models.TransactionStatusConfirmed).
		Order("confirmed_at ASC").
		Find(&issuances).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	export := &CapTableExport{
		GeneratedAt: time.Now().UTC(),
		Issuer: ExportIssuer{
			ID:          company.ID,
			Name:        company.Name,
			LegalName:   company.LegalName,
			CountryCode: company.CountryCode,
		},
		StockClasses: []ExportStockClass{},
		Stockholders: []ExportStockholder{},
		Issuances:    []ExportIssuance{},
	}

	for i := range classes {
		export.StockClasses = append(export.StockClasses, ExportStockClass{
			ID:              classes[i].ID,
			Name:            classes[i].Name,
			Kind:            string(classes[i].Kind),
			VotesPerShare:   classes[i].VotesPerShare,
			TotalAuthorized: classes[i].TotalAuthorized,
			TotalIssued:     classes[i].TotalIssued,
		})
	}
	for i := range shareholders {
		export.Stockholders = append(export.Stockholders, ExportStockholder{
			ID:          shareholders[i].ID,
			Name:        shareholders[i].Name,
			Kind:        string(shareholders[i].Kind),
			CountryCode: shareholders[i].CountryCode,
			TaxID:       maskTaxID(shareholders[i].TaxID),
		})
	}
	for i := range issuances {
		if issuances[i].ToShareholderID == nil {
			continue
		}
		export.Issuances = append(export.Issuances, ExportIssuance{
			TransactionID: issuances[i].ID,
			StockholderID: *issuances[i].ToShareholderID,
			StockClassID:  issuances[i].ShareClassID,
			Quantity:      issuances[i].Quantity,
			PricePerShare: issuances[i].PricePerShare,
			ConfirmedAt:   issuances[i].ConfirmedAt,
		})
	}
	return export, nil
}

// ConcentrationReport computes distribution analytics over current
// holdings aggregated per shareholder: the Gini coefficient of share
// quantities and the percentage held by shareholders whose country
// differs from the company's.
func (s *capTableService) ConcentrationReport(companyID string) (*ConcentrationReport, error) {
	company, err := s.companyService.GetCompanyByID(companyID)
	if err != nil {
		return nil, err
	}

	holdings, err := s.companyHoldings(companyID)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]decimal.Decimal)
	countries := make(map[string]string)
	for i := range holdings {
		totals[holdings[i].ShareholderID] = totals[holdings[i].ShareholderID].Add(holdings[i].Quantity)
		countries[holdings[i].ShareholderID] = holdings[i].Shareholder.CountryCode
	}

	report := &ConcentrationReport{
		CompanyID:       companyID,
		GiniCoefficient: decimal.Zero,
		ForeignPct:      decimal.Zero,
		HolderCount:     len(totals),
	}
	if len(totals) == 0 {
		return report, nil
	}

	quantities := make([]decimal.Decimal, 0, len(totals))
	totalShares := decimal.Zero
	foreignShares := decimal.Zero
	for shareholderID, quantity := range totals {
		quantities = append(quantities, quantity)
		totalShares = totalShares.Add(quantity)
		if countries[shareholderID] != "" && countries[shareholderID] != company.CountryCode {
			foreignShares = foreignShares.Add(quantity)
		}
	}

	report.GiniCoefficient = gini(quantities, totalShares)
	report.ForeignPct = decimals.Percent(foreignShares, totalShares)
	return report, nil
}

// gini computes the Gini coefficient of the given quantities, which must
// sum to total. Zero means perfectly even distribution.
func gini(quantities []decimal.Decimal, total decimal.Decimal) decimal.Decimal {
	n := len(quantities)
	if n == 0 || total.IsZero() {
		return decimal.Zero
	}

	sort.Slice(quantities, func(i, j int) bool {
		return quantities[i].LessThan(quantities[j])
	})

	weighted := decimal.Zero
	for i, q := range quantities {
		// rank weight 2i - n - 1 for ascending 1-based rank i.
		weight := decimal.NewFromInt(int64(2*(i+1) - n - 1))
		weighted = weighted.Add(q.Mul(weight))
	}

	denominator := decimal.NewFromInt(int64(n)).Mul(total)
	return weighted.Abs().DivRound(denominator, decimals.PercentPlaces)
}

// maskTaxID keeps the last four characters of a tax identifier.
func maskTaxID(taxID string) string {
	if taxID == "" {
		return ""
	}
	if len(taxID) <= 4 {
		return strings.Repeat("*", len(taxID))
	}
	return strings.Repeat("*", len(taxID)-4) + taxID[len(taxID)-4:]
}

func (s *capTableService) companyHoldings(companyID string) ([]models.Shareholding, error) {
	var holdings []models.Shareholding
	if err := s.db.Preload("Shareholder").Preload("ShareClass").
		Where("company_id = ?", companyID).
		Order("quantity DESC").
		Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return holdings, nil
}

func classVotesByID(tx *gorm.DB, companyID string) (map[string]decimal.Decimal, error) {
	var classes []models.ShareClass
	if err := tx.Where("company_id = ?", companyID).Find(&classes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	votes := make(map[string]decimal.Decimal, len(classes))
	for i := range classes {
		votes[classes[i].ID] = classes[i].VotesPerShare
	}
	return votes, nil
}
