package services

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"
	"gorm.io/gorm"

	apperrors "captable/internal/errors"
	"captable/internal/events"
	"captable/internal/models"
	"captable/internal/pagination"
)

// snapshotService captures immutable cap-table snapshots and reconstructs
// historical views from them.
type snapshotService struct {
	db             *gorm.DB
	companyService CompanyServicer
}

// NewSnapshotService creates a new SnapshotServicer.
func NewSnapshotService(db *gorm.DB, companyService CompanyServicer) SnapshotServicer {
	return &snapshotService{db: db, companyService: companyService}
}

// CreateManualSnapshot captures the current cap table under an explicit
// effective date. The date may not be in the future.
func (s *snapshotService) CreateManualSnapshot(actorID, companyID string, date time.Time, notes string) (*models.CapTableSnapshot, error) {
	if _, err := s.companyService.GetActiveCompany(companyID); err != nil {
		return nil, err
	}
	if date.After(time.Now()) {
		return nil, apperrors.WithDetails(apperrors.ErrSnapshotDateInFuture, map[string]any{
			"date": date.Format(time.RFC3339),
		})
	}
	return s.Capture(companyID, date, models.SnapshotTriggerManual, notes)
}

// Capture persists an immutable snapshot of the company's current
// holdings. Entries are content-hashed so two snapshots of the same state
// always carry the same hash regardless of read order.
func (s *snapshotService) Capture(companyID string, date time.Time, trigger, notes string) (*models.CapTableSnapshot, error) {
	var holdings []models.Shareholding
	if err := s.db.Where("company_id = ?", companyID).Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	entries := make([]models.SnapshotEntry, 0, len(holdings))
	totalShares := decimal.Zero
	for i := range holdings {
		totalShares = totalShares.Add(holdings[i].Quantity)
		entries = append(entries, models.SnapshotEntry{
			ShareholderID: holdings[i].ShareholderID,
			ShareClassID:  holdings[i].ShareClassID,
			Shares:        holdings[i].Quantity,
			OwnershipPct:  holdings[i].OwnershipPct,
		})
	}

	sortEntries(entries)

	encoded, err := json.Marshal(entries)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	snapshot := &models.CapTableSnapshot{
		CompanyID:    companyID,
		SnapshotDate: date,
		Entries:      string(encoded),
		TotalShares:  totalShares,
		Trigger:      trigger,
		Notes:        notes,
		ContentHash:  ComputeSnapshotHash(entries, totalShares),
	}
	if err := s.db.Create(snapshot).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return snapshot, nil
}

// HandleTransactionConfirmed captures an automatic snapshot after a
// confirmed transaction. Wired to the event dispatcher; failures are
// logged by the dispatcher, never surfaced to the confirm call.
func (s *snapshotService) HandleTransactionConfirmed(evt events.Event) error {
	_, err := s.Capture(evt.CompanyID, time.Now(), models.SnapshotTriggerTransactionConfirmed, "")
	return err
}

// GetSnapshots returns a company's snapshots within [from, to], newest first.
func (s *snapshotService) GetSnapshots(companyID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.CapTableSnapshot], error) {
	if _, err := s.companyService.GetCompanyByID(companyID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.CapTableSnapshot{}).Where("company_id = ?", companyID)
	if !from.IsZero() {
		base = base.Where("snapshot_date >= ?", from)
	}
	if !to.IsZero() {
		base = base.Where("snapshot_date <= ?", to)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.CapTableSnapshot
	if err := base.Scopes(pagination.Paginate(page)).
		Order("snapshot_date DESC").
		Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetSnapshotAtDate returns the latest snapshot taken at or before the
// given date.
func (s *snapshotService) GetSnapshotAtDate(companyID string, date time.Time) (*models.CapTableSnapshot, error) {
	if _, err := s.companyService.GetCompanyByID(companyID); err != nil {
		return nil, err
	}

	var snapshot models.CapTableSnapshot
	err := s.db.Where("company_id = ? AND snapshot_date <= ?", companyID, date).
		Order("snapshot_date DESC, created_at DESC").
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSnapshotNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &snapshot, nil
}

// DilutionTimeline reconstructs the cap table at evenly spaced dates in
// [from, to]. Each point carries the state of the latest snapshot at or
// before its date, aggregated by share class; dates before the first
// snapshot produce an empty point.
func (s *snapshotService) DilutionTimeline(companyID string, from, to time.Time, granularity Granularity) ([]TimelinePoint, error) {
	if _, err := s.companyService.GetCompanyByID(companyID); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "timeline end must not precede its start")
	}

	step, err := granularityStep(granularity)
	if err != nil {
		return nil, err
	}

	var snapshots []models.CapTableSnapshot
	if err := s.db.Where("company_id = ? AND snapshot_date <= ?", companyID, to).
		Order("snapshot_date ASC, created_at ASC").
		Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	points := []TimelinePoint{}
	for date := from; !date.After(to); date = step(date) {
		point := TimelinePoint{Date: date, TotalShares: decimal.Zero, ByClass: []TimelineSlice{}}

		snapshot := latestAtOrBefore(snapshots, date)
		if snapshot != nil {
			var entries []models.SnapshotEntry
			if err := json.Unmarshal([]byte(snapshot.Entries), &entries); err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			byClass := make(map[string]decimal.Decimal)
			classOrder := []string{}
			for _, e := range entries {
				if _, seen := byClass[e.ShareClassID]; !seen {
					classOrder = append(classOrder, e.ShareClassID)
				}
				byClass[e.ShareClassID] = byClass[e.ShareClassID].Add(e.Shares)
			}
			sort.Strings(classOrder)

			for _, classID := range classOrder {
				point.ByClass = append(point.ByClass, TimelineSlice{ShareClassID: classID, Shares: byClass[classID]})
			}
			point.TotalShares = snapshot.TotalShares
			point.SnapshotID = snapshot.ID
		}
		points = append(points, point)
	}
	return points, nil
}

// ComputeSnapshotHash derives the deterministic content hash of a set of
// snapshot entries. Entries are canonically ordered before hashing, so the
// hash depends only on the captured state.
func ComputeSnapshotHash(entries []models.SnapshotEntry, totalShares decimal.Decimal) string {
	ordered := make([]models.SnapshotEntry, len(entries))
	copy(ordered, entries)
	sortEntries(ordered)

	h := sha3.New256()
	for _, e := range ordered {
		h.Write([]byte(e.ShareholderID))
		h.Write([]byte{'|'})
		h.Write([]byte(e.ShareClassID))
		h.Write([]byte{'|'})
		h.Write([]byte(e.Shares.String()))
		h.Write([]byte{'|'})
		h.Write([]byte(e.OwnershipPct.String()))
		h.Write([]byte{'\n'})
	}
	h.Write([]byte(totalShares.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// sortEntries orders entries by shareholder then share class.
func sortEntries(entries []models.SnapshotEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ShareholderID != entries[j].ShareholderID {
			return entries[i].ShareholderID < entries[j].ShareholderID
		}
		return entries[i].ShareClassID < entries[j].ShareClassID
	})
}

// latestAtOrBefore returns the last snapshot dated at or before date.
// Snapshots must be sorted ascending.
func latestAtOrBefore(snapshots []models.CapTableSnapshot, date time.Time) *models.CapTableSnapshot {
	var found *models.CapTableSnapshot
	for i := range snapshots {
		if snapshots[i].SnapshotDate.After(date) {
			break
		}
		found = &snapshots[i]
	}
	return found
}

// granularityStep maps a granularity to its date-advancing function.
func granularityStep(g Granularity) (func(time.Time) time.Time, error) {
	switch g {
	case GranularityDay:
		return func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }, nil
	case GranularityWeek:
		return func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }, nil
	case GranularityMonth:
		return func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }, nil
	}
	return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "granularity must be day, week, or month")
}
