package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "captable/internal/errors"
	"captable/internal/pagination"
	"captable/internal/services"
)

// SnapshotHandler handles snapshot and timeline requests.
type SnapshotHandler struct {
	snapshotService services.SnapshotServicer
	auditService    services.AuditServicer
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(snapshotService services.SnapshotServicer, auditService services.AuditServicer) *SnapshotHandler {
	return &SnapshotHandler{snapshotService: snapshotService, auditService: auditService}
}

// CreateSnapshotRequest represents the request payload for a manual snapshot
type CreateSnapshotRequest struct {
	Date  string `json:"date" binding:"required"`
	Notes string `json:"notes" binding:"max=1000"`
}

// CreateSnapshot handles the creation of a manual snapshot
// @Summary     Create a snapshot
// @Description Capture the current cap table under an explicit effective date
// @Tags        snapshots
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       request body CreateSnapshotRequest true "Snapshot details"
// @Success     201 {object} models.CapTableSnapshot "Snapshot created"
// @Failure     400 {object} ErrorResponse "Invalid input or future date"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/snapshots [post]
func (h *SnapshotHandler) CreateSnapshot(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	companyID, err := parsePathID(c, "companyId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseFlexibleTime(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshot, err := h.snapshotService.CreateManualSnapshot(userID, companyID, date, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_SNAPSHOT", "snapshot", snapshot.ID, c.ClientIP(),
		map[string]interface{}{"date": req.Date})

	c.JSON(http.StatusCreated, gin.H{"snapshot": snapshot})
}

// GetSnapshots handles listing a company's snapshots
// @Summary     List snapshots
// @Description Get a paginated list of snapshots, optionally within a date range
// @Tags        snapshots
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       from query string false "Start date (RFC 3339 or YYYY-MM-DD)"
// @Param       to query string false "End date (RFC 3339 or YYYY-MM-DD)"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.CapTableSnapshot] "Snapshots"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/snapshots [get]
func (h *SnapshotHandler) GetSnapshots(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	companyID, err := parsePathID(c, "companyId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	from, err := parseDateQuery(c, "from")
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.snapshotService.GetSnapshots(companyID, from, to, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSnapshotAtDate handles historical cap-table lookup
// @Summary     Get snapshot at date
// @Description Get the latest snapshot taken at or before the given date
// @Tags        snapshots
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       date query string true "Date (RFC 3339 or YYYY-MM-DD)"
// @Success     200 {object} models.CapTableSnapshot "Snapshot"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No snapshot at or before the date"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/snapshots/at [get]
func (h *SnapshotHandler) GetSnapshotAtDate(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	companyID, err := parsePathID(c, "companyId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	date, err := parseDateQuery(c, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if date.IsZero() {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required"))
		return
	}

	snapshot, err := h.snapshotService.GetSnapshotAtDate(companyID, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshot": snapshot})
}

// GetDilutionTimeline handles dilution-timeline reconstruction
// @Summary     Get dilution timeline
// @Description Reconstruct the cap table at evenly spaced dates from snapshots
// @Tags        snapshots
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       from query string true "Start date (RFC 3339 or YYYY-MM-DD)"
// @Param       to query string true "End date (RFC 3339 or YYYY-MM-DD)"
// @Param       granularity query string true "Point spacing: day, week, or month"
// @Success     200 {array} services.TimelinePoint "Timeline points"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/snapshots/timeline [get]
func (h *SnapshotHandler) GetDilutionTimeline(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	companyID, err := parsePathID(c, "companyId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, err := parseDateQuery(c, "from")
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if from.IsZero() || to.IsZero() {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from and to are required"))
		return
	}

	granularity := services.Granularity(c.DefaultQuery("granularity", string(services.GranularityMonth)))

	points, err := h.snapshotService.DilutionTimeline(companyID, from, to, granularity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"timeline": points})
}
