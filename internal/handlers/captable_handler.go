package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"captable/internal/services"
)

// CapTableHandler handles cap-table view and analytics requests.
type CapTableHandler struct {
	capTableService services.CapTableServicer
	auditService    services.AuditServicer
}

// NewCapTableHandler creates a new CapTableHandler.
func NewCapTableHandler(capTableService services.CapTableServicer, auditService services.AuditServicer) *CapTableHandler {
	return &CapTableHandler{capTableService: capTableService, auditService: auditService}
}

// GetCapTable handles the retrieval of the current cap table
// @Summary     Get current cap table
// @Description Get the company's current ownership from confirmed holdings
// @Tags        cap-table
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Success     200 {object} services.CapTableView "Current cap table"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/cap-table [get]
func (h *CapTableHandler) GetCapTable(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	companyID, err := parsePathID(c, "companyId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	view, err := h.capTableService.CurrentOwnership(companyID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cap_table": view})
}

// GetFullyDiluted handles the retrieval of the fully diluted cap table
// @Summary     Get fully diluted cap table
// @Description Get ownership as if every unexercised option were exercised
// @Tags        cap-table
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Success     200 {object} services.CapTableView "Fully diluted cap table"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/cap-table/fully-diluted [get]
func (h *CapTableHandler) GetFullyDiluted(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	companyID, err := parsePathID(c, "companyId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	view, err := h.capTableService.FullyDiluted(companyID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cap_table": view})
}

// ExportCapTable handles exporting the company's equity records
// @Summary     Export cap table
// @Description Export issuer, stock classes, stockholders, and confirmed issuances as a structured document
// @Tags        cap-table
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Success     200 {object} services.CapTableExport "Export document"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/cap-table/export [get]
func (h *CapTableHandler) ExportCapTable(c *gin.Context) {
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

	export, err := h.capTableService.Export(companyID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "EXPORT_CAP_TABLE", "company", companyID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, export)
}

// GetConcentrationReport handles ownership-distribution analytics
// @Summary     Get concentration report
// @Description Get the Gini coefficient and foreign-ownership percentage of current holdings
// @Tags        cap-table
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Success     200 {object} services.ConcentrationReport "Concentration report"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/cap-table/concentration [get]
func (h *CapTableHandler) GetConcentrationReport(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	companyID, err := parsePathID(c, "companyId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.capTableService.ConcentrationReport(companyID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}
