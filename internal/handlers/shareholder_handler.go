package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "captable/internal/errors"
	"captable/internal/models"
	"captable/internal/pagination"
	"captable/internal/services"
)

// ShareholderHandler handles shareholder-related requests.
type ShareholderHandler struct {
	shareholderService services.ShareholderServicer
	auditService       services.AuditServicer
}

// NewShareholderHandler creates a new ShareholderHandler.
func NewShareholderHandler(shareholderService services.ShareholderServicer, auditService services.AuditServicer) *ShareholderHandler {
	return &ShareholderHandler{shareholderService: shareholderService, auditService: auditService}
}

// CreateShareholderRequest represents the request payload for creating a shareholder
type CreateShareholderRequest struct {
	Name        string                 `json:"name" binding:"required,max=255"`
	Kind        models.ShareholderKind `json:"kind" binding:"required,shareholder_kind"`
	Email       string                 `json:"email" binding:"omitempty,email"`
	CountryCode string                 `json:"country_code" binding:"omitempty,len=2"`
	TaxID       string                 `json:"tax_id" binding:"max=64"`
}

// CreateShareholder handles the registration of a new shareholder
// @Summary     Create a shareholder
// @Description Register a new shareholder for a company
// @Tags        shareholders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       request body CreateShareholderRequest true "Shareholder details"
// @Success     201 {object} models.Shareholder "Shareholder created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/shareholders [post]
func (h *ShareholderHandler) CreateShareholder(c *gin.Context) {
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

	var req CreateShareholderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	shareholder, err := h.shareholderService.CreateShareholder(companyID, req.Name, req.Kind, req.Email, req.CountryCode, req.TaxID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_SHAREHOLDER", "shareholder", shareholder.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "kind": req.Kind})

	c.JSON(http.StatusCreated, gin.H{"shareholder": shareholder})
}

// GetShareholders handles listing a company's shareholders
// @Summary     List shareholders
// @Description Get a paginated list of a company's shareholders
// @Tags        shareholders
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Shareholder] "Shareholders"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/shareholders [get]
func (h *ShareholderHandler) GetShareholders(c *gin.Context) {
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

	result, err := h.shareholderService.GetCompanyShareholders(companyID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetShareholderByID handles the retrieval of a specific shareholder
// @Summary     Get shareholder by ID
// @Description Get a specific shareholder of a company
// @Tags        shareholders
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       id path string true "Shareholder ID"
// @Success     200 {object} models.Shareholder "Shareholder details"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Shareholder not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/shareholders/{id} [get]
func (h *ShareholderHandler) GetShareholderByID(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	companyID, err := parsePathID(c, "companyId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	shareholderID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	shareholder, err := h.shareholderService.GetShareholderByID(companyID, shareholderID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"shareholder": shareholder})
}

// UpdateShareholderStatusRequest represents the request payload for changing a shareholder's status
type UpdateShareholderStatusRequest struct {
	Status models.ShareholderStatus `json:"status" binding:"required,shareholder_status"`
}

// UpdateShareholderStatus handles activating or deactivating a shareholder
// @Summary     Update shareholder status
// @Description Activate or deactivate a shareholder
// @Tags        shareholders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       id path string true "Shareholder ID"
// @Param       request body UpdateShareholderStatusRequest true "New status"
// @Success     200 {object} models.Shareholder "Shareholder updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Shareholder not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/shareholders/{id}/status [patch]
func (h *ShareholderHandler) UpdateShareholderStatus(c *gin.Context) {
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

	shareholderID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateShareholderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	shareholder, err := h.shareholderService.UpdateShareholderStatus(companyID, shareholderID, req.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_SHAREHOLDER_STATUS", "shareholder", shareholder.ID, c.ClientIP(),
		map[string]interface{}{"status": req.Status})

	c.JSON(http.StatusOK, gin.H{"shareholder": shareholder})
}
