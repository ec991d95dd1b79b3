package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "captable/internal/errors"
	"captable/internal/models"
	"captable/internal/services"
)

// CompanyHandler handles company-related requests.
type CompanyHandler struct {
	companyService services.CompanyServicer
	auditService   services.AuditServicer
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(companyService services.CompanyServicer, auditService services.AuditServicer) *CompanyHandler {
	return &CompanyHandler{companyService: companyService, auditService: auditService}
}

// CreateCompanyRequest represents the request payload for creating a company
type CreateCompanyRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	LegalName   string `json:"legal_name" binding:"max=255"`
	CountryCode string `json:"country_code" binding:"omitempty,len=2"`
}

// CreateCompany handles the creation of a new company
// @Summary     Create a company
// @Description Register a new company whose cap table will be managed
// @Tags        companies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCompanyRequest true "Company details"
// @Success     201 {object} models.Company "Company created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies [post]
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	company, err := h.companyService.CreateCompany(req.Name, req.LegalName, req.CountryCode)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_COMPANY", "company", company.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name})

	c.JSON(http.StatusCreated, gin.H{"company": company})
}

// GetCompany handles the retrieval of a company
// @Summary     Get company by ID
// @Description Get a company by its ID
// @Tags        companies
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Success     200 {object} models.Company "Company details"
// @Failure     400 {object} ErrorResponse "Invalid company ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId} [get]
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	companyID, err := parsePathID(c, "companyId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	company, err := h.companyService.GetCompanyByID(companyID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"company": company})
}

// UpdateCompanyStatusRequest represents the request payload for changing a company's status
type UpdateCompanyStatusRequest struct {
	Status models.CompanyStatus `json:"status" binding:"required,company_status"`
}

// UpdateCompanyStatus handles activating, suspending, or closing a company
// @Summary     Update company status
// @Description Change a company's lifecycle status
// @Tags        companies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       request body UpdateCompanyStatusRequest true "New status"
// @Success     200 {object} models.Company "Company updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/status [patch]
func (h *CompanyHandler) UpdateCompanyStatus(c *gin.Context) {
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

	var req UpdateCompanyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	company, err := h.companyService.UpdateCompanyStatus(companyID, req.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_COMPANY_STATUS", "company", company.ID, c.ClientIP(),
		map[string]interface{}{"status": req.Status})

	c.JSON(http.StatusOK, gin.H{"company": company})
}
