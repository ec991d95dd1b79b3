package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"captable/internal/decimals"
	apperrors "captable/internal/errors"
	"captable/internal/models"
	"captable/internal/pagination"
	"captable/internal/services"
)

// ShareClassHandler handles share-class-related requests.
type ShareClassHandler struct {
	shareClassService services.ShareClassServicer
	auditService      services.AuditServicer
}

// NewShareClassHandler creates a new ShareClassHandler.
func NewShareClassHandler(shareClassService services.ShareClassServicer, auditService services.AuditServicer) *ShareClassHandler {
	return &ShareClassHandler{shareClassService: shareClassService, auditService: auditService}
}

// CreateShareClassRequest represents the request payload for creating a share class.
// Quantities are exact decimal strings.
type CreateShareClassRequest struct {
	Name            string                `json:"name" binding:"required,max=255"`
	Kind            models.ShareClassKind `json:"kind" binding:"required,share_class_kind"`
	VotesPerShare   string                `json:"votes_per_share" binding:"required"`
	TotalAuthorized string                `json:"total_authorized" binding:"required"`
	LockUpMonths    *int                  `json:"lock_up_months" binding:"omitempty,min=0"`
	ConversionRatio *string               `json:"conversion_ratio"`
}

// CreateShareClass handles the creation of a new share class
// @Summary     Create a share class
// @Description Create a new share class with an authorization limit and voting weight
// @Tags        share-classes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       request body CreateShareClassRequest true "Share class details"
// @Success     201 {object} models.ShareClass "Share class created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/share-classes [post]
func (h *ShareClassHandler) CreateShareClass(c *gin.Context) {
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

	var req CreateShareClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	votesPerShare, err := decimals.Parse(req.VotesPerShare)
	if err != nil {
		respondWithError(c, err)
		return
	}
	totalAuthorized, err := decimals.ParsePositive(req.TotalAuthorized)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var conversionRatio *decimal.Decimal
	if req.ConversionRatio != nil {
		ratio, err := decimals.ParsePositive(*req.ConversionRatio)
		if err != nil {
			respondWithError(c, err)
			return
		}
		conversionRatio = &ratio
	}

	class, err := h.shareClassService.CreateShareClass(companyID, services.CreateShareClassInput{
		Name:            req.Name,
		Kind:            req.Kind,
		VotesPerShare:   votesPerShare,
		TotalAuthorized: totalAuthorized,
		LockUpMonths:    req.LockUpMonths,
		ConversionRatio: conversionRatio,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_SHARE_CLASS", "share_class", class.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "total_authorized": req.TotalAuthorized})

	c.JSON(http.StatusCreated, gin.H{"share_class": class})
}

// GetShareClasses handles listing a company's share classes
// @Summary     List share classes
// @Description Get a paginated list of a company's share classes
// @Tags        share-classes
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.ShareClass] "Share classes"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/share-classes [get]
func (h *ShareClassHandler) GetShareClasses(c *gin.Context) {
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

	result, err := h.shareClassService.GetCompanyShareClasses(companyID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetShareClassByID handles the retrieval of a specific share class
// @Summary     Get share class by ID
// @Description Get a specific share class of a company
// @Tags        share-classes
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       id path string true "Share class ID"
// @Success     200 {object} models.ShareClass "Share class details"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Share class not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/share-classes/{id} [get]
func (h *ShareClassHandler) GetShareClassByID(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	companyID, err := parsePathID(c, "companyId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	classID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	class, err := h.shareClassService.GetShareClassByID(companyID, classID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"share_class": class})
}
