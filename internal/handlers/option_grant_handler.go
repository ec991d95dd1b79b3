package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"captable/internal/decimals"
	apperrors "captable/internal/errors"
	"captable/internal/pagination"
	"captable/internal/services"
)

// OptionGrantHandler handles option-grant requests.
type OptionGrantHandler struct {
	grantService services.OptionGrantServicer
	auditService services.AuditServicer
}

// NewOptionGrantHandler creates a new OptionGrantHandler.
func NewOptionGrantHandler(grantService services.OptionGrantServicer, auditService services.AuditServicer) *OptionGrantHandler {
	return &OptionGrantHandler{grantService: grantService, auditService: auditService}
}

// CreateGrantRequest represents the request payload for creating an option grant
type CreateGrantRequest struct {
	ShareholderID string  `json:"shareholder_id" binding:"required,uuid7"`
	ShareClassID  string  `json:"share_class_id" binding:"required,uuid7"`
	Quantity      string  `json:"quantity" binding:"required"`
	StrikePrice   *string `json:"strike_price"`
	GrantDate     string  `json:"grant_date" binding:"required"`
	CliffMonths   int     `json:"cliff_months" binding:"min=0"`
	VestingMonths int     `json:"vesting_months" binding:"required,min=1"`
	CliffPct      string  `json:"cliff_pct" binding:"required"`
}

// CreateGrant handles the creation of a new option grant
// @Summary     Create an option grant
// @Description Grant time-vested options with a cliff and linear monthly vesting
// @Tags        option-grants
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       request body CreateGrantRequest true "Grant details"
// @Success     201 {object} models.OptionGrant "Grant created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company, shareholder, or share class not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/grants [post]
func (h *OptionGrantHandler) CreateGrant(c *gin.Context) {
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

	var req CreateGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	quantity, err := decimals.ParsePositive(req.Quantity)
	if err != nil {
		respondWithError(c, err)
		return
	}
	strikePrice, err := parseOptionalDecimal(req.StrikePrice)
	if err != nil {
		respondWithError(c, err)
		return
	}
	cliffPct, err := decimals.Parse(req.CliffPct)
	if err != nil {
		respondWithError(c, err)
		return
	}
	grantDate, err := parseFlexibleTime(req.GrantDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	grant, err := h.grantService.CreateGrant(userID, services.CreateGrantInput{
		CompanyID:     companyID,
		ShareholderID: req.ShareholderID,
		ShareClassID:  req.ShareClassID,
		Quantity:      quantity,
		StrikePrice:   strikePrice,
		GrantDate:     grantDate,
		CliffMonths:   req.CliffMonths,
		VestingMonths: req.VestingMonths,
		CliffPct:      cliffPct,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_OPTION_GRANT", "option_grant", grant.ID, c.ClientIP(),
		map[string]interface{}{"shareholder_id": req.ShareholderID, "quantity": req.Quantity})

	c.JSON(http.StatusCreated, gin.H{"grant": grant})
}

// GetGrants handles listing a company's option grants
// @Summary     List option grants
// @Description Get a paginated list of a company's option grants
// @Tags        option-grants
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.OptionGrant] "Grants"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/grants [get]
func (h *OptionGrantHandler) GetGrants(c *gin.Context) {
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

	result, err := h.grantService.GetCompanyGrants(companyID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetVestingSummary handles a grant's vesting breakdown
// @Summary     Get vesting summary
// @Description Break a grant's quantity into vested, unvested, and exercised at a date
// @Tags        option-grants
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       id path string true "Grant ID"
// @Param       as_of query string false "Date (RFC 3339 or YYYY-MM-DD), defaults to now"
// @Success     200 {object} services.VestingSummary "Vesting summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Grant not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/grants/{id}/vesting [get]
func (h *OptionGrantHandler) GetVestingSummary(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	grantID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	asOf, err := parseDateQuery(c, "as_of")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	summary, err := h.grantService.VestingSummary(grantID, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vesting": summary})
}

// ExerciseGrantRequest represents the request payload for exercising options
type ExerciseGrantRequest struct {
	Quantity string `json:"quantity" binding:"required"`
}

// ExerciseGrant handles exercising vested options
// @Summary     Exercise options
// @Description Exercise a quantity of vested, unexercised options
// @Tags        option-grants
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       id path string true "Grant ID"
// @Param       request body ExerciseGrantRequest true "Exercise details"
// @Success     200 {object} models.OptionGrant "Grant updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Grant not found"
// @Failure     422 {object} ErrorResponse "Exceeds vested shares"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/grants/{id}/exercise [post]
func (h *OptionGrantHandler) ExerciseGrant(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	grantID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ExerciseGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	quantity, err := decimals.ParsePositive(req.Quantity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	grant, err := h.grantService.Exercise(userID, grantID, quantity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "EXERCISE_OPTION_GRANT", "option_grant", grant.ID, c.ClientIP(),
		map[string]interface{}{"quantity": req.Quantity})

	c.JSON(http.StatusOK, gin.H{"grant": grant})
}
