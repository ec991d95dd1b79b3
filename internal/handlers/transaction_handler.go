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

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// CreateTransactionRequest represents the request payload for proposing a
// transaction. Quantities, prices, and ratios are exact decimal strings.
type CreateTransactionRequest struct {
	Type               models.TransactionType `json:"type" binding:"required,transaction_type"`
	FromShareholderID  *string                `json:"from_shareholder_id" binding:"omitempty,uuid7"`
	ToShareholderID    *string                `json:"to_shareholder_id" binding:"omitempty,uuid7"`
	ShareClassID       string                 `json:"share_class_id" binding:"required,uuid7"`
	Quantity           string                 `json:"quantity" binding:"required"`
	PricePerShare      *string                `json:"price_per_share"`
	TargetShareClassID *string                `json:"target_share_class_id" binding:"omitempty,uuid7"`
	SplitRatio         *string                `json:"split_ratio"`
	Notes              string                 `json:"notes" binding:"max=1000"`
	RequiresApproval   bool                   `json:"requires_approval"`
}

// CreateTransaction handles the proposal of a new transaction
// @Summary     Create a transaction
// @Description Propose an ownership-changing transaction; no shares move until it is confirmed
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company, shareholder, or share class not found"
// @Failure     422 {object} ErrorResponse "Business rule violated"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
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

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	quantity, err := decimals.ParsePositive(req.Quantity)
	if err != nil {
		respondWithError(c, err)
		return
	}
	pricePerShare, err := parseOptionalDecimal(req.PricePerShare)
	if err != nil {
		respondWithError(c, err)
		return
	}
	splitRatio, err := parseOptionalDecimal(req.SplitRatio)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.CreateTransaction(userID, services.CreateTransactionInput{
		CompanyID:          companyID,
		Type:               req.Type,
		FromShareholderID:  req.FromShareholderID,
		ToShareholderID:    req.ToShareholderID,
		ShareClassID:       req.ShareClassID,
		Quantity:           quantity,
		PricePerShare:      pricePerShare,
		TargetShareClassID: req.TargetShareClassID,
		SplitRatio:         splitRatio,
		Notes:              req.Notes,
		RequiresApproval:   req.RequiresApproval,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", txn.ID, c.ClientIP(),
		map[string]interface{}{"type": req.Type, "quantity": req.Quantity, "share_class_id": req.ShareClassID})

	c.JSON(http.StatusCreated, gin.H{"transaction": txn})
}

// SubmitTransaction handles submitting a transaction for execution
// @Summary     Submit a transaction
// @Description Move a draft transaction to SUBMITTED, or PENDING_APPROVAL when approval is required
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction submitted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Invalid status transition"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/transactions/{id}/submit [post]
func (h *TransactionHandler) SubmitTransaction(c *gin.Context) {
	h.transitionRequest(c, "SUBMIT_TRANSACTION", h.transactionService.SubmitTransaction)
}

// ApproveTransaction handles board approval of a pending transaction
// @Summary     Approve a transaction
// @Description Approve a transaction awaiting board approval, moving it to SUBMITTED
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction approved"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Invalid status transition"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/transactions/{id}/approve [post]
func (h *TransactionHandler) ApproveTransaction(c *gin.Context) {
	h.transitionRequest(c, "APPROVE_TRANSACTION", h.transactionService.ApproveTransaction)
}

// ConfirmTransaction handles confirming a submitted transaction
// @Summary     Confirm a transaction
// @Description Execute the ledger mutation for a submitted transaction atomically
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction confirmed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Invalid status transition"
// @Failure     422 {object} ErrorResponse "Business rule violated"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/transactions/{id}/confirm [post]
func (h *TransactionHandler) ConfirmTransaction(c *gin.Context) {
	h.transitionRequest(c, "CONFIRM_TRANSACTION", h.transactionService.ConfirmTransaction)
}

// CancelTransaction handles cancelling a transaction
// @Summary     Cancel a transaction
// @Description Cancel a transaction from any non-terminal state
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction cancelled"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Invalid status transition"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/transactions/{id}/cancel [post]
func (h *TransactionHandler) CancelTransaction(c *gin.Context) {
	h.transitionRequest(c, "CANCEL_TRANSACTION", h.transactionService.CancelTransaction)
}

// transitionRequest runs the shared request plumbing for the four
// state-machine endpoints.
func (h *TransactionHandler) transitionRequest(c *gin.Context, action string, op func(actorID, transactionID string) (*models.Transaction, error)) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := op(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, action, "transaction", txn.ID, c.ClientIP(),
		map[string]interface{}{"status": txn.Status})

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// GetTransactions handles listing a company's transactions with filters
// @Summary     List transactions
// @Description Get a paginated, filterable list of a company's transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       type query string false "Transaction type"
// @Param       status query string false "Transaction status"
// @Param       shareholder_id query string false "Shareholder involved on either side"
// @Param       share_class_id query string false "Share class involved as source or target"
// @Param       from query string false "Start date (RFC 3339 or YYYY-MM-DD)"
// @Param       to query string false "End date (RFC 3339 or YYYY-MM-DD)"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
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

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetCompanyTransactions(companyID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Description Get a transaction with its parties, share classes, and settlements
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       companyId path string true "Company ID"
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /companies/{companyId}/transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.GetTransactionByID(transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if raw := c.Query("type"); raw != "" {
		t := models.TransactionType(raw)
		filter.Type = &t
	}
	if raw := c.Query("status"); raw != "" {
		s := models.TransactionStatus(raw)
		filter.Status = &s
	}
	if raw := c.Query("shareholder_id"); raw != "" {
		filter.ShareholderID = &raw
	}
	if raw := c.Query("share_class_id"); raw != "" {
		filter.ShareClassID = &raw
	}

	from, err := parseDateQuery(c, "from")
	if err != nil {
		return filter, err
	}
	if !from.IsZero() {
		filter.FromDate = &from
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return filter, err
	}
	if !to.IsZero() {
		filter.ToDate = &to
	}
	return filter, nil
}

// parseOptionalDecimal parses a strictly positive decimal string when present.
func parseOptionalDecimal(raw *string) (*decimal.Decimal, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	d, err := decimals.ParsePositive(*raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
