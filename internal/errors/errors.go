// Package errors provides custom error types for the cap-table API.
// All service-layer errors should use AppError so that responses carry a
// stable machine-readable code and never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, optional structured details,
// and an optional internal error.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"-"`
	Internal   error          `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    sentinel.Details,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Details:    sentinel.Details,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WithDetails creates a new AppError carrying structured detail values,
// e.g. the authorized/issued/requested quantities behind a rejection.
func WithDetails(sentinel *AppError, details map[string]any) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    details,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Company errors.
var (
	ErrCompanyNotFound  = &AppError{Code: "COMPANY_NOT_FOUND", Message: "Company not found", StatusCode: http.StatusNotFound}
	ErrCompanyNotActive = &AppError{Code: "COMPANY_NOT_ACTIVE", Message: "Company is not in an active status", StatusCode: http.StatusConflict}
)

// Shareholder errors.
var (
	ErrShareholderNotFound = &AppError{Code: "SHAREHOLDER_NOT_FOUND", Message: "Shareholder not found", StatusCode: http.StatusNotFound}
	ErrShareholderInactive = &AppError{Code: "SHAREHOLDER_INACTIVE", Message: "Shareholder is not active", StatusCode: http.StatusBadRequest}
	ErrSameShareholder     = &AppError{Code: "SAME_SHAREHOLDER", Message: "Source and destination shareholders must differ", StatusCode: http.StatusBadRequest}
)

// Share class errors.
var (
	ErrShareClassNotFound      = &AppError{Code: "SHARE_CLASS_NOT_FOUND", Message: "Share class not found", StatusCode: http.StatusNotFound}
	ErrShareClassMismatch      = &AppError{Code: "SHARE_CLASS_MISMATCH", Message: "Share class does not belong to this company", StatusCode: http.StatusBadRequest}
	ErrInvalidConversionTarget = &AppError{Code: "INVALID_CONVERSION_TARGET", Message: "Conversion target must be a different share class of the same company", StatusCode: http.StatusBadRequest}
)

// Transaction errors.
var (
	ErrTransactionNotFound     = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType  = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", StatusCode: http.StatusBadRequest}
	ErrInvalidStatusTransition = &AppError{Code: "INVALID_STATUS_TRANSITION", Message: "Transaction status does not allow this transition", StatusCode: http.StatusConflict}
	ErrExceedsAuthorized       = &AppError{Code: "EXCEEDS_AUTHORIZED", Message: "Issuance would exceed the authorized share count", StatusCode: http.StatusBadRequest}
	ErrInsufficientShares      = &AppError{Code: "INSUFFICIENT_SHARES", Message: "Insufficient shares for this operation", StatusCode: http.StatusBadRequest}
	ErrLockupActive            = &AppError{Code: "LOCKUP_ACTIVE", Message: "Shares are still within the lock-up period", StatusCode: http.StatusBadRequest}
	ErrInvalidSplitRatio       = &AppError{Code: "INVALID_SPLIT_RATIO", Message: "Split ratio must be positive and produce whole share counts", StatusCode: http.StatusBadRequest}
)

// Option grant errors.
var (
	ErrOptionGrantNotFound = &AppError{Code: "OPTION_GRANT_NOT_FOUND", Message: "Option grant not found", StatusCode: http.StatusNotFound}
	ErrExceedsVestedShares = &AppError{Code: "EXCEEDS_VESTED_SHARES", Message: "Exercise quantity exceeds vested unexercised shares", StatusCode: http.StatusBadRequest}
)

// Snapshot errors.
var (
	ErrSnapshotNotFound     = &AppError{Code: "SNAPSHOT_NOT_FOUND", Message: "No snapshot exists at or before this date", StatusCode: http.StatusNotFound}
	ErrSnapshotDateInFuture = &AppError{Code: "SNAPSHOT_DATE_IN_FUTURE", Message: "Snapshot date cannot be in the future", StatusCode: http.StatusBadRequest}
)
