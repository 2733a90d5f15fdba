package dto

import "net/http"

// Error codes surfaced by the API. Domain errors carry these codes
// directly; infrastructure failures are folded into the last three.
const (
	ErrCodeValidation          = "VALIDATION"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeConfirmDeclined     = "CONFIRMATION_DECLINED"
	ErrCodeConcurrencyConflict = "OPTIMISTIC_LOCK_ERROR"
	ErrCodeBadRequest          = "BAD_REQUEST"

	// ErrCodeReconciliation marks a stock/status divergence that needs a
	// manual inventory check. The full error message is returned verbatim.
	ErrCodeReconciliation = "RECONCILIATION"

	// ErrCodeStorage marks a storage failure with no stock side effects
	ErrCodeStorage = "STORAGE"

	ErrCodeInternal = "INTERNAL"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConfirmDeclined:     http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:   http.StatusUnprocessableEntity,
	ErrCodeReconciliation:      http.StatusInternalServerError,
	ErrCodeStorage:             http.StatusServiceUnavailable,
	ErrCodeInternal:            http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
