package shared

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists     = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrValidation        = NewDomainError("VALIDATION", "Invalid input provided")
	ErrInvalidState      = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrConfirmDeclined   = NewDomainError("CONFIRMATION_DECLINED", "Operation declined by operator")
)

// StorageError wraps an underlying store failure. Callers may retry at
// their discretion; it is never a domain rule violation.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a storage failure for the given operation
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// ReconciliationError reports a stock/status divergence: the stock side of
// a transition succeeded but the paired record write failed (or vice versa).
// It must reach the operator verbatim so inventory can be verified manually;
// it is never retried automatically.
type ReconciliationError struct {
	GuideID         uuid.UUID
	GuideNumber     string
	AdjustedItems   []uuid.UUID // product IDs whose stock was already adjusted
	FailedOperation string
	Err             error
}

// Error implements the error interface
func (e *ReconciliationError) Error() string {
	ids := make([]string, len(e.AdjustedItems))
	for i, id := range e.AdjustedItems {
		ids[i] = id.String()
	}
	return fmt.Sprintf(
		"reconciliation required for guide %s: stock adjusted for products [%s] but %s failed: %v",
		e.GuideNumber, strings.Join(ids, ", "), e.FailedOperation, e.Err,
	)
}

// Unwrap returns the underlying error
func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// NewReconciliationError creates a reconciliation error for a guide
func NewReconciliationError(guideID uuid.UUID, guideNumber string, adjusted []uuid.UUID, failedOp string, err error) *ReconciliationError {
	return &ReconciliationError{
		GuideID:         guideID,
		GuideNumber:     guideNumber,
		AdjustedItems:   adjusted,
		FailedOperation: failedOp,
		Err:             err,
	}
}
