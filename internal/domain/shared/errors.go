package shared

import "errors"

// DomainError represents a domain-level error with a stable code
// suitable for programmatic handling by callers.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors. Precondition failures are detected before any
// durable write, so returning one of these guarantees state is untouched.
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidQuantity     = NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	ErrUnknownItem         = NewDomainError("UNKNOWN_ITEM", "Inventory item is not known to the catalog")
	ErrUnknownWarehouse    = NewDomainError("UNKNOWN_WAREHOUSE", "Warehouse is not known to the catalog")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrBusy                = NewDomainError("BUSY", "Could not acquire the stock record in time, retry later")
	ErrTransferFailed      = NewDomainError("TRANSFER_FAILED", "Warehouse transfer could not be completed")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
)

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
