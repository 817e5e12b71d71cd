package shared

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
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrInsufficientLot     = NewDomainError("INSUFFICIENT_LOT_STOCK", "Insufficient stock remaining in lot")
	ErrLotUnderRecall      = NewDomainError("LOT_UNDER_RECALL", "Lot is linked to an open recall case")
	ErrLotExpired          = NewDomainError("LOT_EXPIRED", "Lot has expired")
	ErrLocationMismatch    = NewDomainError("LOCATION_MISMATCH", "Location does not belong to the given branch")
	ErrDuplicatePeriod     = NewDomainError("DUPLICATE_PERIOD", "An inventory period already overlaps this window")
)
