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

	// Reconciliation error kinds. ErrConversionUnavailable is recoverable by
	// creating a conversion rule and retrying; the others block submission.
	ErrConversionUnavailable = NewDomainError("CONVERSION_UNAVAILABLE", "No conversion rule exists for this unit pair")
	ErrMissingDisposition    = NewDomainError("MISSING_DISPOSITION", "Variance line has no operator decision")
	ErrMissingNotes          = NewDomainError("MISSING_NOTES", "Return-producing disposition requires justification notes")
	ErrNothingToSubmit       = NewDomainError("NOTHING_TO_SUBMIT", "Every line is already closed")
)
