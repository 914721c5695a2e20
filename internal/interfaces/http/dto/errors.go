package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	ErrCodeNotFound   = "ERR_NOT_FOUND"
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeSagaPartialFailure signals that the receipt batch committed but
	// a later submission step failed; the response details list what
	// completed so the failure can be reconciled manually.
	ErrCodeSagaPartialFailure = "ERR_SAGA_PARTIAL_FAILURE"
)

// domainCodeHTTPStatus maps domain error codes to HTTP status codes.
// Unlisted codes fall back to 400: they are constructor validation failures.
var domainCodeHTTPStatus = map[string]int{
	"NOT_FOUND":              http.StatusNotFound,
	"ALREADY_EXISTS":         http.StatusConflict,
	"CONCURRENCY_CONFLICT":   http.StatusConflict,
	"INVALID_STATE":          http.StatusUnprocessableEntity,
	"INVALID_RETURN_STATE":   http.StatusUnprocessableEntity,
	"CONVERSION_UNAVAILABLE": http.StatusUnprocessableEntity,
	"MISSING_DISPOSITION":    http.StatusUnprocessableEntity,
	"MISSING_NOTES":          http.StatusUnprocessableEntity,
	"NOTHING_TO_SUBMIT":      http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for a domain error code
func GetHTTPStatus(code string) int {
	if status, ok := domainCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusBadRequest
}
