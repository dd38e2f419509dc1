package dto

import "net/http"

// Error codes shared between the HTTP layer and clients. Domain errors
// carry their own codes; this file decides which HTTP status each code
// maps to.

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Transport-level error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "ALREADY_EXISTS"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes. Domain
// validation codes map to 400, state-machine refusals to 422, and the
// segregation-of-duties rule to 403.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	"UNAUTHORIZED": http.StatusUnauthorized,
	"FORBIDDEN":    http.StatusForbidden,

	"NOT_FOUND":            http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// Input validation performed by domain constructors
	"INVALID_INPUT":     http.StatusBadRequest,
	"INVALID_CLIENT":    http.StatusBadRequest,
	"INVALID_ACTOR":     http.StatusBadRequest,
	"INVALID_DIRECTION": http.StatusBadRequest,
	"INVALID_PERIOD":    http.StatusBadRequest,
	"INVALID_RATE":      http.StatusBadRequest,
	"INVALID_SCOPE":     http.StatusBadRequest,
	"INVALID_REASON":    http.StatusBadRequest,
	"INVALID_AMOUNT":    http.StatusBadRequest,
	"INVALID_FEE_ITEM":  http.StatusBadRequest,
	"INVALID_SHIPMENT":  http.StatusBadRequest,

	// Business rules
	"INVALID_STATE":           http.StatusUnprocessableEntity,
	"NO_LINES":                http.StatusUnprocessableEntity,
	"NO_BILLABLE_SHIPMENTS":   http.StatusUnprocessableEntity,
	"LAYOUT_OVERFLOW":         http.StatusUnprocessableEntity,
	"INVALID_TEMPLATE":        http.StatusUnprocessableEntity,
	"INVALID_MAPPING":         http.StatusUnprocessableEntity,
	"NO_SHEETS":               http.StatusUnprocessableEntity,
	"SELF_APPROVAL_FORBIDDEN": http.StatusForbidden,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes default to 422: an unmapped domain refusal is still a
// refusal, not a server fault.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}
