package dto

import (
	"net/http"
	"strings"
)

// API error codes. Every code returned to clients has the ERR_ prefix.
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT" // lost optimistic race, retryable

	ErrCodeInvalidState      = "ERR_INVALID_STATE"      // no edge in the transition table
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK" // conditional decrement matched no row

	ErrCodeBadRequest        = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput      = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON       = "ERR_INVALID_JSON"
	ErrCodeInvalidEntityType = "ERR_INVALID_ENTITY_TYPE"
	ErrCodeRequestTooLarge   = "ERR_REQUEST_TOO_LARGE"
	ErrCodeMethodNotAllowed  = "ERR_METHOD_NOT_ALLOWED"
)

const apiCodePrefix = "ERR_"

// apiError binds an API code to its HTTP status and the domain codes that
// normalize to it.
type apiError struct {
	code   string
	status int
	domain []string
}

var apiErrors = []apiError{
	{ErrCodeUnknown, http.StatusInternalServerError, nil},
	{ErrCodeInternal, http.StatusInternalServerError, nil},

	{ErrCodeValidation, http.StatusBadRequest, nil},
	{ErrCodeValidationRequired, http.StatusBadRequest, nil},
	{ErrCodeValidationFormat, http.StatusBadRequest, nil},

	{ErrCodeNotFound, http.StatusNotFound, []string{"NOT_FOUND"}},
	{ErrCodeAlreadyExists, http.StatusConflict, []string{"ALREADY_EXISTS"}},
	{ErrCodeConcurrencyConflict, http.StatusConflict, []string{"CONCURRENCY_CONFLICT"}},

	{ErrCodeInvalidState, http.StatusUnprocessableEntity, []string{"INVALID_STATE"}},
	{ErrCodeInsufficientStock, http.StatusUnprocessableEntity, []string{"INSUFFICIENT_STOCK"}},

	{ErrCodeBadRequest, http.StatusBadRequest, nil},
	{ErrCodeInvalidInput, http.StatusBadRequest, []string{"INVALID_INPUT"}},
	{ErrCodeInvalidJSON, http.StatusBadRequest, nil},
	{ErrCodeInvalidEntityType, http.StatusBadRequest, []string{"INVALID_ENTITY_TYPE"}},
	{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge, nil},
	{ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed, nil},
}

var (
	statusByCode = make(map[string]int, len(apiErrors))
	codeByDomain = make(map[string]string)
)

func init() {
	for _, e := range apiErrors {
		statusByCode[e.code] = e.status
		for _, d := range e.domain {
			codeByDomain[d] = e.code
		}
	}
}

// GetHTTPStatus returns the HTTP status for an API code. Unlisted
// ERR_INVALID_* codes, which come from field-level domain rules, are 400;
// anything else unknown is 500.
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	if strings.HasPrefix(code, apiCodePrefix+"INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode converts a domain error code to its API code. Codes
// that are already API codes are returned unchanged; other domain codes get
// the ERR_ prefix.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := codeByDomain[code]; ok {
		return apiCode
	}
	if code == "" {
		return ErrCodeUnknown
	}
	if strings.HasPrefix(code, apiCodePrefix) {
		return code
	}
	return apiCodePrefix + code
}
