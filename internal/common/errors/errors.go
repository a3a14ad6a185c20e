// Package errors provides the error taxonomy of the matching engine and its
// mapping onto BPMN job failures.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeProfileNotFound      ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeScoreUnavailable     ErrorCode = "SCORE_UNAVAILABLE"
	ErrCodeFilterDegraded       ErrorCode = "FILTER_DEGRADED"
	ErrCodeCacheUnavailable     ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrCodePrecomputeInProgress ErrorCode = "PRECOMPUTE_IN_PROGRESS"
	ErrCodeQueueUnavailable     ErrorCode = "QUEUE_UNAVAILABLE"
	ErrCodeEventPublishFailed   ErrorCode = "EVENT_PUBLISH_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.Cause }

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewProfileNotFoundError is returned when a requested profile does not exist.
func NewProfileNotFoundError(userID string) *StandardError {
	return newError(ErrCodeProfileNotFound, "Profile not found", fmt.Sprintf("userId: %s", userID), false, nil)
}

// NewScoreUnavailableError wraps a failure to score one specific pair.
func NewScoreUnavailableError(userA, userB string, cause error) *StandardError {
	details := fmt.Sprintf("pair: %s/%s", userA, userB)
	if cause != nil {
		details = fmt.Sprintf("%s, error: %s", details, cause.Error())
	}
	return newError(ErrCodeScoreUnavailable, "Compatibility score unavailable", details, true, cause)
}

func NewFilterDegradedError(stage string, cause error) *StandardError {
	return newError(ErrCodeFilterDegraded, "Candidate filter degraded", fmt.Sprintf("stage: %s, error: %v", stage, cause), true, cause)
}

func NewCacheUnavailableError(op string, cause error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Cache store unavailable", fmt.Sprintf("op: %s, error: %v", op, cause), true, cause)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false, nil)
}

func NewPrecomputeInProgressError() *StandardError {
	return newError(ErrCodePrecomputeInProgress, "Batch precomputation already running", "", false, nil)
}

func NewQueueUnavailableError(op string, cause error) *StandardError {
	return newError(ErrCodeQueueUnavailable, "Recompute queue unavailable", fmt.Sprintf("op: %s, error: %v", op, cause), true, cause)
}

func NewEventPublishFailedError(eventType string, cause error) *StandardError {
	return newError(ErrCodeEventPublishFailed, "Event publish failed", fmt.Sprintf("type: %s, error: %v", eventType, cause), true, cause)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true, err)
}

func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true, err)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true, err)
}

// ==========================
// 4. Error Inspection
// ==========================

// AsStandard returns the first StandardError in err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// FindCode returns the first StandardError in err's chain that carries code.
func FindCode(err error, code ErrorCode) (*StandardError, bool) {
	for err != nil {
		var stdErr *StandardError
		if !stderrors.As(err, &stdErr) {
			return nil, false
		}
		if stdErr.Code == code {
			return stdErr, true
		}
		err = stdErr.Cause
	}
	return nil, false
}

// IsCode reports whether any StandardError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	_, ok := FindCode(err, code)
	return ok
}

func IsNotFound(err error) bool { return IsCode(err, ErrCodeProfileNotFound) }

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes modelled in BPMN.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeProfileNotFound:          "PROFILE_NOT_FOUND",
	ErrCodeScoreUnavailable:         "SCORE_UNAVAILABLE",
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodePrecomputeInProgress:     "PRECOMPUTE_IN_PROGRESS",
	ErrCodeQueueUnavailable:         "QUEUE_UNAVAILABLE",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeSearchQueryFailed:        "SEARCH_QUERY_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeScoreUnavailable,
		ErrCodeQueueUnavailable,
		ErrCodeExternalService:
		return 3

	case ErrCodeTimeout, ErrCodeEventPublishFailed:
		return 2

	default:
		return 0 // business errors
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PROFILE"):
		return "PROFILE"
	case strings.Contains(codeStr, "SCORE") || strings.Contains(codeStr, "FILTER") || strings.Contains(codeStr, "PRECOMPUTE"):
		return "MATCHING"
	case strings.Contains(codeStr, "CACHE") || strings.Contains(codeStr, "QUEUE"):
		return "CACHE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "EVENT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
