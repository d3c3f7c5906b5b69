// Package errors provides the error taxonomy of the health analysis workers and
// its mapping onto BPMN errors.
package errors

import (
	"errors"
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
	// Input errors: malformed or empty batches. Never retried.
	ErrCodeInputInvalid ErrorCode = "INPUT_INVALID"

	// Collaborator errors: the signal extractor timed out, failed or is circuit-broken.
	ErrCodeCollaboratorUnavailable ErrorCode = "COLLABORATOR_UNAVAILABLE"
	ErrCodeCollaboratorTimeout     ErrorCode = "COLLABORATOR_TIMEOUT"

	// Derived value outside its bound. A programming defect.
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"

	ErrCodeBatchLoadFailed     ErrorCode = "BATCH_LOAD_FAILED"
	ErrCodeSurveyNotFound      ErrorCode = "SURVEY_NOT_FOUND"
	ErrCodeReportPublishFailed ErrorCode = "REPORT_PUBLISH_FAILED"
	ErrCodeAlertPublishFailed  ErrorCode = "ALERT_PUBLISH_FAILED"
	ErrCodeAnalysisFailed      ErrorCode = "ANALYSIS_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// HasCode reports whether err wraps a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
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

func NewInputInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputInvalid,
		Message:   "Feedback batch is malformed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCollaboratorUnavailableError wraps an extractor failure for a theme.
func NewCollaboratorUnavailableError(themeID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCollaboratorUnavailable,
		Message:   "Signal extraction collaborator unavailable",
		Details:   fmt.Sprintf("themeId: %s, error: %v", themeID, err),
		Retryable: true,
		Metadata:  map[string]interface{}{"themeId": themeID},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewCollaboratorTimeoutError(themeID string, timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeCollaboratorTimeout,
		Message:   "Signal extraction collaborator timeout",
		Details:   fmt.Sprintf("themeId: %s, timeout: %s", themeID, timeout),
		Retryable: true,
		Metadata:  map[string]interface{}{"themeId": themeID},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvariantViolationError records a derived value that escaped its bound.
func NewInvariantViolationError(entity, field string, value interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvariantViolation,
		Message:   "Derived value outside its bound",
		Details:   fmt.Sprintf("%s.%s = %v", entity, field, value),
		Retryable: false,
		Metadata:  map[string]interface{}{"entity": entity, "field": field},
		Timestamp: time.Now().UTC(),
	}
}

func NewBatchLoadFailedError(surveyID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBatchLoadFailed,
		Message:   "Failed to load feedback batch",
		Details:   fmt.Sprintf("surveyId: %s, error: %v", surveyID, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewSurveyNotFoundError(surveyID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSurveyNotFound,
		Message:   "Survey not found",
		Details:   fmt.Sprintf("surveyId: %s", surveyID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewReportPublishFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportPublishFailed,
		Message:   "Health report indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewAlertPublishFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlertPublishFailed,
		Message:   "Critical theme alert delivery failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewAnalysisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisFailed,
		Message:   "Survey analysis failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInputInvalid:            "INPUT_INVALID",
	ErrCodeCollaboratorUnavailable: "COLLABORATOR_UNAVAILABLE",
	ErrCodeCollaboratorTimeout:     "COLLABORATOR_TIMEOUT",
	ErrCodeInvariantViolation:      "INVARIANT_VIOLATION",
	ErrCodeBatchLoadFailed:         "BATCH_LOAD_FAILED",
	ErrCodeSurveyNotFound:          "SURVEY_NOT_FOUND",
	ErrCodeReportPublishFailed:     "REPORT_PUBLISH_FAILED",
	ErrCodeAlertPublishFailed:      "ALERT_PUBLISH_FAILED",
	ErrCodeAnalysisFailed:          "ANALYSIS_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeBatchLoadFailed,
		ErrCodeReportPublishFailed,
		ErrCodeAlertPublishFailed:
		return 3

	case ErrCodeCollaboratorUnavailable,
		ErrCodeCollaboratorTimeout:
		return 1

	default:
		return 0
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

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "INPUT") || strings.Contains(codeStr, "NOT_FOUND"):
		return "INPUT"
	case strings.HasPrefix(codeStr, "COLLABORATOR"):
		return "COLLABORATOR"
	case strings.Contains(codeStr, "INVARIANT"):
		return "DEFECT"
	case strings.Contains(codeStr, "BATCH"):
		return "DATABASE"
	case strings.Contains(codeStr, "PUBLISH"):
		return "REPORTING"
	default:
		return "OTHER"
	}
}
