package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeRetrieval     = "RETRIEVAL_ERROR"
	ErrCodeContext       = "CONTEXT_ERROR"
	ErrCodeNotConfigured = "NOT_CONFIGURED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors: fail before any remote call and are never retried
var (
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query text is required")
	ErrMissingTenant        = NewDomainError(ErrCodeValidation, "tenant id is required")
	ErrInvalidSearchType    = NewDomainError(ErrCodeValidation, "invalid search type")
	ErrInvalidSearchScope   = NewDomainError(ErrCodeValidation, "invalid search scope")
	ErrInvalidExecutionMode = NewDomainError(ErrCodeValidation, "invalid execution mode")
	ErrInvalidLimit         = NewDomainError(ErrCodeValidation, "result limit must be between 1 and 100")
	ErrInvalidThreshold     = NewDomainError(ErrCodeValidation, "threshold must be between 0.0 and 1.0")
	ErrInvalidHybridAlpha   = NewDomainError(ErrCodeValidation, "hybrid weight must be between 0.0 and 1.0")
	ErrInvalidContextDepth  = NewDomainError(ErrCodeValidation, "context depth must be between 1 and 10")
)

// Retrieval errors surface to the caller: there is no safe substitute for
// missing evidence
var (
	ErrSearchFailed = NewDomainError(ErrCodeRetrieval, "similarity search failed")
)

// Context errors are recovered locally by substituting empty context
var (
	ErrContextUnavailable = NewDomainError(ErrCodeContext, "context service unavailable")
)

// Configuration errors
var (
	ErrNoEmbeddingProvider = NewDomainError(ErrCodeNotConfigured, "embedding provider not configured")
)
