package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/career-assessment-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Persistence failures surface to callers as a retryable save error
	ErrPersistenceFailed = errors.New("failed to save, please try again")

	// Session specific errors
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionSubmitted     = errors.New("session already submitted")
	ErrQuestionNotInCatalog = errors.New("question is not part of the active catalog")

	// Tool access errors
	ErrCredentialsRequired = errors.New("email or access token required")
	ErrAccessDenied        = errors.New("tool access denied")
	ErrAccessExpired       = errors.New("tool access expired")
	ErrUnknownOperation    = errors.New("unknown tool operation")
	ErrUnsupportedDocument = errors.New("unsupported document type")

	// Downstream errors
	ErrGatewayFailed = errors.New("language model gateway failed")
	ErrStorageFailed = errors.New("object storage failed")
)

// Verification rejection reasons returned to callers verbatim
const (
	ReasonInvalidToken        = "Invalid access token"
	ReasonExpired             = "Access has expired"
	ReasonNoActiveAccess      = "No active access found for this email"
	ReasonCredentialsRequired = "Email or access token required"
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// AccessError is a tool-access rejection. Reason is safe to show to the caller and never
// reveals which other tool types the caller holds.
type AccessError struct {
	Reason string
	Err    error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("access rejected: %s", e.Reason)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

func newAccessError(reason string, err error) *AccessError {
	return &AccessError{Reason: reason, Err: err}
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error tagged with the rule it broke
func NewValidationError(field, message, rule string, value interface{}) *ValidationError {
	return apperrors.NewValidationErrorWithRule(field, message, rule, value)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrUnknownOperation)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrQuestionNotInCatalog) ||
		errors.Is(err, ErrUnsupportedDocument) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrSessionSubmitted)
}

// IsAccessDenied checks if error is a tool-access rejection
func IsAccessDenied(err error) bool {
	var ae *AccessError
	return errors.As(err, &ae)
}

// IsAccessExpired checks if the rejection is the renewable expiry case
func IsAccessExpired(err error) bool {
	return errors.Is(err, ErrAccessExpired)
}

// IsCredentialsMissing checks if verification was attempted without any credential
func IsCredentialsMissing(err error) bool {
	return errors.Is(err, ErrCredentialsRequired)
}

// IsPersistence checks if error came from a failed write
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistenceFailed)
}

// AccessReason extracts the caller-facing rejection reason
func AccessReason(err error) (string, bool) {
	var ae *AccessError
	if errors.As(err, &ae) {
		return ae.Reason, true
	}
	return "", false
}

// persistenceError wraps a storage failure so handlers can map it to the retry message
func persistenceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistenceFailed, err)
}
