package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is or wraps an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the first AppError in the chain, or "UNKNOWN".
// Codes survive fmt.Errorf %w wrapping.
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeTemplateInvalid = "TEMPLATE_INVALID"
	CodeFooterNotFound  = "FOOTER_NOT_FOUND"
	CodeContentLoss     = "CONTENT_LOSS"
	CodeBundleNotFound  = "BUNDLE_NOT_FOUND"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// TemplateInvalid reports a structural problem in the template sheet
func TemplateInvalid(message string) *AppError {
	return New(CodeTemplateInvalid, message)
}

// FooterNotFound reports that no footer boundary was detected in the scan window
func FooterNotFound(sheet string, searchFrom, searchTo int) *AppError {
	return New(CodeFooterNotFound, fmt.Sprintf(
		"no footer boundary detected on sheet %q between rows %d and %d", sheet, searchFrom, searchTo))
}

// ContentLoss reports decorative content that could not be re-homed after
// column removal. The coordinate and value identify exactly what would be lost.
func ContentLoss(cell string, value interface{}) *AppError {
	return New(CodeContentLoss, fmt.Sprintf(
		"cell %s holds %q but its column is removed and no adjacent slot is free", cell, value))
}

// BundleNotFound reports that no bundle directory matched the input identifier
func BundleNotFound(identifier string) *AppError {
	return New(CodeBundleNotFound, fmt.Sprintf("no bundle matches identifier %q", identifier))
}
