package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeRateLimited  ErrorType = "RATE_LIMITED"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidBody      ErrorCode = "INVALID_BODY"
	ErrCodeInvalidID        ErrorCode = "INVALID_ID"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeMissingToken       ErrorCode = "MISSING_TOKEN"
	ErrCodeInvalidResetToken  ErrorCode = "INVALID_RESET_TOKEN"
	ErrCodeLockedOut          ErrorCode = "LOGIN_LOCKED"

	ErrCodeRoleNotAllowed     ErrorCode = "ROLE_NOT_ALLOWED"
	ErrCodeMissingPermissions ErrorCode = "MISSING_PERMISSIONS"
	ErrCodeNotOwner           ErrorCode = "NOT_OWNER"

	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodePermissionNotFound ErrorCode = "PERMISSION_NOT_FOUND"
	ErrCodeAccountNotFound    ErrorCode = "ACCOUNT_NOT_FOUND"
	ErrCodeCredentialNotFound ErrorCode = "API_CREDENTIAL_NOT_FOUND"
	ErrCodeSymbolNotFound     ErrorCode = "SYMBOL_NOT_FOUND"

	ErrCodeDuplicateUser       ErrorCode = "DUPLICATE_USER"
	ErrCodeDuplicatePermission ErrorCode = "DUPLICATE_PERMISSION"
	ErrCodeDuplicateSymbol     ErrorCode = "DUPLICATE_SYMBOL"

	ErrCodeInternal    ErrorCode = "INTERNAL_ERROR"
	ErrCodeTooManyReqs ErrorCode = "TOO_MANY_REQUESTS"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so that wrapped copies of a sentinel still compare equal.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithCause returns a copy of e carrying cause. Sentinels are never mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func newError(t ErrorType, status int, message string, code ErrorCode) *AppError {
	return &AppError{Type: t, Code: code, Message: message, StatusCode: status}
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, code)
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message, Code: string(code)}})
}

// NewValidationErrors reports per-field failures under a single VALIDATION_FAILED code.
func NewValidationErrors(errs []ValidationError) *AppError {
	e := newError(ErrorTypeValidation, http.StatusBadRequest, "Validation failed", ErrCodeValidationFailed)
	e.Details = ValidationErrors{Errors: errs}
	return e
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, code)
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return newError(ErrorTypeUnauthorized, http.StatusUnauthorized, message, code)
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return newError(ErrorTypeForbidden, http.StatusForbidden, message, code)
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return newError(ErrorTypeConflict, http.StatusConflict, message, code)
}

// NewInternalError keeps cause for logging; it never reaches the response body.
func NewInternalError(message string, cause error) *AppError {
	e := newError(ErrorTypeInternal, http.StatusInternalServerError, message, ErrCodeInternal)
	e.Cause = cause
	return e
}

var (
	ErrInvalidCredentials = NewUnauthorizedError("Invalid username or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewUnauthorizedError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrMissingToken       = NewUnauthorizedError("Missing credentials", ErrCodeMissingToken)
	ErrInvalidResetToken  = NewUnauthorizedError("Reset token is invalid or expired", ErrCodeInvalidResetToken)
	ErrLockedOut          = NewUnauthorizedError("Too many failed login attempts, try again later", ErrCodeLockedOut)

	ErrRoleNotAllowed     = NewForbiddenError("Role is not allowed to access this resource", ErrCodeRoleNotAllowed)
	ErrMissingPermissions = NewForbiddenError("Insufficient permissions", ErrCodeMissingPermissions)
	ErrNotOwner           = NewForbiddenError("Resource belongs to another user", ErrCodeNotOwner)

	ErrUserNotFound       = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrPermissionNotFound = NewNotFoundError("Permission not found", ErrCodePermissionNotFound)
	ErrAccountNotFound    = NewNotFoundError("Account not found", ErrCodeAccountNotFound)
	ErrCredentialNotFound = NewNotFoundError("API credential not found", ErrCodeCredentialNotFound)
	ErrSymbolNotFound     = NewNotFoundError("Symbol not found", ErrCodeSymbolNotFound)

	ErrDuplicateUser       = NewConflictError("Username or email already registered", ErrCodeDuplicateUser)
	ErrDuplicatePermission = NewConflictError("Permission already exists", ErrCodeDuplicatePermission)
	ErrDuplicateSymbol     = NewConflictError("Symbol already exists", ErrCodeDuplicateSymbol)

	ErrRateLimited = newError(ErrorTypeRateLimited, http.StatusTooManyRequests, "Too many requests", ErrCodeTooManyReqs)

	ErrInvalidBody = NewValidationError("Invalid request body", ErrCodeInvalidBody)
	ErrInvalidID   = NewValidationError("Invalid identifier", ErrCodeInvalidID)
)

// IsAppError unwraps err until it finds an *AppError.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == t
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
