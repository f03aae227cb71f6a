package errors

import "net/http"

// Error code constants. Errors carry code + message; clients key their
// handling off the code.

// User error codes.
const (
	CodeUserNotFound   = "USER_NOT_FOUND"
	CodeUserExists     = "USER_ALREADY_EXISTS"
	CodeUserBanned     = "USER_BANNED"
	CodeSelfBan        = "SELF_BAN_DENIED"
	CodeUserDeleteFail = "USER_DELETION_FAILED"
)

// Clan error codes.
const (
	CodeClanNotFound       = "CLAN_NOT_FOUND"
	CodeClanExists         = "CLAN_ALREADY_EXISTS"
	CodeClanLimitReached   = "CLAN_LIMIT_REACHED"
	CodeOwnersEmpty        = "OWNERS_WOULD_BE_EMPTY"
	CodeLeadTransferNeeded = "LEAD_TRANSFER_REQUIRED"
	CodeSocialsLimit       = "SOCIALS_LIMIT_REACHED"
	CodeNotClanMember      = "NOT_CLAN_MEMBER"
	CodeAlreadyRated       = "ALREADY_RATED"
	CodeSelfTransfer       = "SELF_TRANSFER_DENIED"
	CodeTargetBanned       = "TARGET_BANNED"
)

// Application workflow error codes.
const (
	CodeApplicationNotFound  = "APPLICATION_NOT_FOUND"
	CodeDuplicateApplication = "DUPLICATE_APPLICATION"
	CodePendingLimitReached  = "PENDING_LIMIT_REACHED"
	CodeApplicationFrozen    = "APPLICATION_FROZEN"
	CodeCooldownActive       = "COOLDOWN_ACTIVE"
	CodeSubmitterMismatch    = "SUBMITTER_MISMATCH"
)

// Auth error codes.
const (
	CodeAuthFailed   = "AUTH_FAILED"
	CodeTokenInvalid = "TOKEN_INVALID"
	CodeTokenExpired = "TOKEN_EXPIRED"
)

// Validation error codes.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInvalidID        = "INVALID_ID"
	CodeInvalidRole      = "INVALID_ROLE"
	CodeInvalidStatus    = "INVALID_STATUS"
	CodeInvalidCategory  = "INVALID_CATEGORY"
)

// CodeAccessDenied is the generic authorization failure.
const CodeAccessDenied = "ACCESS_DENIED"

// CodeInternal is the generic unexpected failure.
const CodeInternal = "INTERNAL_ERROR"

// Convenience constructors using predefined codes.

// ErrClanNotFound creates a clan not found error.
func ErrClanNotFound() *AppError {
	return &AppError{
		Code:       CodeClanNotFound,
		Message:    "clan not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// ErrUserNotFound creates a user not found error.
func ErrUserNotFound() *AppError {
	return &AppError{
		Code:       CodeUserNotFound,
		Message:    "user not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// ErrApplicationNotFound creates an application not found error.
func ErrApplicationNotFound() *AppError {
	return &AppError{
		Code:       CodeApplicationNotFound,
		Message:    "application not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// ErrAccessDenied creates a generic authorization error.
func ErrAccessDenied(message string) *AppError {
	return &AppError{
		Code:       CodeAccessDenied,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// ErrInvalidID creates a malformed-id validation error.
func ErrInvalidID(param string) *AppError {
	return &AppError{
		Code:       CodeInvalidID,
		Message:    "missing or invalid '" + param + "' parameter",
		HTTPStatus: http.StatusBadRequest,
	}
}
