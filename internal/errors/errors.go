package errors

import (
	"errors"
	"net/http"
)

// Kind groups domain errors by how callers should react to them.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuth          Kind = "auth"
	KindAuthorization Kind = "authorization"
	KindConflict      Kind = "conflict"
	KindNotFound      Kind = "not_found"
	KindIntegrity     Kind = "integrity"
	KindRateLimited   Kind = "rate_limited"
)

// Reason is the stable machine-readable code of a domain error.
type Reason string

// Error is the domain error type. Two errors match under errors.Is when kind
// and reason agree, so wrapped copies of a sentinel still compare equal.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind, and on reason when the target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

// New creates a domain error.
func New(kind Kind, reason Reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

// Wrap returns a copy of sentinel carrying cause.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Reason: sentinel.Reason, Message: sentinel.Message, Err: cause}
}

// WithMessage returns a copy of sentinel with a more specific message.
func WithMessage(sentinel *Error, message string) *Error {
	return &Error{Kind: sentinel.Kind, Reason: sentinel.Reason, Message: message}
}

// KindOf returns the kind of the first domain error in err's chain.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// Is and As are re-exported so callers need a single errors import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

var (
	// ErrInvalidInput is returned when a request fails field validation.
	ErrInvalidInput = New(KindValidation, "VALIDATION_ERROR", "invalid input")
	// ErrInvalidRole is returned for roles that cannot be used in the given context.
	ErrInvalidRole = New(KindValidation, "INVALID_ROLE", "invalid role")
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = New(KindValidation, "EMAIL_TAKEN", "email already registered")
	// ErrUsernameTaken is returned when the username is already registered.
	ErrUsernameTaken = New(KindValidation, "USERNAME_TAKEN", "username already taken")
	// ErrNotApproved is returned when an assignment names an account that is not approved.
	ErrNotApproved = New(KindValidation, "NOT_APPROVED", "account is not approved")

	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = New(KindAuth, "INVALID_CREDENTIALS", "invalid email or password")
	// ErrAccountRejected is returned when a rejected account tries to log in.
	ErrAccountRejected = New(KindAuth, "ACCOUNT_REJECTED", "account has been rejected")
	// ErrInvalidToken is returned when an access token cannot be used.
	ErrInvalidToken = New(KindAuth, "INVALID_TOKEN", "invalid or expired token")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = New(KindAuth, "INVALID_REFRESH_TOKEN", "invalid or expired refresh token")

	// ErrPendingApproval is returned when an unapproved account calls a protected operation.
	ErrPendingApproval = New(KindAuthorization, "PENDING_APPROVAL", "account pending approval")
	// ErrNotAssigned is returned when a doctor reads records of a patient not assigned to them.
	ErrNotAssigned = New(KindAuthorization, "NOT_ASSIGNED", "patient is not assigned to this doctor")
	// ErrNotOwner is returned when a patient touches another patient's records.
	ErrNotOwner = New(KindAuthorization, "NOT_OWNER", "records belong to another patient")
	// ErrAdminRequired is returned when a non-admin calls an admin operation.
	ErrAdminRequired = New(KindAuthorization, "ADMIN_REQUIRED", "admin access required")
	// ErrAdminNoPlaintext is returned when an admin asks for decrypted records.
	ErrAdminNoPlaintext = New(KindAuthorization, "ADMIN_NO_PLAINTEXT", "admins cannot read decrypted records")
	// ErrForbiddenRole is returned when the caller's role may not use an endpoint.
	ErrForbiddenRole = New(KindAuthorization, "FORBIDDEN", "role not permitted")

	// ErrAlreadyAssignedToThisDoctor is returned when the exact pair already exists.
	ErrAlreadyAssignedToThisDoctor = New(KindConflict, "ALREADY_ASSIGNED_TO_THIS_DOCTOR", "patient is already assigned to this doctor")
	// ErrPatientHasOtherDoctor is returned when the patient is assigned to a different doctor.
	ErrPatientHasOtherDoctor = New(KindConflict, "PATIENT_HAS_OTHER_DOCTOR", "patient is already assigned to another doctor")
	// ErrInvalidApprovalTransition is returned when an approval change is not allowed.
	ErrInvalidApprovalTransition = New(KindConflict, "INVALID_APPROVAL_TRANSITION", "approval status cannot change from its current value")

	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = New(KindNotFound, "USER_NOT_FOUND", "user not found")
	// ErrDoctorNotFound is returned when the id does not name a doctor.
	ErrDoctorNotFound = New(KindNotFound, "DOCTOR_NOT_FOUND", "doctor not found")
	// ErrPatientNotFound is returned when the id does not name a patient.
	ErrPatientNotFound = New(KindNotFound, "PATIENT_NOT_FOUND", "patient not found")
	// ErrRecordNotFound is returned when a record is not found.
	ErrRecordNotFound = New(KindNotFound, "RECORD_NOT_FOUND", "record not found")

	// ErrTampered is returned when ciphertext fails authentication.
	ErrTampered = New(KindIntegrity, "TAMPERED", "ciphertext failed authentication")
	// ErrMalformed is returned when a document cannot be encoded or decoded.
	ErrMalformed = New(KindIntegrity, "MALFORMED", "record document is malformed")

	// ErrTooManyAttempts is returned by the login rate limiter.
	ErrTooManyAttempts = New(KindRateLimited, "TOO_MANY_ATTEMPTS", "too many requests, please try again later")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

var kindStatus = map[Kind]int{
	KindValidation:    http.StatusBadRequest,
	KindAuth:          http.StatusUnauthorized,
	KindAuthorization: http.StatusForbidden,
	KindConflict:      http.StatusConflict,
	KindNotFound:      http.StatusNotFound,
	KindRateLimited:   http.StatusTooManyRequests,
}

// MapErrorToHTTP maps domain errors to HTTP errors. Integrity failures and
// anything unrecognised become a generic 500 so no internals leak to clients.
func MapErrorToHTTP(err error) *HTTPError {
	var de *Error
	if !errors.As(err, &de) {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}

	switch {
	case de.Kind == KindIntegrity:
		return NewHTTPError(http.StatusInternalServerError, "record could not be read", "INTEGRITY_ERROR")
	case de.Reason == ErrEmailTaken.Reason, de.Reason == ErrUsernameTaken.Reason:
		return NewHTTPError(http.StatusConflict, de.Message, string(de.Reason))
	}

	status, ok := kindStatus[de.Kind]
	if !ok {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
	return NewHTTPError(status, de.Message, string(de.Reason))
}
