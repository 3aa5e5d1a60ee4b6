package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP boundary. The set is closed: every
// error that leaves the service layer maps onto exactly one Kind.
type Kind int

const (
	// KindInternal is an unexpected local fault.
	KindInternal Kind = iota
	// KindAuthentication means the backend rejected the credentials.
	KindAuthentication
	// KindSessionAbsent means no live session matches the presented token.
	KindSessionAbsent
	// KindNotFound means the addressed resource does not exist.
	KindNotFound
	// KindBadRequest means the request itself is malformed.
	KindBadRequest
	// KindSessionFailure is a session-layer failure such as an ambiguous name.
	KindSessionFailure
	// KindProtocol is an error reported by the LysKOM backend.
	KindProtocol
	// KindBusy means the session lock could not be taken in time.
	KindBusy
	// KindPermission means the caller lacks the credentials for an
	// administrative operation.
	KindPermission
	// KindRateLimited means the caller exceeded a request rate limit.
	KindRateLimited
	// KindMethodNotAllowed means the path exists but not for this method.
	KindMethodNotAllowed
)

var kindNames = [...]string{
	KindInternal:       "internal",
	KindAuthentication: "authentication",
	KindSessionAbsent:  "session-absent",
	KindNotFound:       "not-found",
	KindBadRequest:     "bad-request",
	KindSessionFailure: "session-failure",
	KindProtocol:       "protocol",
	KindBusy:           "busy",
	KindPermission:     "permission",
	KindRateLimited:    "rate-limited",

	KindMethodNotAllowed: "method-not-allowed",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// DomainError is a classified error with a stable code.
//
// Codes have the form HK-<AREA>-<NNNN>; the last four digits echo the HTTP
// status the error usually ends up as.
type DomainError struct {
	Kind    Kind
	Code    string // e.g. "HK-SESS-4030"
	Message string
	Details string
	Cause   error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Text returns the client-facing message: Message, plus Details when set.
func (e *DomainError) Text() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// NewDomainError creates a new DomainError.
func NewDomainError(kind Kind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithDetailsf is WithDetails with fmt formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// KindOf classifies err. The outermost DomainError wins; a bare
// ProtocolError is KindProtocol; anything else is KindInternal.
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return KindProtocol
	}
	return KindInternal
}

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrSessionAbsent indicates the request carried no token, or one that
	// matches no live session on the addressed server.
	ErrSessionAbsent = NewDomainError(KindSessionAbsent, "HK-SESS-4030", "no valid session")

	// ErrSessionNotFound indicates the session addressed by a resource path
	// does not exist.
	ErrSessionNotFound = NewDomainError(KindNotFound, "HK-SESS-4040", "session not found")

	// ErrSessionBusy indicates the session lock was not acquired in time.
	ErrSessionBusy = NewDomainError(KindBusy, "HK-SESS-5030", "session busy, retry later")

	// ErrSessionConflict indicates a freshly minted token collided with a live one.
	ErrSessionConflict = NewDomainError(KindInternal, "HK-SESS-5000", "session token conflict")

	// ErrSessionFailure is a generic session-layer failure.
	ErrSessionFailure = NewDomainError(KindSessionFailure, "HK-SESS-4000", "session failure")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrAuthenticationFailed indicates the backend rejected the login.
	ErrAuthenticationFailed = NewDomainError(KindAuthentication, "HK-AUTH-4010", "authentication failed")

	// ErrAdminKeyInvalid indicates a missing or wrong administrative key.
	ErrAdminKeyInvalid = NewDomainError(KindPermission, "HK-AUTH-4030", "admin key required")

	// ErrRateLimited indicates too many login attempts from one client.
	ErrRateLimited = NewDomainError(KindRateLimited, "HK-AUTH-4290", "too many requests")
)

// ============================================================================
// Name Resolution Errors (NAME)
// ============================================================================

var (
	// ErrAmbiguousName indicates a name matched more than one person.
	ErrAmbiguousName = NewDomainError(KindSessionFailure, "HK-NAME-4001", "ambiguous name")

	// ErrNameNotFound indicates a name matched no person.
	ErrNameNotFound = NewDomainError(KindSessionFailure, "HK-NAME-4002", "name not found")
)

// ============================================================================
// Request Errors (REQ)
// ============================================================================

var (
	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError(KindBadRequest, "HK-REQ-4000", "bad request")

	// ErrMissingField indicates a required request field is absent or null.
	ErrMissingField = NewDomainError(KindBadRequest, "HK-REQ-4001", "missing field")

	// ErrServerNotFound indicates the path named an unconfigured server.
	ErrServerNotFound = NewDomainError(KindNotFound, "HK-REQ-4040", "server not found")

	// ErrNotFound indicates an unknown route or resource.
	ErrNotFound = NewDomainError(KindNotFound, "HK-REQ-4041", "not found")

	// ErrMethodNotAllowed indicates a known path called with the wrong method.
	ErrMethodNotAllowed = NewDomainError(KindMethodNotAllowed, "HK-REQ-4050", "method not allowed")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError(KindInternal, "HK-SYS-5000", "internal server error")

	// ErrBackendUnavailable indicates the backend could not be reached or
	// dropped the connection.
	ErrBackendUnavailable = NewDomainError(KindInternal, "HK-SYS-5020", "lyskom server unavailable")
)
