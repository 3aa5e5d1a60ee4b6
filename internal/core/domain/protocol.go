package domain

import (
	"fmt"
	"strconv"
)

// Protocol A error codes referenced by the gateway. The full table is in
// protocolErrorNames.
const (
	CodeNoError               = 0
	CodeInvalidPassword       = 4
	CodeLoginFirst            = 6
	CodeLoginDisallowed       = 7
	CodeConferenceZero        = 8
	CodeUndefinedConference   = 9
	CodeUndefinedPerson       = 10
	CodeNotMember             = 13
	CodeNoSuchText            = 14
	CodeNoSuchLocalText       = 16
	CodeUndefinedSession      = 42
	CodeTemporaryFailure      = 45
	CodeInvalidMembershipType = 54
)

var protocolErrorNames = [...]string{
	"no-error",
	"", // 1 is unassigned
	"not-implemented",
	"obsolete-call",
	"invalid-password",
	"string-too-long",
	"login-first",
	"login-disallowed",
	"conference-zero",
	"undefined-conference",
	"undefined-person",
	"access-denied",
	"permission-denied",
	"not-member",
	"no-such-text",
	"text-zero",
	"no-such-local-text",
	"local-text-zero",
	"bad-name",
	"index-out-of-range",
	"conference-exists",
	"person-exists",
	"secret-public",
	"letterbox",
	"ldb-error",
	"illegal-misc",
	"illegal-info-type",
	"already-recipient",
	"already-comment",
	"already-footnote",
	"not-recipient",
	"not-comment",
	"not-footnote",
	"recipient-limit",
	"comment-limit",
	"footnote-limit",
	"mark-limit",
	"not-author",
	"no-connect",
	"out-of-memory",
	"server-is-crazy",
	"client-is-crazy",
	"undefined-session",
	"regexp-error",
	"not-marked",
	"temporary-failure",
	"long-array",
	"anonymous-rejected",
	"illegal-aux-item",
	"aux-item-permission",
	"unknown-async",
	"internal-error",
	"feature-disabled",
	"message-not-sent",
	"invalid-membership-type",
	"invalid-range",
	"invalid-range-list",
	"undefined-measurement",
	"priority-denied",
	"weight-denied",
	"weight-zero",
	"bad-bool",
}

// ProtocolError is an error reply (%ref code status) from a LysKOM server.
// Status is the call-specific error-status, often the offending argument.
type ProtocolError struct {
	Code   int
	Status int
}

// NewProtocolError returns a ProtocolError for code and status.
func NewProtocolError(code, status int) *ProtocolError {
	return &ProtocolError{Code: code, Status: status}
}

// Name returns the symbolic name of the error code, e.g. "invalid-password".
func (e *ProtocolError) Name() string {
	return ProtocolErrorName(e.Code)
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("lyskom error %d (%s), status %d", e.Code, e.Name(), e.Status)
}

// Is matches another ProtocolError with the same code.
func (e *ProtocolError) Is(target error) bool {
	t, ok := target.(*ProtocolError)
	return ok && t.Code == e.Code
}

// ProtocolErrorName maps a Protocol A error code to its symbolic name.
func ProtocolErrorName(code int) string {
	if code >= 0 && code < len(protocolErrorNames) && protocolErrorNames[code] != "" {
		return protocolErrorNames[code]
	}
	return "unknown-error-" + strconv.Itoa(code)
}

// IsLoginRejection reports whether code is one a server answers a failed
// login with.
func IsLoginRejection(code int) bool {
	switch code {
	case CodeInvalidPassword, CodeUndefinedPerson, CodeLoginDisallowed, CodeConferenceZero:
		return true
	}
	return false
}

// IsNotFoundCode reports whether code means the addressed object does not exist.
func IsNotFoundCode(code int) bool {
	switch code {
	case CodeUndefinedConference, CodeUndefinedPerson, CodeNotMember,
		CodeNoSuchText, CodeNoSuchLocalText, CodeUndefinedSession:
		return true
	}
	return false
}
