package domain

import (
	"errors"
	"testing"
)

func TestProtocolErrorName(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "no-error"},
		{4, "invalid-password"},
		{6, "login-first"},
		{9, "undefined-conference"},
		{42, "undefined-session"},
		{61, "bad-bool"},
		{1, "unknown-error-1"},
		{62, "unknown-error-62"},
		{-3, "unknown-error--3"},
	}
	for _, tt := range tests {
		if got := ProtocolErrorName(tt.code); got != tt.want {
			t.Errorf("ProtocolErrorName(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestProtocolError(t *testing.T) {
	err := NewProtocolError(CodeUndefinedPerson, 17)
	if err.Error() != "lyskom error 10 (undefined-person), status 17" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, NewProtocolError(CodeUndefinedPerson, 0)) {
		t.Error("errors.Is should match on code")
	}
	if errors.Is(err, NewProtocolError(CodeLoginFirst, 17)) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestProtocolClassification(t *testing.T) {
	for _, code := range []int{4, 7, 8, 10} {
		if !IsLoginRejection(code) {
			t.Errorf("IsLoginRejection(%d) = false", code)
		}
	}
	if IsLoginRejection(CodeLoginFirst) {
		t.Error("login-first is not a login rejection")
	}
	for _, code := range []int{9, 10, 13, 14, 16, 42} {
		if !IsNotFoundCode(code) {
			t.Errorf("IsNotFoundCode(%d) = false", code)
		}
	}
	if IsNotFoundCode(CodeInvalidPassword) {
		t.Error("invalid-password is not a not-found code")
	}
}
