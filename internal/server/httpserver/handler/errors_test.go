package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/derfian/httpkom/internal/core/domain"
)

var errTest = errors.New("connection reset by peer")

func TestTranslate(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantMsg    string
	}{
		{"session absent", domain.ErrSessionAbsent, http.StatusForbidden, ErrorTypeSession, "no valid session"},
		{"session not found", domain.ErrSessionNotFound, http.StatusNotFound, ErrorTypeRequest, "session not found"},
		{"server not found", domain.ErrServerNotFound.WithDetails("x"), http.StatusNotFound, ErrorTypeRequest, "server not found: x"},
		{"bad request", domain.ErrMissingField.WithDetails(`missing "passwd"`), http.StatusBadRequest, ErrorTypeRequest, `missing field: missing "passwd"`},
		{"ambiguous", domain.ErrAmbiguousName, http.StatusBadRequest, ErrorTypeSession, "ambiguous name"},
		{"auth without protocol", domain.ErrAuthenticationFailed, http.StatusUnauthorized, ErrorTypeSession, "authentication failed"},
		{"permission", domain.ErrAdminKeyInvalid, http.StatusForbidden, ErrorTypeRequest, "admin key required"},
		{"method not allowed", domain.ErrMethodNotAllowed, http.StatusMethodNotAllowed, ErrorTypeRequest, "method not allowed"},
		{"unknown route", domain.ErrNotFound, http.StatusNotFound, ErrorTypeRequest, "not found"},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests, ErrorTypeRequest, "too many requests"},
		{"busy", domain.ErrSessionBusy, http.StatusServiceUnavailable, ErrorTypeSession, "session busy, retry later"},
		{"internal domain", domain.ErrInternalServer.WithDetails("secret detail"), http.StatusInternalServerError, ErrorTypeRequest, "internal server error"},
		{"plain error", errTest, http.StatusInternalServerError, ErrorTypeRequest, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Translate(tt.err)
			assert.Equal(t, tt.wantStatus, rec.Status)
			assert.Equal(t, tt.wantType, rec.Body.ErrorType)
			assert.Equal(t, tt.wantMsg, rec.Body.ErrorMsg)
			assert.Nil(t, rec.Body.ErrorCode)
			assert.Nil(t, rec.Body.ErrorStatus)
		})
	}
}

func TestTranslate_Protocol(t *testing.T) {
	pe := domain.NewProtocolError(domain.CodeNoSuchText, 4711)
	rec := Translate(fmt.Errorf("get text: %w", pe))
	assert.Equal(t, http.StatusNotFound, rec.Status)
	assert.Equal(t, ErrorTypeProtocol, rec.Body.ErrorType)
	assert.Equal(t, domain.CodeNoSuchText, *rec.Body.ErrorCode)
	assert.Equal(t, "4711", *rec.Body.ErrorStatus)
	assert.Equal(t, "no-such-text", rec.Body.ErrorMsg)

	auth := domain.ErrAuthenticationFailed.WithCause(domain.NewProtocolError(domain.CodeLoginDisallowed, 0))
	rec = Translate(auth)
	assert.Equal(t, http.StatusUnauthorized, rec.Status)
	assert.Equal(t, ErrorTypeProtocol, rec.Body.ErrorType)
	assert.Equal(t, "login-disallowed", rec.Body.ErrorMsg)
}

func TestWriteError_Headers(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), domain.ErrSessionBusy)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, "HK-SESS-5030", w.Header().Get("X-Error-Code"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error_type":"session","error_msg":"session busy, retry later"}`, w.Body.String())
}
