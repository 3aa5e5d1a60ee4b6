package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/derfian/httpkom/internal/core/domain"
	"github.com/derfian/httpkom/internal/telemetry/logger"
)

// Values of error_type.
const (
	ErrorTypeProtocol = "protocol"
	ErrorTypeSession  = "session"
	ErrorTypeRequest  = "request"
)

const internalErrorMsg = "internal server error"

// ErrorRecord is the HTTP rendering of an error.
type ErrorRecord struct {
	Status     int
	RetryAfter string // seconds; empty means no Retry-After header
	Body       ErrorBody
}

// ErrorBody is the JSON error response. ErrorCode and ErrorStatus are set
// only for errors reported by the LysKOM server.
type ErrorBody struct {
	ErrorType   string  `json:"error_type"`
	ErrorCode   *int    `json:"error_code,omitempty"`
	ErrorStatus *string `json:"error_status,omitempty"`
	ErrorMsg    string  `json:"error_msg"`
}

// Translate maps err onto its HTTP status and body.
func Translate(err error) ErrorRecord {
	var pe *domain.ProtocolError
	hasProtocol := errors.As(err, &pe)

	switch domain.KindOf(err) {
	case domain.KindAuthentication:
		if hasProtocol {
			return protocolRecord(http.StatusUnauthorized, pe)
		}
		return record(http.StatusUnauthorized, ErrorTypeSession, err)
	case domain.KindSessionAbsent:
		return record(http.StatusForbidden, ErrorTypeSession, err)
	case domain.KindNotFound:
		return record(http.StatusNotFound, ErrorTypeRequest, err)
	case domain.KindBadRequest:
		return record(http.StatusBadRequest, ErrorTypeRequest, err)
	case domain.KindSessionFailure:
		return record(http.StatusBadRequest, ErrorTypeSession, err)
	case domain.KindProtocol:
		if hasProtocol {
			return protocolRecord(protocolStatus(pe.Code), pe)
		}
	case domain.KindBusy:
		rec := record(http.StatusServiceUnavailable, ErrorTypeSession, err)
		rec.RetryAfter = "1"
		return rec
	case domain.KindPermission:
		return record(http.StatusForbidden, ErrorTypeRequest, err)
	case domain.KindRateLimited:
		rec := record(http.StatusTooManyRequests, ErrorTypeRequest, err)
		rec.RetryAfter = "1"
		return rec
	case domain.KindMethodNotAllowed:
		return record(http.StatusMethodNotAllowed, ErrorTypeRequest, err)
	case domain.KindInternal:
	}
	return ErrorRecord{
		Status: http.StatusInternalServerError,
		Body:   ErrorBody{ErrorType: ErrorTypeRequest, ErrorMsg: internalErrorMsg},
	}
}

// protocolStatus is the HTTP status for a LysKOM error code.
func protocolStatus(code int) int {
	switch {
	case code == domain.CodeLoginFirst:
		return http.StatusUnauthorized
	case domain.IsNotFoundCode(code):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func protocolRecord(status int, pe *domain.ProtocolError) ErrorRecord {
	code := pe.Code
	st := strconv.Itoa(pe.Status)
	return ErrorRecord{
		Status: status,
		Body: ErrorBody{
			ErrorType:   ErrorTypeProtocol,
			ErrorCode:   &code,
			ErrorStatus: &st,
			ErrorMsg:    pe.Name(),
		},
	}
}

func record(status int, errorType string, err error) ErrorRecord {
	msg := err.Error()
	var de *domain.DomainError
	if errors.As(err, &de) {
		msg = de.Text()
	}
	return ErrorRecord{Status: status, Body: ErrorBody{ErrorType: errorType, ErrorMsg: msg}}
}

// WriteError translates err and writes it. Server faults are logged with
// full detail; the client only sees a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	rec := Translate(err)

	log := logger.L(r.Context())
	if rec.Status >= http.StatusInternalServerError && rec.Status != http.StatusServiceUnavailable {
		log.Error("request failed", "error", err, "path", r.URL.Path)
	} else {
		log.Debug("request rejected", "error", err, "status", rec.Status)
	}

	if code := domain.GetErrorCode(err); code != "" {
		w.Header().Set("X-Error-Code", code)
	}
	if rec.RetryAfter != "" {
		w.Header().Set("Retry-After", rec.RetryAfter)
	}
	writeJSON(w, r, rec.Status, rec.Body)
}
