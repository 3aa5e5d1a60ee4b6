package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/derfian/httpkom/internal/core/domain"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into v. An empty body is an error
// unless optional is set, in which case v is left untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			if optional {
				return nil
			}
			return domain.ErrBadRequest.WithDetails("missing request body")
		}
		return domain.ErrBadRequest.WithDetailsf("invalid JSON body: %v", err)
	}
	return nil
}

// pathInt parses a numeric path segment.
func pathInt(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.ErrBadRequest.WithDetailsf("invalid %s %q", name, raw)
	}
	return n, nil
}

// queryBool parses a boolean query parameter, returning def when it is
// absent.
func queryBool(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.ErrBadRequest.WithDetailsf("invalid %s %q", name, raw)
	}
	return b, nil
}
