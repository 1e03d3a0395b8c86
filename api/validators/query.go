package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/itqan-platform/itqan-backend/pkg/errors"
)

const maxCursorLen = 256

// ParseQueryInt reads key as an integer in [min, max], falling back to
// defaultVal when absent.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseCursorQuery returns the opaque "cursor" parameter. Decoding is left to
// the service that issued it; only obviously oversized values are rejected.
func ParseCursorQuery(r *http.Request) (string, error) {
	cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
	if len(cursor) > maxCursorLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cursor is too long").WithDetails(map[string]any{"field": "cursor"})
	}
	return cursor, nil
}
