// Package response provides HTTP response formatting: JSON with optional
// JSONP callback wrapping, SVG bodies with Last-Modified, and coded error
// mapping.
package response

import (
	"encoding/json/v2"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	domainerrors "github.com/iconcommons/iconcommons-server/internal/errors"
)

// callbackPattern accepts plain JavaScript identifiers with dotted paths
// (e.g. "jQuery123.cb"). Anything else is rejected to keep the JSONP
// wrapping from becoming a script injection vector.
var callbackPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

// JSON writes data as a JSON response using json/v2. When the request
// carries a callback query parameter the body is wrapped as a JSONP script
// instead: `callback({...});` with an application/javascript content type.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any, logger *slog.Logger) {
	callback := r.URL.Query().Get("callback")
	if callback != "" {
		if !callbackPattern.MatchString(callback) {
			HandleError(w, r, domainerrors.MalformedInput("invalid callback name"), logger)
			return
		}
		writeJSONP(w, status, callback, data, logger)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// json/v2 MarshalWrite doesn't add a newline, but that's fine for HTTP responses.
	if err := json.MarshalWrite(w, data); err != nil {
		if logger != nil {
			logger.Error("Failed to encode JSON response", "error", err)
		}
	}
}

func writeJSONP(w http.ResponseWriter, status int, callback string, data any, logger *slog.Logger) {
	body, err := json.Marshal(data)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to encode JSONP response", "error", err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.WriteHeader(status)

	if _, err := w.Write(append(append([]byte(callback+"("), body...), []byte(");")...)); err != nil {
		if logger != nil {
			logger.Error("Failed to write JSONP response", "error", err)
		}
	}
}

// SVG writes an SVG document with its version's modification time. The
// Last-Modified header uses the standard HTTP date format, which has
// second granularity.
func SVG(w http.ResponseWriter, svg []byte, modified time.Time) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Last-Modified", modified.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// NotModified writes a 304 response for conditional GETs.
func NotModified(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotModified)
}

// errorBody is the wire shape for error responses.
type errorBody struct {
	Error *domainerrors.Error `json:"error"`
}

// HandleError writes an appropriate HTTP response based on the error type.
// Coded domain errors map to their HTTP status; unknown errors become 500
// without leaking their message.
func HandleError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		if logger != nil {
			logger.Error("Unhandled error", "error", err, "path", r.URL.Path)
		}
		domainErr = domainerrors.Internal("internal server error")
	}

	status := domainErr.HTTPStatus()
	if status >= 500 && logger != nil {
		logger.Error("Request failed", "error", err, "path", r.URL.Path)
	}

	// Errors honor the callback wrapping too; a JSONP client can't read a
	// plain JSON error body.
	callback := r.URL.Query().Get("callback")
	if callback != "" && callbackPattern.MatchString(callback) {
		writeJSONP(w, status, callback, errorBody{Error: domainErr}, logger)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if encodeErr := json.MarshalWrite(w, errorBody{Error: domainErr}); encodeErr != nil {
		if logger != nil {
			logger.Error("Failed to encode error response", "error", encodeErr)
		}
	}
}
