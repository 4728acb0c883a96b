package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ruteri/docvault/api"
	"github.com/ruteri/docvault/interfaces"
	"github.com/ruteri/docvault/storage"
	"github.com/ruteri/docvault/transfer"
)

// RequestError provides structured error information for HTTP responses.
// It includes both an HTTP status code and the underlying error.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the error message from the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// statusFor maps vault errors onto status codes.
func statusFor(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}

	switch {
	case errors.Is(err, interfaces.ErrWrongPassword):
		return http.StatusUnauthorized
	case errors.Is(err, interfaces.ErrVaultNotFound),
		errors.Is(err, interfaces.ErrPayloadMissing),
		errors.Is(err, interfaces.ErrSignatureNotFound),
		errors.Is(err, interfaces.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrNotUnlocked):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrEmptyName),
		errors.Is(err, interfaces.ErrInvalidBundle),
		errors.Is(err, interfaces.ErrInvalidTemplates),
		errors.Is(err, interfaces.ErrBuiltinTemplate),
		errors.Is(err, interfaces.ErrInvalidSignature),
		errors.Is(err, interfaces.ErrUnsupportedVersion),
		errors.Is(err, transfer.ErrInvalidChunk),
		errors.Is(err, transfer.ErrIncomplete),
		errors.Is(err, storage.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error("Failed to encode response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		h.log.Debug("Failed to write response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			"err", err)
	} else {
		h.log.Debug("Request rejected",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			"err", err)
	}
	h.writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("invalid request body")}
	}
	return nil
}
