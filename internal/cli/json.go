package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/MandiZhao/lowvr/internal/errors"
	"github.com/MandiZhao/lowvr/internal/fetch"
)

// machineMode is set by --json; errors are then written as JSON envelopes
// on stdout instead of styled text on stderr.
var machineMode bool

// MachineMode returns true if machine-readable output is enabled
func MachineMode() bool {
	return machineMode
}

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All --json output should use this envelope.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

// Error codes for machine-readable output.
const (
	ErrCodeConfigNotFound = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "CONFIG_INVALID"
	ErrCodeRunNotFound    = "RUN_NOT_FOUND"
	ErrCodeRunUnreadable  = "RUN_UNREADABLE"
	ErrCodeRemoteFailed   = "REMOTE_FAILED"
	ErrCodeServeFailed    = "SERVE_FAILED"
	ErrCodeBadInput       = "BAD_INPUT"
	ErrCodeExecFailed     = "EXEC_FAILED"
	ErrCodeUnknown        = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: true, Data: data})
}

// WriteJSONError writes an error response to the writer.
func WriteJSONError(w io.Writer, code, message, suggestion string, details interface{}) error {
	env := JSONEnvelope{
		Success: false,
		Error: &JSONError{
			Code:       code,
			Message:    message,
			Suggestion: suggestion,
			Details:    details,
		},
	}
	return writeJSONEnvelope(w, env)
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: false, Error: ErrorToJSON(err)})
}

func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError with appropriate code mapping.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	var statusErr *fetch.StatusError
	if stderrors.As(err, &statusErr) {
		return &JSONError{
			Code:    ErrCodeRemoteFailed,
			Message: statusErr.Error(),
			Details: map[string]interface{}{"status": statusErr.StatusCode},
		}
	}

	var lvErr *errors.Error
	if stderrors.As(err, &lvErr) {
		return &JSONError{
			Code:       mapErrorCode(lvErr.Code, lvErr.Message),
			Message:    lvErr.Message,
			Suggestion: lvErr.Suggestion,
		}
	}

	return &JSONError{
		Code:    ErrCodeUnknown,
		Message: err.Error(),
	}
}

// mapErrorCode maps internal error codes to machine-readable codes.
func mapErrorCode(internalCode, message string) string {
	notFound := strings.Contains(strings.ToLower(message), "not found")
	switch internalCode {
	case errors.ErrConfig:
		if notFound {
			return ErrCodeConfigNotFound
		}
		return ErrCodeConfigInvalid
	case errors.ErrRun:
		if notFound {
			return ErrCodeRunNotFound
		}
		return ErrCodeRunUnreadable
	case errors.ErrFetch:
		return ErrCodeRemoteFailed
	case errors.ErrServe:
		return ErrCodeServeFailed
	case errors.ErrInput:
		return ErrCodeBadInput
	case errors.ErrExec:
		return ErrCodeExecFailed
	}
	return ErrCodeUnknown
}
