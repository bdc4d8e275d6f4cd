package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
)

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All JSON output should use this envelope.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Error codes for machine-readable output.
const (
	ErrCodeConfigNotFound       = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid        = "CONFIG_INVALID"
	ErrCodeTailscaleUnavailable = "TAILSCALE_UNAVAILABLE"
	ErrCodeStatusUnreadable     = "STATUS_UNREADABLE"
	ErrCodeHostAmbiguous        = "HOST_AMBIGUOUS"
	ErrCodeHostOffline          = "HOST_OFFLINE"
	ErrCodeDependencyMissing    = "DEPENDENCY_MISSING"
	ErrCodeCommandFailed        = "COMMAND_FAILED"
	ErrCodeUsage                = "USAGE"
	ErrCodeUnknown              = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{
		Success: true,
		Data:    data,
	})
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{
		Success: false,
		Error:   ErrorToJSON(err),
	})
}

// writeJSONEnvelope writes the envelope with consistent formatting.
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

	var tsErr *errors.Error
	if stderrors.As(err, &tsErr) {
		return &JSONError{
			Code:       mapErrorCode(tsErr.Code, tsErr.Message),
			Message:    tsErr.Message,
			Suggestion: tsErr.Suggestion,
		}
	}

	return &JSONError{
		Code:    ErrCodeUnknown,
		Message: err.Error(),
	}
}

// mapErrorCode maps internal error codes to machine-readable codes.
func mapErrorCode(internalCode, message string) string {
	switch internalCode {
	case errors.ErrConfig:
		msgLower := strings.ToLower(message)
		if strings.Contains(msgLower, "not found") {
			return ErrCodeConfigNotFound
		}
		return ErrCodeConfigInvalid
	case errors.ErrSourceUnavailable:
		return ErrCodeTailscaleUnavailable
	case errors.ErrSource:
		return ErrCodeStatusUnreadable
	case errors.ErrAmbiguous:
		return ErrCodeHostAmbiguous
	case errors.ErrUnreachable:
		return ErrCodeHostOffline
	case errors.ErrToolMissing:
		return ErrCodeDependencyMissing
	case errors.ErrExec:
		return ErrCodeCommandFailed
	case errors.ErrUsage:
		return ErrCodeUsage
	}
	return ErrCodeUnknown
}
