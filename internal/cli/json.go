package cli

import (
	stderrors "errors"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/rileyhilliard/btcdash/internal/node"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All --json output should use this envelope.
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
	ErrCodeConfigInvalid   = "CONFIG_INVALID"
	ErrCodeNodeUnreachable = "NODE_UNREACHABLE"
	ErrCodeNodeTimeout     = "NODE_TIMEOUT"
	ErrCodeCommandFailed   = "COMMAND_FAILED"
	ErrCodeParseFailed     = "PARSE_FAILED"
	ErrCodeInputInvalid    = "INPUT_INVALID"
	ErrCodeAddressInvalid  = "ADDRESS_INVALID"
	ErrCodeUnknown         = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: true, Data: data})
}

// WriteJSONError writes an error response to the writer.
func WriteJSONError(w io.Writer, code, message, suggestion string) error {
	return writeJSONEnvelope(w, JSONEnvelope{
		Error: &JSONError{Code: code, Message: message, Suggestion: suggestion},
	})
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{Error: ErrorToJSON(err)})
}

// WriteJSONFromOutcome reports a failed node call.
func WriteJSONFromOutcome(w io.Writer, method string, o node.Outcome) error {
	return WriteJSONError(w, outcomeCode(o.Kind), o.Summary(), node.Hint(method, o))
}

func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := jsonAPI.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError with appropriate code mapping.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	out := &JSONError{Code: mapErrorCode(errors.CodeOf(err)), Message: err.Error()}
	var dashErr *errors.Error
	if stderrors.As(err, &dashErr) {
		out.Message = dashErr.Message
		out.Suggestion = dashErr.Suggestion
	}
	return out
}

// mapErrorCode maps internal error codes to machine-readable codes.
func mapErrorCode(internalCode string) string {
	switch internalCode {
	case errors.ErrConfig:
		return ErrCodeConfigInvalid
	case errors.ErrSSH:
		return ErrCodeNodeUnreachable
	case errors.ErrExec:
		return ErrCodeCommandFailed
	case errors.ErrParse:
		return ErrCodeParseFailed
	case errors.ErrInput:
		return ErrCodeInputInvalid
	case errors.ErrAddress:
		return ErrCodeAddressInvalid
	default:
		return ErrCodeUnknown
	}
}

func outcomeCode(k node.OutcomeKind) string {
	switch k {
	case node.SpawnFailed:
		return ErrCodeNodeUnreachable
	case node.TimedOut:
		return ErrCodeNodeTimeout
	case node.ParseFailed:
		return ErrCodeParseFailed
	default:
		return ErrCodeCommandFailed
	}
}
