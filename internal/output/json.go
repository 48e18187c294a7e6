package output

import (
	"io"

	"github.com/goccy/go-json"
)

// ErrorPayload is the JSON error shape.
type ErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes v to w, indented when pretty is set.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// WriteJSONError writes err as an ErrorPayload with the exit code in details.
func WriteJSONError(w io.Writer, err error, code int) error {
	return WriteJSON(w, ErrorPayload{
		Error:   "error",
		Message: err.Error(),
		Details: map[string]any{"code": code},
	}, true)
}
