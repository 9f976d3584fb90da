package upload

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// RejectedError is returned when the server answers with a non-2xx status.
// Its message is the response body verbatim.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server responded with status %d", e.StatusCode)
	}
	return e.Body
}

// decodeBody converts a response body to a string, replacing invalid UTF-8
// sequences with U+FFFD.
func decodeBody(raw []byte) string {
	decoded, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
