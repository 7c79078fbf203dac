package libmm

import (
	"encoding/json"
	"io"
)

// A RemoteError represents an HTTP error returned by the entry repository, or
// a response whose shape could not be validated (StatusCode 0).
type RemoteError struct {
	StatusCode int
	Err        struct {
		Message string `json:"message"`
	} `json:"error"`
}

func newRemoteError(code int, message string) *RemoteError {
	rerr := &RemoteError{StatusCode: code}
	rerr.Err.Message = message
	return rerr
}

func parseRemoteError(r io.Reader, code int) error {
	var rerr RemoteError
	dec := json.NewDecoder(r)
	if err := dec.Decode(&rerr); err != nil {
		return newRemoteError(code, "unreadable error response")
	}
	rerr.StatusCode = code
	return &rerr
}

func (e *RemoteError) Error() string {
	return e.Err.Message
}

// IsNotFound returns true when err is a RemoteError for an absent record.
func IsNotFound(err error) bool {
	rerr, ok := err.(*RemoteError)
	return ok && rerr.StatusCode == 404
}
