package neocities

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds returned by Client. Use errors.Is to classify a failure.
var (
	ErrInvalidCredentials = errors.New("neocities: username and password are required")
	ErrClientClosed       = errors.New("neocities: client is closed")
	ErrFileNotFound       = errors.New("neocities: local file not found")
	ErrNoFiles            = errors.New("neocities: no files given")
	ErrInvalidFilename    = errors.New("neocities: invalid remote filename")
	ErrNetwork            = errors.New("neocities: network error")
	ErrAuth               = errors.New("neocities: authentication rejected")
	ErrNotFound           = errors.New("neocities: not found")
	ErrDecode             = errors.New("neocities: malformed response")
	ErrUpload             = errors.New("neocities: upload failed")
	ErrDelete             = errors.New("neocities: delete failed")
)

const errorTypeInvalidAuth = "invalid_auth"

// APIError is a failure reported by the API in a well-formed response.
type APIError struct {
	Op         string
	StatusCode int
	Result     string
	ErrorType  string
	Message    string
	Kind       error
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "neocities %s: status %d", e.Op, e.StatusCode)
	if e.ErrorType != "" {
		fmt.Fprintf(&b, " %s", e.ErrorType)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Kind }
