package webhook

import (
	"errors"
	"fmt"
)

var ErrEmptyURL = errors.New("webhook url is required")

// RemoteRejection is returned when the endpoint answers with a status other
// than 200.
type RemoteRejection struct {
	StatusCode int
	Body       []byte
}

func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("webhook rejected: status %d: %s", e.StatusCode, truncate(string(e.Body), 256))
}

// TransportError wraps a failure that happened before a response was
// received (DNS, connect, TLS, timeout).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "webhook transport: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

func truncate(s string, maxN int) string {
	if maxN <= 0 || len(s) <= maxN {
		return s
	}
	if maxN < 10 {
		return s[:maxN]
	}
	return s[:maxN-3] + "..."
}
