package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork means the request could not complete.
	ErrNetwork = errors.New("network error")
	// ErrProtocol means the service answered with a non-2xx status.
	ErrProtocol = errors.New("unexpected status")
	// ErrParse means the response body did not decode into the expected shape.
	ErrParse = errors.New("malformed response")
)

// StatusError carries the status of a non-2xx response. It matches ErrProtocol.
type StatusError struct {
	Endpoint string
	Code     int
	Status   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s failed: %s", e.Endpoint, e.Status)
}

// Is reports ErrProtocol as a match.
func (e *StatusError) Is(target error) bool {
	return target == ErrProtocol
}

// Kind names the failure class of err for log fields.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrParse):
		return "parse"
	default:
		return "unknown"
	}
}
