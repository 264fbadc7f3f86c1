package collector

import "errors"

// Failure classes surfaced by fetchers. Collector operations swallow them.
var (
	ErrTransport = errors.New("transport failure")
	ErrParse     = errors.New("unexpected payload")
	ErrEmpty     = errors.New("no data for symbol")
)

// ErrorKind names the failure class of err for log fields.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrEmpty):
		return "empty"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}
