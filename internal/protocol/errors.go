package protocol

import "errors"

// Sentinel errors reported by the parsers. Callers classify with errors.Is;
// the wrapped form carries the detail.
var (
	// ErrInvalidFormat reports a datagram payload that cannot be decoded:
	// empty text or a missing stream code.
	ErrInvalidFormat = errors.New("invalid message format")

	// ErrInvalidSchema reports a grammar document that cannot be read at all.
	// Individually malformed sections are skipped, not reported.
	ErrInvalidSchema = errors.New("invalid schema document")
)
