// Package cdberr defines the error taxonomy surfaced at the query
// boundary: which failures map to which HTTP status, and which are
// fatal to a single request versus the process.
package cdberr

import "errors"

// Sentinel kinds. Wrap these with fmt.Errorf("...: %w", ErrX) so
// errors.Is still matches while keeping a diagnostic message.
var (
	// ErrDbError covers underlying store I/O or corruption. Not retried:
	// the store is expected to be locally consistent.
	ErrDbError = errors.New("store error")

	// ErrBadPosition means the FEN failed to parse or is not a legal
	// chess position.
	ErrBadPosition = errors.New("bad position")

	// ErrMultiPvRange means multi_pv fell outside [1, 5].
	ErrMultiPvRange = errors.New("multi_pv out of range")

	// ErrMalformedBlob means a value blob violated the decoder's
	// structural rules. Fatal for the request, not for the server.
	ErrMalformedBlob = errors.New("malformed value blob")
)

// HTTPStatus returns the status code a request-boundary handler should
// use for err, or 0 if err doesn't match any known kind.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrBadPosition), errors.Is(err, ErrMultiPvRange):
		return 400
	case errors.Is(err, ErrDbError), errors.Is(err, ErrMalformedBlob):
		return 500
	default:
		return 0
	}
}
