package analysis

import "errors"

var (
	// ErrInvalidRequest rejects a whole batch before any model call is made
	ErrInvalidRequest = errors.New("invalid analysis request")

	// ErrUnparsableResponse marks a reply from which nothing structured was recovered
	ErrUnparsableResponse = errors.New("unparsable model response")

	// ErrEthicalViolation marks a built record that failed compliance validation
	ErrEthicalViolation = errors.New("analysis violates the ethical policy")
)
