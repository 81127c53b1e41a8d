package transcript

import "fmt"

// ValidationError indicates the transcript failed a structural precondition.
// It is the only error that blocks the pipeline before generation and maps
// to a bad-request outcome at the HTTP boundary.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transcript: %s", e.Reason)
}
