package stage

import "fmt"

// StageError indicates a generation stage exhausted its retry budget.
// It preserves the stage name and the last underlying cause for diagnostics;
// the HTTP boundary maps it to an internal-error outcome.
type StageError struct {
	Stage    string
	Attempts int
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed after %d attempts: %v", e.Stage, e.Attempts, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
