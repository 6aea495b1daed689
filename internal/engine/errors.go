package engine

import "fmt"

// LoadError reports a snapshot source that could not be read or parsed.
// Batch callers treat it as "no data" and return an empty report.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading snapshot from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// InvalidInputError reports a muscle token outside the taxonomy. It never
// leaves the engine; ValidateOne turns it into an InvalidMuscleGroup result.
type InvalidInputError struct {
	Token string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid muscle group %q", e.Token)
}
