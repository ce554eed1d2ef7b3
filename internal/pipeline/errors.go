package pipeline

import "fmt"

// StepError identifies the step at which a run stopped.
type StepError struct {
	Step  string
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}
