package runner

import (
	"errors"
	"fmt"
)

// ErrInputExhausted is returned when the program blocks on input and no
// input source can supply more.
var ErrInputExhausted = errors.New("program is waiting for input but no input remains")

// StepsExceededError is returned when a run exceeds the max steps quota.
type StepsExceededError struct {
	RunID string // The run that exceeded the quota
	Steps int64  // Number of steps taken
	Limit int64  // Maximum allowed steps
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("run %s exceeded max steps quota: %d steps >= %d limit",
		e.RunID, e.Steps, e.Limit)
}

// IsQuotaError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsQuotaError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
