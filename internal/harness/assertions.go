package harness

import (
	"fmt"
	"strconv"
	"strings"
)

// AssertionError is returned when an expectation does not match.
type AssertionError struct {
	Field    string // Expectation field, e.g. "status" or "output"
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// Check compares a result against an expectation and returns every
// mismatch, in field order: status, error, position, output.
func Check(expect Expect, r *Result) []error {
	var errs []error

	if expect.Status != r.Status {
		errs = append(errs, &AssertionError{
			Field:    "status",
			Expected: expect.Status,
			Actual:   describeStatus(r),
		})
	}

	if expect.Error != "" && expect.Error != r.ErrorCode {
		errs = append(errs, &AssertionError{
			Field:    "error",
			Expected: expect.Error,
			Actual:   orNone(r.ErrorCode),
		})
	}

	if expect.Position != nil {
		actual := "none"
		if r.Position != nil {
			actual = strconv.Itoa(*r.Position)
		}
		if r.Position == nil || *r.Position != *expect.Position {
			errs = append(errs, &AssertionError{
				Field:    "position",
				Expected: strconv.Itoa(*expect.Position),
				Actual:   actual,
			})
		}
	}

	if expect.Output != nil && *expect.Output != r.Output {
		errs = append(errs, &AssertionError{
			Field:    "output",
			Expected: strconv.Quote(*expect.Output),
			Actual:   strconv.Quote(r.Output),
		})
	}

	return errs
}

func describeStatus(r *Result) string {
	if r.ErrorMessage == "" {
		return r.Status
	}
	return fmt.Sprintf("%s (%s)", r.Status, r.ErrorMessage)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
