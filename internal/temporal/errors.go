package temporal

import (
	"errors"
	"fmt"
)

// Reason classifies why a temporal string could not be accepted.
type Reason string

const (
	ReasonEmpty        Reason = "empty"
	ReasonUnrecognized Reason = "unrecognized"

	ReasonYearOutOfRange   Reason = "year_out_of_range"
	ReasonMonthOutOfRange  Reason = "month_out_of_range"
	ReasonDayOutOfRange    Reason = "day_out_of_range"
	ReasonHourOutOfRange   Reason = "hour_out_of_range"
	ReasonMinuteOutOfRange Reason = "minute_out_of_range"
	ReasonSecondOutOfRange Reason = "second_out_of_range"
	ReasonTooFarFromNow    Reason = "too_far_from_now"
)

// Error is returned by the resolver and validator. Code is stable and
// intended for callers to branch on; Input is the offending string.
type Error struct {
	Code  Reason
	Input string
}

func (e *Error) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("temporal: %s", e.Code)
	}
	return fmt.Sprintf("temporal: %s: %q", e.Code, e.Input)
}

func newError(code Reason, input string) *Error {
	return &Error{Code: code, Input: input}
}

// ReasonOf extracts the reason code from err, or "" when err is not a
// temporal error.
func ReasonOf(err error) Reason {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
