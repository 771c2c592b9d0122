// Package schedule computes future occurrences of recurring transactions.
//
// Each frequency has its own stepper registered in a strategy map, so new
// frequency types can be added without touching the projection loop.
package schedule

import (
	"errors"
	"time"

	"moneta/internal/core"
)

// ErrUnknownFrequency is returned for a frequency with no registered
// stepper. Callers treat this as non-fatal and render "N/A".
var ErrUnknownFrequency = errors.New("unknown frequency")

// Stepper advances a date by one frequency interval.
type Stepper interface {
	Step(t time.Time) time.Time
}

// StepFunc adapts a plain function to the Stepper interface.
type StepFunc func(t time.Time) time.Time

func (f StepFunc) Step(t time.Time) time.Time { return f(t) }

// steppers maps frequencies to their interval steppers.
//
// Monthly and yearly steps use time.AddDate, which normalizes overflow:
// Jan 31 + 1 month is Mar 3 (Mar 2 in leap years). That rule is applied
// consistently for every projection.
var steppers = map[core.Frequency]Stepper{
	core.Daily:   StepFunc(func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }),
	core.Weekly:  StepFunc(func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }),
	core.Monthly: StepFunc(func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }),
	core.Yearly:  StepFunc(func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }),
}

// RegisterStepper registers a custom stepper for a frequency.
func RegisterStepper(freq core.Frequency, s Stepper) {
	steppers[freq] = s
}

// NextOccurrence returns the next occurrence of a recurring event on or
// after now.
//
// A start strictly in the future is its own next occurrence. Otherwise
// the start is advanced one whole interval at a time until the result is
// strictly after now, so the returned date is always reachable from
// start by a whole number of steps. Pure and deterministic given its
// three inputs.
func NextOccurrence(start time.Time, freq core.Frequency, now time.Time) (time.Time, error) {
	stepper, ok := steppers[freq]
	if !ok {
		return time.Time{}, ErrUnknownFrequency
	}

	if start.After(now) {
		return start, nil
	}

	next := start
	for !next.After(now) {
		next = stepper.Step(next)
	}
	return next, nil
}

// NextForRule projects the rule's next occurrence, honoring its optional
// end date: a projection past the end date means the rule has lapsed.
func NextForRule(rule core.RecurrenceRule, now time.Time) (time.Time, bool, error) {
	next, err := NextOccurrence(rule.StartDate.Time, rule.Frequency, now)
	if err != nil {
		return time.Time{}, false, err
	}
	if !rule.EndDate.IsZero() && next.After(rule.EndDate.Time) {
		return time.Time{}, false, nil
	}
	return next, true, nil
}
