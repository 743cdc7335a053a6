package framework

import (
	"fmt"
	"strings"
)

// LabeledError tags an error with the part it came from, like a sink
// or a topic.
type LabeledError struct {
	Label string
	Err   error
}

func (e *LabeledError) Error() string {
	return e.Label + ": " + e.Err.Error()
}

// Unwrap returns the tagged error.
func (e *LabeledError) Unwrap() error {
	return e.Err
}

// ErrorList collects failures of independent parts so one failing part
// doesn't hide the others. errors.Is and errors.As look into every entry.
type ErrorList struct {
	Errors []error
}

// Error implements error.
func (l *ErrorList) Error() string {
	switch len(l.Errors) {
	case 0:
		return ""
	case 1:
		return l.Errors[0].Error()
	}
	msg := make([]string, len(l.Errors))
	for n, err := range l.Errors {
		msg[n] = err.Error()
	}
	return fmt.Sprintf("%d failures: %s", len(l.Errors), strings.Join(msg, "; "))
}

// Unwrap exposes the entries to errors.Is and errors.As.
func (l *ErrorList) Unwrap() []error {
	return l.Errors
}

// Add appends errs, nil is skipped.
func (l *ErrorList) Add(errs ...error) *ErrorList {
	for _, err := range errs {
		if err != nil {
			l.Errors = append(l.Errors, err)
		}
	}
	return l
}

// AddLabeled appends err tagged with label unless err is nil.
func (l *ErrorList) AddLabeled(label string, err error) *ErrorList {
	if err != nil {
		l.Errors = append(l.Errors, &LabeledError{Label: label, Err: err})
	}
	return l
}

// Err returns the list as an error, or nil when nothing failed.
func (l *ErrorList) Err() error {
	if len(l.Errors) == 0 {
		return nil
	}
	return l
}
