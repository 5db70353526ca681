package main

import "fmt"

// Exit codes for the buildsignal CLI.
const (
	ExitOK           = 0 // Command succeeded.
	ExitInvalidArgs  = 1 // Invalid arguments, unknown project or bad config.
	ExitNoticesFound = 2 // A --fail-on gate matched.
	ExitFailure      = 3 // Discovery or log parsing failed.
)

type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode returns the exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

// exitError creates an exitCodeError. If msg is empty, the error message is
// set to a generic description of the exit code.
func exitError(code int, format string, args ...any) *exitCodeError {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		switch code {
		case ExitNoticesFound:
			msg = "buildsignal: notices matched the failure threshold"
		case ExitFailure:
			msg = "buildsignal: build log could not be read"
		default:
			msg = "buildsignal: error"
		}
	}
	return &exitCodeError{code: code, msg: msg}
}
