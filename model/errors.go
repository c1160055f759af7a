package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSessionDoesNotExist  = errors.New("session does not exist")
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrNothingToRetry       = errors.New("no failed submission to retry")
	ErrNoNextStep           = errors.New("current step is terminal, submit instead")
	ErrNoPreviousStep       = errors.New("already at the first step")
	ErrUnknownField         = errors.New("unknown form field")
	ErrUnknownActivity      = errors.New("unknown activity")
)

// ValidationError is returned when required fields are missing at a gate.
type ValidationError struct {
	Missing []Field
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, f := range e.Missing {
		names = append(names, string(f))
	}
	return fmt.Sprintf("missing required fields: %s", strings.Join(names, ", "))
}

// Has reports whether field is among the missing ones.
func (e *ValidationError) Has(field Field) bool {
	for _, f := range e.Missing {
		if f == field {
			return true
		}
	}
	return false
}

// NetworkError means the request to the endpoint could not complete.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError carries a non-2xx status returned by the endpoint.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status %d", e.StatusCode)
}

// ApplicationError means the endpoint answered 2xx but did not accept the
// registration. Message is the server-provided reason, possibly empty.
type ApplicationError struct {
	Message string
	Err     error
}

func (e *ApplicationError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("registration rejected: %s", e.Message)
	case e.Err != nil:
		return fmt.Sprintf("registration rejected: %v", e.Err)
	}
	return "registration rejected"
}

func (e *ApplicationError) Unwrap() error { return e.Err }
