package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrNotJSON  = errors.New("Not a JSON")
)

// MissingFieldError reports a required field absent from a create request.
type MissingFieldError struct{ Field string }

func (e *MissingFieldError) Error() string { return "Missing " + e.Field }

// InvalidError reports a request value that cannot be applied.
type InvalidError struct{ Msg string }

func (e *InvalidError) Error() string { return e.Msg }
