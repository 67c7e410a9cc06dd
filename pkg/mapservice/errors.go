package mapservice

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter marks numeric or shape input the server would reject.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrAmbiguousLocation is returned when a render request has both or
	// neither of bounds and center.
	ErrAmbiguousLocation = errors.New("exactly one of bounds or center is required")
)

// ParamError describes which parameter of which operation failed validation.
type ParamError struct {
	Op    string
	Param string
	Err   error
}

func (e *ParamError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Param, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }

func invalid(op, param string) error {
	return &ParamError{Op: op, Param: param, Err: ErrInvalidParameter}
}

// StatusError is returned by [Client.Do] for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.URL, e.Status)
}
