package handler

import (
	"errors"

	"github.com/glizzus/action-timer/internal/deadline"
	"github.com/glizzus/action-timer/internal/service"
)

// UserError is an error type that is used to represent
// an error that should be displayed to the user.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

var _ error = (*UserError)(nil)

// asUserError returns the message to show the user when err is caused by
// their input.
func asUserError(err error) (string, bool) {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Message, true
	}
	var parseErr *deadline.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Error(), true
	}
	var invalid *service.InvalidRequestError
	if errors.As(err, &invalid) {
		return invalid.Error(), true
	}
	return "", false
}
