package interview

import "errors"

// ErrEmptyInput matches rejected blank roles and answers.
var ErrEmptyInput = errors.New("empty input")

type inputError struct{ msg string }

func (e inputError) Error() string        { return e.msg }
func (e inputError) Is(target error) bool { return target == ErrEmptyInput }

var (
	errNoRole   = inputError{"Please select a role first."}
	errNoAnswer = inputError{"Please provide an answer before submitting."}
)
