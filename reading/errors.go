package reading

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("reading not found")
	ErrAlreadyExists   = errors.New("reading already exists")
)

// AlreadyExistsError is returned when a create names an id that is already stored.
type AlreadyExistsError struct {
	ID string
}

func (err *AlreadyExistsError) Error() string {
	return fmt.Sprintf("reading %q already exists", err.ID)
}

func (err *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// InvalidArgumentError reports a caller supplied value outside its enumerated set.
type InvalidArgumentError struct {
	Argument string
	Value    string
}

func (err *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: unknown %s %q", err.Argument, err.Value)
}

func (err *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// FieldError is a single entry validation problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field problem found on a reading.
type ValidationError struct {
	Fields []FieldError
}

func (err *ValidationError) Error() string {
	parts := make([]string, len(err.Fields))
	for i, f := range err.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("invalid reading: [ %s ]", strings.Join(parts, ", "))
}

func (err *ValidationError) add(field, message string) {
	err.Fields = append(err.Fields, FieldError{Field: field, Message: message})
}
