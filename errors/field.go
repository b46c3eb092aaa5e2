package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Field returns an error instance that wraps the original error with
// additional information. It returns `nil` if provided error is `nil`.
// Use this function to create an error instance describing a field/attribute
// error.
//
// Use Go naming for the field name. For example, Depositor or ExpiresAt.
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}

	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}

	return &fieldError{
		parent: err,
		field:  fieldName,
		desc:   description,
	}
}

// AppendField is a shortcut function to club together error(s) with a given
// field error.
func AppendField(errorsOrNil error, fieldName string, fieldErrOrNil error) error {
	return Append(errorsOrNil, Field(fieldName, fieldErrOrNil, ""))
}

type fieldError struct {
	parent error
	field  string
	desc   string
}

func (err *fieldError) Error() string {
	if err.desc == "" {
		return fmt.Sprintf("field %q: %s", err.field, err.parent)
	}
	return fmt.Sprintf("field %q: %s: %s", err.field, err.desc, err.parent)
}

// Cause implements the causer interface.
func (err *fieldError) Cause() error {
	return err.parent
}

// Field implements fielder interface.
func (err *fieldError) Field() string {
	return err.field
}

type fielder interface {
	Field() string
}

// FieldErrors returns the list of all errors that are created for the given
// field name. Multi errors are inspected recursively.
func FieldErrors(err error, fieldName string) []error {
	if err == nil {
		return nil
	}
	var res []error
	for {
		if m, ok := err.(*multiErr); ok {
			for _, e := range m.errs {
				res = append(res, FieldErrors(e, fieldName)...)
			}
			return res
		}
		if f, ok := err.(fielder); ok && f.Field() == fieldName {
			return append(res, err)
		}
		c, ok := err.(causer)
		if !ok {
			return res
		}
		err = c.Cause()
	}
}

// Append clubs together all provided errors. Nil values are ignored.
//
// If no errors or only nil errors were given, nil is returned. A single
// non-nil error is returned as it is.
func Append(errs ...error) error {
	var res []error
	for _, e := range errs {
		if e == nil {
			continue
		}
		if m, ok := e.(*multiErr); ok {
			res = append(res, m.errs...)
		} else {
			res = append(res, e)
		}
	}
	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return &multiErr{errs: res}
	}
}

// multiErr represents a set of errors. It is returned by the Append function
// only if more than one non-nil error was given.
type multiErr struct {
	errs []error
}

func (m *multiErr) Error() string {
	descs := make([]string, len(m.errs))
	for i, e := range m.errs {
		descs[i] = "* " + e.Error()
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s\n", len(m.errs), strings.Join(descs, "\n\t"))
}

// Code returns the code of the first error, in the fail fast manner.
func (m *multiErr) Code() uint32 {
	return code(m.errs[0])
}
