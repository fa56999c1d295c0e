package errors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Field wraps err with the name of the document field it was found in. It
// returns nil if err is nil. The description is optional and formatted with
// args.
//
// Field names follow the keys of the TOML and JSON documents, for example
// "lock" or "require_n". Nested fields and list elements are joined with a
// dot, for example "cells.2.location" (see Path).
func Field(name string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	// Attach the stack only once, at the innermost wrap.
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &fieldError{parent: err, field: name, desc: description}
}

// AppendField adds the field error, if any, to the errors collected so far.
func AppendField(errs error, name string, err error) error {
	return Append(errs, Field(name, err, ""))
}

// Path joins field names and list indexes into a dotted field path.
func Path(parts ...interface{}) string {
	chunks := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p := p.(type) {
		case int:
			chunks = append(chunks, strconv.Itoa(p))
		case string:
			chunks = append(chunks, p)
		default:
			chunks = append(chunks, fmt.Sprint(p))
		}
	}
	return strings.Join(chunks, ".")
}

type fieldError struct {
	parent error
	field  string
	desc   string
}

func (e *fieldError) Error() string {
	if e.desc == "" {
		return fmt.Sprintf("%s: %s", e.field, e.parent)
	}
	return fmt.Sprintf("%s: %s: %s", e.field, e.desc, e.parent)
}

func (e *fieldError) Cause() error  { return e.parent }
func (e *fieldError) Unwrap() error { return e.parent }
func (e *fieldError) Field() string { return e.field }

// FieldErrors returns all errors created for given field name, searching
// through wrapped and appended errors.
func FieldErrors(err error, name string) []error {
	var found []error
	for !isNilErr(err) {
		if f, ok := err.(interface{ Field() string }); ok && f.Field() == name {
			return append(found, err)
		}
		if u, ok := err.(unpacker); ok {
			// Unpack returns every child, so the cause is covered.
			for _, e := range u.Unpack() {
				found = append(found, FieldErrors(e, name)...)
			}
			return found
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return found
}
