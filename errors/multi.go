package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored. If no
// error is provided, nil is returned. Multi errors are flattened so that the
// result is never a tree of multi errors.
func Append(errs ...error) error {
	var res multiErr
	for _, e := range errs {
		if isNilErr(e) {
			continue
		}
		if m, ok := e.(multiErr); ok {
			res = append(res, m...)
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
		return res
	}
}

// multiErr represents a set of errors that were collected together, for
// example when validating a document with many invalid attributes.
type multiErr []error

func (m multiErr) Error() string {
	points := make([]string, len(m))
	for i, err := range m {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s\n", len(m), strings.Join(points, "\n\t"))
}

// Unpack implements the unpacker interface.
func (m multiErr) Unpack() []error {
	return []error(m)
}
