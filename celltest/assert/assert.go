// Package assert provides the small set of test assertions used across
// cellkit tests. Every helper stops the test on failure.
package assert

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/iov-one/cellkit/errors"
)

// Tester is the part of testing.TB the helpers depend on.
type Tester interface {
	Helper()
	Fatal(...interface{})
	Fatalf(string, ...interface{})
}

// Nil fails the test if given value is not nil. Typed nil pointers, maps,
// slices and the like are nil too.
func Nil(t Tester, value interface{}) {
	t.Helper()
	if !isNil(value) {
		// %+v prints the stack trace of errors that carry one.
		t.Fatalf("want a nil value, got %+v", value)
	}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}

// Equal fails the test if two values are not deeply equal.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("values not equal\nwant %T %v\n got %T %v", want, want, got, got)
	}
}

// HexEqual fails the test if two byte slices are not equal. Both values are
// printed using hex encoding, which suits serialized ledger structures.
func HexEqual(t Tester, want, got []byte) {
	t.Helper()
	if !bytes.Equal(want, got) {
		t.Fatalf("bytes not equal\nwant %x\n got %x", want, got)
	}
}

// Panics fails the test unless fn panics.
func Panics(t Tester, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("panic expected")
		}
	}()
	fn()
}

// FieldError ensures that err carries exactly one error for the named
// document field and that it is of the wanted kind. A nil want asserts that
// the field has no error.
func FieldError(t testing.TB, err error, field string, want *errors.Error) {
	t.Helper()
	errs := errors.FieldErrors(err, field)
	if want == nil {
		if len(errs) != 0 {
			logErrors(t, errs)
			t.Fatalf("want no error for %q, got %d", field, len(errs))
		}
		return
	}
	switch len(errs) {
	case 0:
		t.Fatalf("no error for %q in %+v", field, err)
	case 1:
		if !want.Is(errs[0]) {
			t.Fatalf("field %q: want %q, got %q", field, want, errs[0])
		}
	default:
		logErrors(t, errs)
		t.Fatalf("want one error for %q, got %d", field, len(errs))
	}
}

func logErrors(t testing.TB, errs []error) {
	t.Helper()
	for i, e := range errs {
		t.Logf("\terror %d: %q", i+1, e)
	}
}

// IsErr fails the test unless got is want or is of the kind of want.
func IsErr(t testing.TB, want, got error) {
	t.Helper()
	if want == got {
		return
	}
	if w, ok := want.(interface{ Is(error) bool }); ok && w.Is(got) {
		return
	}
	t.Fatalf("want %q, got %+v", want, got)
}
