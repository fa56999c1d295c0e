package errors

import (
	"reflect"
	"testing"
)

func TestFieldErrors(t *testing.T) {
	// Declare errors upfront so that DeepEqual can be used for comparison.
	var (
		missingArgs  = Field("args", ErrEmpty, "")
		badCodeHash  = Field("code_hash", ErrInput, "not hex")
		noCodeHash   = Field("code_hash", ErrEmpty, "")
		badHashType  = Field("hash_type", ErrInput, "unknown %q", "datum")
		lockErr      = Field("lock", Append(badCodeHash, Append(badHashType, ErrState)), "invalid lock")
		rewrappedArg = Field("args", missingArgs, "outer")
	)

	cases := map[string]struct {
		Err   error
		Field string
		Want  []error
	}{
		"single field": {
			Err:   missingArgs,
			Field: "args",
			Want:  []error{missingArgs},
		},
		"appended fields of the same name": {
			Err:   Append(badCodeHash, noCodeHash),
			Field: "code_hash",
			Want:  []error{badCodeHash, noCodeHash},
		},
		"field holding appended errors": {
			Err:   lockErr,
			Field: "lock",
			Want:  []error{lockErr},
		},
		"nested field": {
			Err:   lockErr,
			Field: "hash_type",
			Want:  []error{badHashType},
		},
		"nested field behind wraps": {
			Err:   Wrap(Wrap(lockErr, "inner"), "outer"),
			Field: "code_hash",
			Want:  []error{badCodeHash},
		},
		"outermost of repeated field": {
			Err:   rewrappedArg,
			Field: "args",
			Want:  []error{rewrappedArg},
		},
		"nil error": {
			Err:   nil,
			Field: "args",
			Want:  nil,
		},
		"not a field error": {
			Err:   ErrNotFound,
			Field: "args",
			Want:  nil,
		},
		"other field": {
			Err:   Wrap(lockErr, "spec"),
			Field: "cells",
			Want:  nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got := FieldErrors(tc.Err, tc.Field)
			if !reflect.DeepEqual(tc.Want, got) {
				t.Logf("want: %#v", tc.Want)
				t.Logf(" got: %#v", got)
				t.Fatal("unexpected result")
			}
		})
	}
}

func TestFieldMessage(t *testing.T) {
	cases := map[string]struct {
		Err  error
		Want string
	}{
		"without description": {
			Err:  Field("require_n", ErrInput, ""),
			Want: "require_n: invalid input",
		},
		"with description": {
			Err:  Field("require_n", ErrInput, "must be at most %d", 3),
			Want: "require_n: must be at most 3: invalid input",
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := tc.Err.Error(); got != tc.Want {
				t.Fatalf("want %q, got %q", tc.Want, got)
			}
			if !ErrInput.Is(tc.Err) {
				t.Fatal("cause lost")
			}
		})
	}
}

func TestFieldOfNil(t *testing.T) {
	if err := Field("lock", nil, "ignored"); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
	if err := AppendField(nil, "lock", nil); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
}

func TestPath(t *testing.T) {
	cases := map[string]struct {
		Parts []interface{}
		Want  string
	}{
		"single":       {Parts: []interface{}{"lock"}, Want: "lock"},
		"list element": {Parts: []interface{}{"cells", 2, "location"}, Want: "cells.2.location"},
		"other types":  {Parts: []interface{}{"index", uint32(7)}, Want: "index.7"},
		"empty":        {Parts: nil, Want: ""},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := Path(tc.Parts...); got != tc.Want {
				t.Fatalf("want %q, got %q", tc.Want, got)
			}
		})
	}
}
