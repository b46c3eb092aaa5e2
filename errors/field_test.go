package errors

import (
	"reflect"
	"testing"
)

func TestFieldErrors(t *testing.T) {
	// Declare errors upfront so that DeepEqual can be used for comparison.
	var (
		unauthorizedNameErr = Field("Name", ErrUnauthorized, "a")
		humanNameErr        = Field("Name", ErrHuman, "b")
		emptyOwnerErr       = Field("Owner", ErrEmpty, "owner is required")
		configMultiErr      = Field("Config", Append(
			humanNameErr,
			Append(emptyOwnerErr, ErrState),
		), "configuration invalid")
	)

	cases := map[string]struct {
		Err   error
		Field string
		Want  []error
	}{
		"a single error found by the name": {
			Err:   unauthorizedNameErr,
			Field: "Name",
			Want:  []error{unauthorizedNameErr},
		},
		"two error found by the name": {
			Err:   Append(unauthorizedNameErr, humanNameErr),
			Field: "Name",
			Want:  []error{unauthorizedNameErr, humanNameErr},
		},
		"field can contain a multierror": {
			Err:   configMultiErr,
			Field: "Config",
			Want:  []error{configMultiErr},
		},
		"field can inspect errors tree to find match": {
			Err:   configMultiErr,
			Field: "Owner",
			Want:  []error{emptyOwnerErr},
		},
		"nil error returns nothing": {
			Err:   nil,
			Field: "Name",
			Want:  nil,
		},
		"no match": {
			Err:   Append(unauthorizedNameErr, ErrEmpty),
			Field: "Amount",
			Want:  nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got := FieldErrors(tc.Err, tc.Field)
			if !reflect.DeepEqual(tc.Want, got) {
				t.Fatalf("unexpected result: %v", got)
			}
		})
	}
}

func TestAppend(t *testing.T) {
	if Append() != nil {
		t.Fatal("no errors must produce nil")
	}
	if Append(nil, nil) != nil {
		t.Fatal("only nil errors must produce nil")
	}
	if err := Append(nil, ErrEmpty); err != ErrEmpty {
		t.Fatalf("single error must be returned as is, got %v", err)
	}
	if AppendField(nil, "Amount", nil) != nil {
		t.Fatal("nil field error must be ignored")
	}
	err := AppendField(ErrEmpty, "Amount", ErrInvalidAmount)
	if !ErrInvalidAmount.Is(err) || !ErrEmpty.Is(err) {
		t.Fatalf("both errors must be found: %v", err)
	}
}
