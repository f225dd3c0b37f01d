package order

import (
	"errors"
	"strings"
	"testing"
)

func validDraft() Draft {
	return Draft{
		TableNumber: "5",
		Lines: []DraftLine{
			{MenuItemID: "p1", Quantity: 2},
			{MenuItemID: "b1", Quantity: 1},
		},
	}
}

func TestValidateOK(t *testing.T) {
	if err := Validate(validDraft(), true); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateEmptyTable(t *testing.T) {
	for _, table := range []string{"", "   ", "\t"} {
		d := validDraft()
		d.TableNumber = table
		if err := Validate(d, true); !errors.Is(err, ErrEmptyTable) {
			t.Errorf("table %q: got %v, want ErrEmptyTable", table, err)
		}
	}
}

func TestValidateNoLines(t *testing.T) {
	d := validDraft()
	d.Lines = nil
	if err := Validate(d, true); !errors.Is(err, ErrNoLineItems) {
		t.Errorf("got %v, want ErrNoLineItems", err)
	}
}

func TestValidateBadLine(t *testing.T) {
	cases := []struct {
		name string
		line DraftLine
	}{
		{"zero quantity", DraftLine{MenuItemID: "p1", Quantity: 0}},
		{"negative quantity", DraftLine{MenuItemID: "p1", Quantity: -1}},
		{"missing id", DraftLine{Quantity: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			d.Lines = append(d.Lines, tc.line)
			err := Validate(d, true)
			if !errors.Is(err, ErrInvalidLineItem) {
				t.Fatalf("got %v, want ErrInvalidLineItem", err)
			}
			if !strings.Contains(err.Error(), "items[2]") {
				t.Errorf("error %q does not name the offending index", err)
			}
		})
	}
}

func TestValidateFailFastOrder(t *testing.T) {
	// Empty table wins over empty lines; empty lines win over auth.
	d := Draft{}
	if err := Validate(d, false); !errors.Is(err, ErrEmptyTable) {
		t.Errorf("got %v, want ErrEmptyTable first", err)
	}
	d.TableNumber = "5"
	if err := Validate(d, false); !errors.Is(err, ErrNoLineItems) {
		t.Errorf("got %v, want ErrNoLineItems second", err)
	}
}

func TestValidateUnauthenticated(t *testing.T) {
	if err := Validate(validDraft(), false); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("got %v, want ErrUnauthenticated", err)
	}
}

func TestIsValidationError(t *testing.T) {
	if !IsValidationError(ErrEmptyTable) || !IsValidationError(ErrUnauthenticated) {
		t.Error("validation sentinels not recognized")
	}
	if IsValidationError(errors.New("boom")) {
		t.Error("arbitrary error recognized as validation error")
	}
}
