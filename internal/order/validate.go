package order

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by Validate, in rule order.
var (
	ErrEmptyTable      = errors.New("table number is required")
	ErrNoLineItems     = errors.New("at least one line item is required")
	ErrInvalidLineItem = errors.New("line item needs a menu item and a positive quantity")
	ErrUnauthenticated = errors.New("not authenticated")
)

// Validate checks a draft before assembly. Fail-fast: only the first
// violated rule is returned, matching the single-error submission flow.
// Line-item violations are wrapped with the first offending index.
func Validate(d Draft, authenticated bool) error {
	if strings.TrimSpace(d.TableNumber) == "" {
		return ErrEmptyTable
	}
	if len(d.Lines) == 0 {
		return ErrNoLineItems
	}
	for i, line := range d.Lines {
		if line.MenuItemID == "" || line.Quantity < 1 {
			return fmt.Errorf("items[%d]: %w", i, ErrInvalidLineItem)
		}
	}
	if !authenticated {
		return ErrUnauthenticated
	}
	return nil
}

// IsValidationError reports whether err belongs to the draft validation
// taxonomy. Used at the handler boundary to map errors to 400s.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyTable) ||
		errors.Is(err, ErrNoLineItems) ||
		errors.Is(err, ErrInvalidLineItem) ||
		errors.Is(err, ErrUnauthenticated)
}
