package order

import (
	"testing"

	"github.com/comanda-live/api/internal/enum"
)

func TestIsValidStatus(t *testing.T) {
	for _, s := range Statuses() {
		if !IsValidStatus(s) {
			t.Errorf("%q not recognized as valid", s)
		}
	}
	for _, s := range []string{"", "PENDING", "shipped", "done"} {
		if IsValidStatus(s) {
			t.Errorf("%q recognized as valid", s)
		}
	}
}

func TestCanTransition(t *testing.T) {
	// Any pair of distinct statuses is allowed, including backward.
	for _, from := range Statuses() {
		for _, to := range Statuses() {
			got := CanTransition(from, to)
			want := from != to
			if got != want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransitionRejectsUnknownTarget(t *testing.T) {
	if CanTransition(enum.StatusPending, "shipped") {
		t.Error("unknown target status accepted")
	}
}
