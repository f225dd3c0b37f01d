package order

import "github.com/comanda-live/api/internal/enum"

// Statuses returns the closed, ordered set of order statuses.
func Statuses() []string {
	return []string{
		enum.StatusPending,
		enum.StatusPreparing,
		enum.StatusReady,
		enum.StatusDelivered,
		enum.StatusCanceled,
	}
}

// IsValidStatus reports whether s is a member of the status set.
func IsValidStatus(s string) bool {
	switch s {
	case enum.StatusPending, enum.StatusPreparing, enum.StatusReady,
		enum.StatusDelivered, enum.StatusCanceled:
		return true
	}
	return false
}

// CanTransition reports whether a user-requested status change is
// accepted. The rule is deliberately permissive: any status may move to
// any other member of the set, including backward, so an operator can
// undo a premature "ready". Same-status requests are rejected so no-op
// writes are never issued. All call sites go through here; tighten this
// one function if forward-only ordering is ever enforced.
func CanTransition(current, requested string) bool {
	if !IsValidStatus(requested) {
		return false
	}
	return requested != current
}
