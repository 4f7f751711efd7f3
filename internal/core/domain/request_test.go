package domain

import "testing"

func TestRequestStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to RequestStatus
		allowed  bool
	}{
		{StatusPending, StatusAssigned, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusInProgress, false},
		{StatusAssigned, StatusAssigned, true}, // reassign
		{StatusAssigned, StatusInProgress, true},
		{StatusAssigned, StatusCancelled, true},
		{StatusAssigned, StatusCompleted, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusAssigned, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCancelled, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestRequestStatus_Terminal(t *testing.T) {
	for _, s := range []RequestStatus{StatusCompleted, StatusCancelled} {
		if !s.Terminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
	for _, s := range []RequestStatus{StatusPending, StatusAssigned, StatusInProgress} {
		if s.Terminal() {
			t.Fatalf("%s must not be terminal", s)
		}
	}
}

func hasAction(actions []RequestAction, want RequestAction) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}

func TestAvailableActions_RoleGating(t *testing.T) {
	if !hasAction(AvailableActions(StatusPending, RoleAdmin), ActionAssign) {
		t.Fatalf("admin must be able to assign a pending request")
	}
	if hasAction(AvailableActions(StatusPending, RoleAgent), ActionAssign) {
		t.Fatalf("agent must not be able to assign")
	}
	if !hasAction(AvailableActions(StatusAssigned, RoleAgent), ActionStart) {
		t.Fatalf("agent must be able to start an assigned request")
	}
	if !hasAction(AvailableActions(StatusAssigned, RoleAdmin), ActionReassign) {
		t.Fatalf("admin must be able to reassign an assigned request")
	}
	if !hasAction(AvailableActions(StatusInProgress, RoleAgent), ActionComplete) {
		t.Fatalf("agent must be able to complete an in-progress request")
	}
	for _, status := range []RequestStatus{StatusCompleted, StatusCancelled} {
		for _, role := range []string{RoleUser, RoleAdmin, RoleAgent} {
			if actions := AvailableActions(status, role); len(actions) != 0 {
				t.Fatalf("%s/%s: terminal status must expose no actions, got %v", status, role, actions)
			}
		}
	}
}

func TestAvailableActions_CancelReachable(t *testing.T) {
	for _, status := range []RequestStatus{StatusPending, StatusAssigned, StatusInProgress} {
		if !hasAction(AvailableActions(status, RoleUser), ActionCancel) {
			t.Fatalf("%s: cancel must be offered", status)
		}
	}
}
