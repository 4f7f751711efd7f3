package domain

import "time"

// RequestStatus represents the lifecycle state of a service request.
type RequestStatus string

const (
	StatusPending    RequestStatus = "PENDING"
	StatusAssigned   RequestStatus = "ASSIGNED"
	StatusInProgress RequestStatus = "IN_PROGRESS"
	StatusCompleted  RequestStatus = "COMPLETED"
	StatusCancelled  RequestStatus = "CANCELLED"
)

// validTransitions is the client-side view of the allowed state machine.
// It only gates what the UI offers; the backend is the sole authority and
// may still reject a transition the client believed was legal.
var validTransitions = map[RequestStatus][]RequestStatus{
	StatusPending:    {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusAssigned, StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether a transition from current status to next is
// allowed. ASSIGNED → ASSIGNED covers reassignment to a different agent.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist from s.
func (s RequestStatus) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// RequestAction is a user-visible operation on a service request.
type RequestAction string

const (
	ActionAssign   RequestAction = "assign"
	ActionReassign RequestAction = "reassign"
	ActionStart    RequestAction = "start"
	ActionComplete RequestAction = "complete"
	ActionCancel   RequestAction = "cancel"
)

// AvailableActions returns the actions a principal with the given role may
// take on a request in the given status. This drives button enablement only;
// the backend re-checks every transition.
func AvailableActions(status RequestStatus, role string) []RequestAction {
	var actions []RequestAction
	switch status {
	case StatusPending:
		if role == RoleAdmin {
			actions = append(actions, ActionAssign)
		}
		actions = append(actions, ActionCancel)
	case StatusAssigned:
		if role == RoleAdmin {
			actions = append(actions, ActionReassign)
		}
		if role == RoleAgent {
			actions = append(actions, ActionStart)
		}
		actions = append(actions, ActionCancel)
	case StatusInProgress:
		if role == RoleAgent {
			actions = append(actions, ActionComplete)
		}
		actions = append(actions, ActionCancel)
	}
	return actions
}

// ServiceRequest is a customer's booking as returned by the backend.
type ServiceRequest struct {
	ID             int64         `json:"id"`
	CustomerEmail  string        `json:"customer_email"`
	ServiceID      int64         `json:"service_id"`
	VehicleID      int64         `json:"vehicle_id,omitempty"`
	AgentID        int64         `json:"agent_id,omitempty"`
	Status         RequestStatus `json:"status"`
	Notes          string        `json:"notes,omitempty"`
	CancelReason   string        `json:"cancel_reason,omitempty"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
