package tripengine

import (
	"fmt"

	"github.com/kwetu-safaris/safariops-backend/internal/models"
)

// InvalidTransitionError means the requested lifecycle change is not
// reachable from the trip's current status. Never auto-retried.
type InvalidTransitionError struct {
	TripID uint
	From   models.TripStatus
	To     models.TripStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("trip %d: invalid transition %s -> %s", e.TripID, e.From, e.To)
}

// InvalidStateError means a structural precondition is violated, e.g.
// advancing waypoints when none are left.
type InvalidStateError struct {
	TripID uint
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("trip %d: %s", e.TripID, e.Reason)
}

// NotFoundError means the referenced trip/waypoint/checklist does not
// exist, or is not in a state where the operation applies.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// AuthorizationError means the acting driver does not own the trip.
type AuthorizationError struct {
	TripID   uint
	DriverID uint
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("driver %d is not assigned to trip %d", e.DriverID, e.TripID)
}

// GateBlockedError carries the required checklist fields that were missing
// or false. The caller should re-prompt, not treat this as a hard failure.
type GateBlockedError struct {
	ChecklistType models.ChecklistType
	MissingFields []string
}

func (e *GateBlockedError) Error() string {
	return fmt.Sprintf("%s checklist blocked: missing %v", e.ChecklistType, e.MissingFields)
}
