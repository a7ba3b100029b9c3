package models

import (
	"time"

	"gorm.io/gorm"
)

// TripStatus is the top-level lifecycle state of a trip.
type TripStatus string

const (
	TripStatusScheduled  TripStatus = "scheduled"
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusDelayed    TripStatus = "delayed"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"
)

// tripTransitions is the single source of truth for which lifecycle
// transitions are legal. Every status change in the engine goes through
// CanTransition; no handler switches on status strings directly.
var tripTransitions = map[TripStatus][]TripStatus{
	TripStatusScheduled:  {TripStatusInProgress, TripStatusCancelled},
	TripStatusInProgress: {TripStatusDelayed, TripStatusCompleted, TripStatusCancelled},
	TripStatusDelayed:    {TripStatusInProgress, TripStatusCompleted, TripStatusCancelled},
	TripStatusCompleted:  {},
	TripStatusCancelled:  {},
}

// CanTransition reports whether moving from s to target is a legal
// lifecycle transition.
func (s TripStatus) CanTransition(target TripStatus) bool {
	for _, next := range tripTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the trip can never change status again.
func (s TripStatus) IsTerminal() bool {
	return s == TripStatusCompleted || s == TripStatusCancelled
}

// StatusUpdateType is a driver-reported sub-state. It is recorded as an
// audit event and, except for "completed", does not change TripStatus.
type StatusUpdateType string

const (
	StatusUpdateInTransit StatusUpdateType = "in-transit"
	StatusUpdateArrived   StatusUpdateType = "arrived"
	StatusUpdateGameDrive StatusUpdateType = "game-drive"
	StatusUpdateRestStop  StatusUpdateType = "rest-stop"
	StatusUpdateFuelStop  StatusUpdateType = "fuel-stop"
	StatusUpdateIssue     StatusUpdateType = "issue"
	StatusUpdateCompleted StatusUpdateType = "completed"
)

// ValidStatusUpdateType reports whether t is one of the driver-reportable
// sub-states.
func ValidStatusUpdateType(t StatusUpdateType) bool {
	switch t {
	case StatusUpdateInTransit, StatusUpdateArrived, StatusUpdateGameDrive,
		StatusUpdateRestStop, StatusUpdateFuelStop, StatusUpdateIssue,
		StatusUpdateCompleted:
		return true
	}
	return false
}

// Trip is one driver/vehicle-assigned execution of a booked safari
// itinerary. It owns its waypoints, status updates, communications and
// checklists; it is never deleted, only terminated into completed or
// cancelled.
type Trip struct {
	gorm.Model
	Status          TripStatus `json:"status" gorm:"not null;default:'scheduled'"`
	Progress        int        `json:"progress" gorm:"not null;default:0"` // derived, 0-100
	CurrentLocation *string    `json:"currentLocation,omitempty"`
	NextStop        *string    `json:"nextStop,omitempty"`
	StartDate       time.Time  `json:"startDate" gorm:"not null"`
	EndDate         time.Time  `json:"endDate" gorm:"not null"`
	GuestCount      int        `json:"guestCount" gorm:"not null;default:1"`
	DriverID        *uint      `json:"driverId,omitempty"`
	VehicleID       *uint      `json:"vehicleId,omitempty"`

	Driver        *User          `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	Vehicle       *Vehicle       `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
	Waypoints     []Waypoint     `json:"waypoints,omitempty" gorm:"foreignKey:TripID"`
	StatusUpdates []StatusUpdate `json:"statusUpdates,omitempty" gorm:"foreignKey:TripID"`
	Checklists    []Checklist    `json:"checklists,omitempty" gorm:"foreignKey:TripID"`
}

// TableName specifies the table name
func (Trip) TableName() string {
	return "trips"
}
