package models

import (
	"time"

	"gorm.io/gorm"
)

// WaypointStatus is the progression state of a single stop. Waypoints only
// move forward: upcoming -> current -> completed, or upcoming/current ->
// skipped. They never regress.
type WaypointStatus string

const (
	WaypointStatusUpcoming  WaypointStatus = "upcoming"
	WaypointStatusCurrent   WaypointStatus = "current"
	WaypointStatusCompleted WaypointStatus = "completed"
	WaypointStatusSkipped   WaypointStatus = "skipped"
)

// Waypoint is one ordered stop within a trip's route. SequenceOrder values
// are unique and contiguous from 1 within a trip, enforced at creation.
type Waypoint struct {
	gorm.Model
	TripID               uint           `json:"tripId" gorm:"not null;uniqueIndex:idx_trip_seq,priority:1"`
	SequenceOrder        int            `json:"sequenceOrder" gorm:"not null;uniqueIndex:idx_trip_seq,priority:2"`
	Name                 string         `json:"name" gorm:"not null"`
	Status               WaypointStatus `json:"status" gorm:"not null;default:'upcoming'"`
	ScheduledTime        *time.Time     `json:"scheduledTime,omitempty"`
	ActualArrivalTime    *time.Time     `json:"actualArrivalTime,omitempty"` // set only on completion
	DistanceFromPrevious *string        `json:"distanceFromPrevious,omitempty"` // "12 km" style
	Latitude             *float64       `json:"lat,omitempty"`
	Longitude            *float64       `json:"lng,omitempty"`
	Notes                string         `json:"notes,omitempty"`
}

// TableName specifies the table name
func (Waypoint) TableName() string {
	return "waypoints"
}
