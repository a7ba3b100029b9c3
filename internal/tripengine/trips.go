package tripengine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kwetu-safaris/safariops-backend/internal/models"
	"github.com/kwetu-safaris/safariops-backend/pkg/utils"
	"gorm.io/gorm"
)

// WaypointInput describes one stop supplied at trip creation.
type WaypointInput struct {
	SequenceOrder        int        `json:"sequenceOrder" binding:"required"`
	Name                 string     `json:"name" binding:"required"`
	ScheduledTime        *time.Time `json:"scheduledTime,omitempty"`
	DistanceFromPrevious *string    `json:"distanceFromPrevious,omitempty"`
	Latitude             *float64   `json:"lat,omitempty"`
	Longitude            *float64   `json:"lng,omitempty"`
	Notes                string     `json:"notes,omitempty"`
}

// TripInput is the Booking/Assignment supply side of a trip: dates, guest
// count and the ordered route.
type TripInput struct {
	StartDate  time.Time       `json:"startDate" binding:"required"`
	EndDate    time.Time       `json:"endDate" binding:"required"`
	GuestCount int             `json:"guestCount" binding:"required,min=1"`
	Waypoints  []WaypointInput `json:"waypoints" binding:"required,min=1,dive"`
}

// CreateTrip creates a scheduled trip with its ordered waypoints.
// Sequence orders must be unique and contiguous from 1; ties are rejected
// here so the sequencer can rely on the invariant. When a waypoint has
// coordinates but no distance string, the distance from the previous stop
// is derived with the haversine formula.
func (e *Engine) CreateTrip(ctx context.Context, input TripInput) (*models.Trip, error) {
	if err := validateSequence(input.Waypoints); err != nil {
		return nil, err
	}
	sort.Slice(input.Waypoints, func(i, j int) bool {
		return input.Waypoints[i].SequenceOrder < input.Waypoints[j].SequenceOrder
	})

	trip := models.Trip{
		Status:     models.TripStatusScheduled,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		GuestCount: input.GuestCount,
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&trip).Error; err != nil {
			return err
		}

		var prev *WaypointInput
		for i := range input.Waypoints {
			in := &input.Waypoints[i]
			wp := models.Waypoint{
				TripID:               trip.ID,
				SequenceOrder:        in.SequenceOrder,
				Name:                 in.Name,
				Status:               models.WaypointStatusUpcoming,
				ScheduledTime:        in.ScheduledTime,
				DistanceFromPrevious: in.DistanceFromPrevious,
				Latitude:             in.Latitude,
				Longitude:            in.Longitude,
				Notes:                in.Notes,
			}

			if wp.DistanceFromPrevious == nil && prev != nil &&
				in.Latitude != nil && in.Longitude != nil &&
				prev.Latitude != nil && prev.Longitude != nil {
				km := utils.HaversineDistance(*prev.Latitude, *prev.Longitude, *in.Latitude, *in.Longitude)
				distance := fmt.Sprintf("%.0f km", km)
				wp.DistanceFromPrevious = &distance
			}

			if err := tx.Create(&wp).Error; err != nil {
				return err
			}
			prev = in
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &trip, nil
}

func validateSequence(waypoints []WaypointInput) error {
	seen := make(map[int]bool, len(waypoints))
	for _, wp := range waypoints {
		if wp.SequenceOrder < 1 || wp.SequenceOrder > len(waypoints) {
			return &InvalidStateError{Reason: fmt.Sprintf("sequence order %d outside 1..%d", wp.SequenceOrder, len(waypoints))}
		}
		if seen[wp.SequenceOrder] {
			return &InvalidStateError{Reason: fmt.Sprintf("duplicate sequence order %d", wp.SequenceOrder)}
		}
		seen[wp.SequenceOrder] = true
	}
	return nil
}
