package tripengine

import (
	"context"
	"time"

	"github.com/kwetu-safaris/safariops-backend/internal/models"
	"gorm.io/gorm"
)

// AdvanceWaypoint completes the current waypoint (setting its actual
// arrival time) and promotes the next upcoming waypoint, by ascending
// sequence order, to current. When no waypoint is current yet (trip start)
// the lowest-sequence upcoming waypoint is promoted directly. Advancing at
// the final waypoint completes it and leaves no current waypoint.
// Fails with InvalidStateError when nothing remains to advance.
func (e *Engine) AdvanceWaypoint(ctx context.Context, tripID, driverID uint) (*models.Waypoint, error) {
	var promoted *models.Waypoint
	err := e.withTripLock(ctx, tripID, func(tx *gorm.DB) error {
		trip, err := loadDriverTrip(tx, tripID, driverID)
		if err != nil {
			return err
		}

		var err2 error
		promoted, err2 = advance(tx, trip)
		return err2
	})
	return promoted, err
}

// advance is the sequencer core, run inside the per-trip transaction.
func advance(tx *gorm.DB, trip *models.Trip) (*models.Waypoint, error) {
	waypoints, err := loadWaypoints(tx, trip.ID)
	if err != nil {
		return nil, err
	}

	var current, next *models.Waypoint
	for i := range waypoints {
		wp := &waypoints[i]
		switch wp.Status {
		case models.WaypointStatusCurrent:
			if current == nil {
				current = wp
			}
		case models.WaypointStatusUpcoming:
			if next == nil {
				next = wp
			}
		}
	}

	if current == nil && next == nil {
		return nil, &InvalidStateError{TripID: trip.ID, Reason: "no upcoming waypoints remain"}
	}

	if current != nil {
		now := time.Now()
		current.Status = models.WaypointStatusCompleted
		current.ActualArrivalTime = &now
		if err := tx.Save(current).Error; err != nil {
			return nil, err
		}
	}

	// Arrival at the final waypoint: nothing left to promote.
	reached := current
	if next != nil {
		next.Status = models.WaypointStatusCurrent
		if err := tx.Save(next).Error; err != nil {
			return nil, err
		}
		reached = next
	}

	if err := refreshDerived(tx, trip); err != nil {
		return nil, err
	}
	return reached, nil
}

// SkipWaypoint marks a specific upcoming waypoint as skipped without
// touching the current pointer. Fails with NotFoundError when the waypoint
// does not belong to the trip or is not upcoming.
func (e *Engine) SkipWaypoint(ctx context.Context, tripID, waypointID, driverID uint) error {
	return e.withTripLock(ctx, tripID, func(tx *gorm.DB) error {
		trip, err := loadDriverTrip(tx, tripID, driverID)
		if err != nil {
			return err
		}

		result := tx.Model(&models.Waypoint{}).
			Where("id = ? AND trip_id = ? AND status = ?", waypointID, tripID, models.WaypointStatusUpcoming).
			Update("status", models.WaypointStatusSkipped)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &NotFoundError{Entity: "waypoint", ID: waypointID}
		}

		return refreshDerived(tx, trip)
	})
}

// CompleteWaypoint explicitly completes the named waypoint, used when a
// driver jumps ahead. Any other current waypoint is demoted to completed
// as well, since only one waypoint may be current.
func (e *Engine) CompleteWaypoint(ctx context.Context, tripID, waypointID, driverID uint) error {
	return e.withTripLock(ctx, tripID, func(tx *gorm.DB) error {
		trip, err := loadDriverTrip(tx, tripID, driverID)
		if err != nil {
			return err
		}

		var target models.Waypoint
		if err := tx.Where("id = ? AND trip_id = ?", waypointID, tripID).First(&target).Error; err != nil {
			return &NotFoundError{Entity: "waypoint", ID: waypointID}
		}
		if target.Status == models.WaypointStatusCompleted || target.Status == models.WaypointStatusSkipped {
			return &InvalidStateError{TripID: tripID, Reason: "waypoint already finalized"}
		}

		now := time.Now()
		if err := tx.Model(&models.Waypoint{}).
			Where("trip_id = ? AND status = ? AND id <> ?", tripID, models.WaypointStatusCurrent, waypointID).
			Updates(map[string]interface{}{
				"status":              models.WaypointStatusCompleted,
				"actual_arrival_time": now,
			}).Error; err != nil {
			return err
		}

		target.Status = models.WaypointStatusCompleted
		target.ActualArrivalTime = &now
		if err := tx.Save(&target).Error; err != nil {
			return err
		}

		return refreshDerived(tx, trip)
	})
}

// finalizeWaypoints is the terminal-state cleanup. On completion the
// current waypoint counts as reached and anything still upcoming is
// skipped; on cancellation everything unreached is skipped.
func finalizeWaypoints(tx *gorm.DB, tripID uint, reachedEnd bool) error {
	now := time.Now()
	if reachedEnd {
		if err := tx.Model(&models.Waypoint{}).
			Where("trip_id = ? AND status = ?", tripID, models.WaypointStatusCurrent).
			Updates(map[string]interface{}{
				"status":              models.WaypointStatusCompleted,
				"actual_arrival_time": now,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Waypoint{}).
			Where("trip_id = ? AND status = ?", tripID, models.WaypointStatusUpcoming).
			Update("status", models.WaypointStatusSkipped).Error
	}

	// Cancellation: nothing was reached, skip current and upcoming alike.
	return tx.Model(&models.Waypoint{}).
		Where("trip_id = ? AND status IN (?)", tripID, []models.WaypointStatus{
			models.WaypointStatusCurrent,
			models.WaypointStatusUpcoming,
		}).
		Update("status", models.WaypointStatusSkipped).Error
}
