// Package tripengine implements the driver trip lifecycle and waypoint
// progression engine: checklist-gated status transitions, forward-only
// waypoint sequencing, the append-only status/communication audit log and
// the derived progress aggregates.
//
// The engine is a library-level state machine over the trip aggregate
// (trip + waypoints + checklists). HTTP handlers are thin wrappers around
// it. All state-mutating operations are serialized per trip id via a
// Redis lock so two concurrent advances cannot double-promote a waypoint.
package tripengine

import (
	"context"
	"errors"

	"github.com/kwetu-safaris/safariops-backend/internal/models"
	"github.com/kwetu-safaris/safariops-backend/internal/services"
	"gorm.io/gorm"
)

// Engine executes trip operations against the backing store.
type Engine struct {
	db *gorm.DB
}

// New creates an Engine on the given database handle.
func New(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// withTripLock serializes fn against all other state-mutating operations
// on the same trip. Cross-trip operations run fully independently.
func (e *Engine) withTripLock(ctx context.Context, tripID uint, fn func(tx *gorm.DB) error) error {
	unlock, err := services.AcquireTripLock(ctx, tripID)
	if err != nil {
		return err
	}
	defer unlock()

	err = e.db.Transaction(fn)
	if err == nil {
		services.InvalidateTripSnapshot(ctx, tripID)
	}
	return err
}

// loadTrip fetches a trip or returns NotFoundError.
func loadTrip(tx *gorm.DB, tripID uint) (*models.Trip, error) {
	var trip models.Trip
	if err := tx.First(&trip, tripID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "trip", ID: tripID}
		}
		return nil, err
	}
	return &trip, nil
}

// loadDriverTrip fetches a trip and verifies the acting driver is
// assigned to it.
func loadDriverTrip(tx *gorm.DB, tripID, driverID uint) (*models.Trip, error) {
	trip, err := loadTrip(tx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID == nil || *trip.DriverID != driverID {
		return nil, &AuthorizationError{TripID: tripID, DriverID: driverID}
	}
	return trip, nil
}

// loadWaypoints returns the trip's waypoints in ascending sequence order.
func loadWaypoints(tx *gorm.DB, tripID uint) ([]models.Waypoint, error) {
	var waypoints []models.Waypoint
	err := tx.Where("trip_id = ?", tripID).
		Order("sequence_order ASC").
		Find(&waypoints).Error
	return waypoints, err
}

// refreshDerived recomputes progress and the next-stop display field from
// the waypoint list and persists them on the trip row. Current location
// comes from the most recent status update by created_at, last-write-wins
// to tolerate out-of-order delivery.
func refreshDerived(tx *gorm.DB, trip *models.Trip) error {
	waypoints, err := loadWaypoints(tx, trip.ID)
	if err != nil {
		return err
	}

	progress := ComputeProgress(waypoints)
	trip.Progress = progress.Percentage
	trip.NextStop = progress.NextStop

	var latest models.StatusUpdate
	err = tx.Where("trip_id = ? AND location <> ''", trip.ID).
		Order("created_at DESC").
		First(&latest).Error
	if err == nil {
		trip.CurrentLocation = &latest.Location
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return tx.Save(trip).Error
}

// Snapshot returns the trip with its ordered waypoints and the freshly
// derived progress view. Read-only.
func (e *Engine) Snapshot(tripID uint) (*models.Trip, TripProgress, error) {
	trip, err := loadTrip(e.db, tripID)
	if err != nil {
		return nil, TripProgress{}, err
	}
	waypoints, err := loadWaypoints(e.db, tripID)
	if err != nil {
		return nil, TripProgress{}, err
	}
	trip.Waypoints = waypoints
	return trip, ComputeProgress(waypoints), nil
}
