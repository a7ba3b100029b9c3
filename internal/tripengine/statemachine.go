package tripengine

import (
	"context"

	"github.com/kwetu-safaris/safariops-backend/internal/models"
	"gorm.io/gorm"
)

// StartTrip transitions a scheduled trip to in_progress. The pre-departure
// checklist gate must pass first; on success the first waypoint is
// activated and an in-transit status update is appended.
func (e *Engine) StartTrip(ctx context.Context, tripID, driverID uint, checklistFields map[string]bool, notes string) (*models.Trip, error) {
	var started *models.Trip
	err := e.withTripLock(ctx, tripID, func(tx *gorm.DB) error {
		trip, err := loadDriverTrip(tx, tripID, driverID)
		if err != nil {
			return err
		}
		if trip.Status != models.TripStatusScheduled {
			return &InvalidTransitionError{TripID: tripID, From: trip.Status, To: models.TripStatusInProgress}
		}

		if err := passGate(tx, trip, driverID, models.ChecklistPreDeparture, checklistFields, notes); err != nil {
			return err
		}

		trip.Status = models.TripStatusInProgress
		if err := tx.Save(trip).Error; err != nil {
			return err
		}

		// Activate the first waypoint.
		if _, err := advance(tx, trip); err != nil {
			return err
		}

		update := models.StatusUpdate{
			TripID:   tripID,
			DriverID: driverID,
			Status:   models.StatusUpdateInTransit,
			Notes:    "Trip started",
		}
		if err := tx.Create(&update).Error; err != nil {
			return err
		}

		started = trip
		return nil
	})
	return started, err
}

// StartNavigation records a passed pre-navigation checklist. It does not
// change trip status; navigation may be restarted any number of times
// while the trip is in progress.
func (e *Engine) StartNavigation(ctx context.Context, tripID, driverID uint, checklistFields map[string]bool) error {
	return e.withTripLock(ctx, tripID, func(tx *gorm.DB) error {
		trip, err := loadDriverTrip(tx, tripID, driverID)
		if err != nil {
			return err
		}
		if trip.Status.IsTerminal() {
			return &InvalidTransitionError{TripID: tripID, From: trip.Status, To: trip.Status}
		}
		return passGate(tx, trip, driverID, models.ChecklistPreNavigation, checklistFields, "")
	})
}

// RecordDailyCheck evaluates and persists a daily vehicle check. The
// daily check gates no transition; it is a standalone recorded checklist.
func (e *Engine) RecordDailyCheck(ctx context.Context, tripID, driverID uint, checklistFields map[string]bool, notes string) error {
	return e.withTripLock(ctx, tripID, func(tx *gorm.DB) error {
		trip, err := loadDriverTrip(tx, tripID, driverID)
		if err != nil {
			return err
		}
		return passGate(tx, trip, driverID, models.ChecklistDailyCheck, checklistFields, notes)
	})
}

// StatusInput carries a driver-reported status update.
type StatusInput struct {
	Status    models.StatusUpdateType
	Location  string
	FuelLevel *int
	Notes     string
	Latitude  *float64
	Longitude *float64
	PhotoURL  string
}

// UpdateStatus appends a status update to the audit log and refreshes the
// trip's current-location display field. A "completed" sub-status is the
// one case that also forces the trip to completed and finalizes all
// waypoints. Fails with InvalidTransitionError on terminal trips.
func (e *Engine) UpdateStatus(ctx context.Context, tripID, driverID uint, input StatusInput) (*models.StatusUpdate, error) {
	var appended *models.StatusUpdate
	err := e.withTripLock(ctx, tripID, func(tx *gorm.DB) error {
		trip, err := loadDriverTrip(tx, tripID, driverID)
		if err != nil {
			return err
		}
		if trip.Status.IsTerminal() {
			return &InvalidTransitionError{TripID: tripID, From: trip.Status, To: models.TripStatusCompleted}
		}

		update := models.StatusUpdate{
			TripID:    tripID,
			DriverID:  driverID,
			Status:    input.Status,
			Location:  input.Location,
			FuelLevel: input.FuelLevel,
			Notes:     input.Notes,
			Latitude:  input.Latitude,
			Longitude: input.Longitude,
			PhotoURL:  input.PhotoURL,
		}
		if err := tx.Create(&update).Error; err != nil {
			return err
		}

		if input.Status == models.StatusUpdateCompleted {
			if !trip.Status.CanTransition(models.TripStatusCompleted) {
				return &InvalidTransitionError{TripID: tripID, From: trip.Status, To: models.TripStatusCompleted}
			}
			trip.Status = models.TripStatusCompleted
			if err := tx.Save(trip).Error; err != nil {
				return err
			}
			if err := finalizeWaypoints(tx, tripID, true); err != nil {
				return err
			}
		}

		if err := refreshDerived(tx, trip); err != nil {
			return err
		}
		appended = &update
		return nil
	})
	return appended, err
}

// MarkDelayed moves an in-progress trip to the recoverable delayed state.
func (e *Engine) MarkDelayed(ctx context.Context, tripID, driverID uint) (*models.Trip, error) {
	return e.transition(ctx, tripID, &driverID, models.TripStatusDelayed)
}

// ResumeTrip recovers a delayed trip back to in_progress.
func (e *Engine) ResumeTrip(ctx context.Context, tripID, driverID uint) (*models.Trip, error) {
	return e.transition(ctx, tripID, &driverID, models.TripStatusInProgress)
}

// CancelTrip terminates a scheduled or in-progress trip. Remaining
// waypoints are skipped. Staff-initiated, so no driver ownership check.
func (e *Engine) CancelTrip(ctx context.Context, tripID uint) (*models.Trip, error) {
	return e.transition(ctx, tripID, nil, models.TripStatusCancelled)
}

func (e *Engine) transition(ctx context.Context, tripID uint, driverID *uint, target models.TripStatus) (*models.Trip, error) {
	var updated *models.Trip
	err := e.withTripLock(ctx, tripID, func(tx *gorm.DB) error {
		var trip *models.Trip
		var err error
		if driverID != nil {
			trip, err = loadDriverTrip(tx, tripID, *driverID)
		} else {
			trip, err = loadTrip(tx, tripID)
		}
		if err != nil {
			return err
		}

		if !trip.Status.CanTransition(target) {
			return &InvalidTransitionError{TripID: tripID, From: trip.Status, To: target}
		}

		trip.Status = target
		if err := tx.Save(trip).Error; err != nil {
			return err
		}

		if target == models.TripStatusCancelled {
			if err := finalizeWaypoints(tx, tripID, false); err != nil {
				return err
			}
			if err := refreshDerived(tx, trip); err != nil {
				return err
			}
		}

		updated = trip
		return nil
	})
	return updated, err
}

// AssignResources sets the driver and vehicle on a trip. This is the
// inbound hook from the Operations assignment flow; it changes no status
// by itself, but a trip cannot be started until it has both.
func (e *Engine) AssignResources(ctx context.Context, tripID, driverID, vehicleID uint) (*models.Trip, error) {
	var updated *models.Trip
	err := e.withTripLock(ctx, tripID, func(tx *gorm.DB) error {
		trip, err := loadTrip(tx, tripID)
		if err != nil {
			return err
		}
		if trip.Status.IsTerminal() {
			return &InvalidStateError{TripID: tripID, Reason: "cannot assign resources to a terminated trip"}
		}

		var driver models.User
		if err := tx.Where("id = ? AND user_type = ?", driverID, models.UserTypeDriver).First(&driver).Error; err != nil {
			return &NotFoundError{Entity: "driver", ID: driverID}
		}
		var vehicle models.Vehicle
		if err := tx.First(&vehicle, vehicleID).Error; err != nil {
			return &NotFoundError{Entity: "vehicle", ID: vehicleID}
		}

		trip.DriverID = &driverID
		trip.VehicleID = &vehicleID
		if err := tx.Save(trip).Error; err != nil {
			return err
		}
		updated = trip
		return nil
	})
	return updated, err
}
