package tripengine

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/kwetu-safaris/safariops-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB connects to the Postgres instance named by the TEST_DB_*
// environment (falling back to the regular DB_* settings) and skips the
// test when none is reachable, so the pure-logic tests still run anywhere.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	host := envOr("TEST_DB_HOST", envOr("DB_HOST", "localhost"))
	user := envOr("TEST_DB_USER", envOr("DB_USER", "safariops"))
	password := envOr("TEST_DB_PASSWORD", envOr("DB_PASSWORD", "safariops"))
	name := envOr("TEST_DB_NAME", "safariops_test")
	port := envOr("TEST_DB_PORT", envOr("DB_PORT", "5432"))

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, user, password, name, port,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("failed to connect to test database: %v, skipping integration test", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Vehicle{},
		&models.Trip{},
		&models.Waypoint{},
		&models.Checklist{},
		&models.StatusUpdate{},
		&models.Communication{},
	)
	require.NoError(t, err)

	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func createDriver(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	suffix := time.Now().UnixNano()
	driver := models.User{
		Username:     fmt.Sprintf("driver-%d", suffix),
		Email:        fmt.Sprintf("driver-%d@test.local", suffix),
		PasswordHash: "x",
		UserType:     models.UserTypeDriver,
	}
	require.NoError(t, db.Create(&driver).Error)
	return &driver
}

func createVehicle(t *testing.T, db *gorm.DB) (uint, *models.Vehicle) {
	t.Helper()
	vehicle := models.Vehicle{
		Plate:    fmt.Sprintf("KDA %d", time.Now().UnixNano()),
		Make:     "Toyota",
		VehModel: "Land Cruiser",
		Seats:    7,
	}
	require.NoError(t, db.Create(&vehicle).Error)
	return vehicle.ID, &vehicle
}

// createAssignedTrip creates a scheduled trip with three upcoming
// waypoints and the given driver/vehicle assigned.
func createAssignedTrip(t *testing.T, db *gorm.DB, driverID, vehicleID uint) *models.Trip {
	t.Helper()

	trip := models.Trip{
		Status:     models.TripStatusScheduled,
		StartDate:  time.Now(),
		EndDate:    time.Now().Add(48 * time.Hour),
		GuestCount: 4,
		DriverID:   &driverID,
		VehicleID:  &vehicleID,
	}
	require.NoError(t, db.Create(&trip).Error)

	names := []string{"Nairobi Pickup", "Amboseli Gate", "Observation Hill"}
	distances := []string{"0 km", "230 km", "15 km"}
	for i := 0; i < 3; i++ {
		wp := models.Waypoint{
			TripID:               trip.ID,
			SequenceOrder:        i + 1,
			Name:                 names[i],
			Status:               models.WaypointStatusUpcoming,
			DistanceFromPrevious: &distances[i],
		}
		require.NoError(t, db.Create(&wp).Error)
	}

	return &trip
}

func preDepartureFields() map[string]bool {
	return allTrue(models.RequiredChecklistFields[models.ChecklistPreDeparture])
}

func TestStartTripGateBlocked(t *testing.T) {
	db := setupTestDB(t)
	engine := New(db)
	ctx := context.Background()

	driver := createDriver(t, db)
	_, vehicle := createVehicle(t, db)
	trip := createAssignedTrip(t, db, driver.ID, vehicle.ID)

	fields := preDepartureFields()
	fields["vehicle_inspected"] = false

	_, err := engine.StartTrip(ctx, trip.ID, driver.ID, fields, "")
	var gateErr *GateBlockedError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, []string{"vehicle_inspected"}, gateErr.MissingFields)

	var reloaded models.Trip
	require.NoError(t, db.First(&reloaded, trip.ID).Error)
	assert.Equal(t, models.TripStatusScheduled, reloaded.Status)

	// No checklist row is persisted on a blocked gate.
	var count int64
	db.Model(&models.Checklist{}).Where("trip_id = ?", trip.ID).Count(&count)
	assert.Zero(t, count)
}

func TestStartTripSuccess(t *testing.T) {
	db := setupTestDB(t)
	engine := New(db)
	ctx := context.Background()

	driver := createDriver(t, db)
	_, vehicle := createVehicle(t, db)
	trip := createAssignedTrip(t, db, driver.ID, vehicle.ID)

	started, err := engine.StartTrip(ctx, trip.ID, driver.ID, preDepartureFields(), "all set")
	require.NoError(t, err)
	assert.Equal(t, models.TripStatusInProgress, started.Status)

	waypoints, err := loadWaypoints(db, trip.ID)
	require.NoError(t, err)
	require.Len(t, waypoints, 3)
	assert.Equal(t, models.WaypointStatusCurrent, waypoints[0].Status)
	assert.Equal(t, models.WaypointStatusUpcoming, waypoints[1].Status)

	var updates []models.StatusUpdate
	require.NoError(t, db.Where("trip_id = ?", trip.ID).Find(&updates).Error)
	require.Len(t, updates, 1)
	assert.Equal(t, models.StatusUpdateInTransit, updates[0].Status)

	var checklist models.Checklist
	require.NoError(t, db.Where("trip_id = ?", trip.ID).First(&checklist).Error)
	assert.Equal(t, models.ChecklistPreDeparture, checklist.ChecklistType)
	assert.False(t, checklist.CompletedAt.IsZero())
}

func TestStartTripTwiceIsInvalidTransition(t *testing.T) {
	db := setupTestDB(t)
	engine := New(db)
	ctx := context.Background()

	driver := createDriver(t, db)
	_, vehicle := createVehicle(t, db)
	trip := createAssignedTrip(t, db, driver.ID, vehicle.ID)

	_, err := engine.StartTrip(ctx, trip.ID, driver.ID, preDepartureFields(), "")
	require.NoError(t, err)

	_, err = engine.StartTrip(ctx, trip.ID, driver.ID, preDepartureFields(), "")
	var transitionErr *InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestAdvanceWaypointProgression(t *testing.T) {
	db := setupTestDB(t)
	engine := New(db)
	ctx := context.Background()

	driver := createDriver(t, db)
	_, vehicle := createVehicle(t, db)
	trip := createAssignedTrip(t, db, driver.ID, vehicle.ID)

	_, err := engine.StartTrip(ctx, trip.ID, driver.ID, preDepartureFields(), "")
	require.NoError(t, err)

	// First advance: waypoint 1 completed, waypoint 2 current.
	reached, err := engine.AdvanceWaypoint(ctx, trip.ID, driver.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reached.SequenceOrder)

	waypoints, err := loadWaypoints(db, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WaypointStatusCompleted, waypoints[0].Status)
	assert.NotNil(t, waypoints[0].ActualArrivalTime)
	assert.Equal(t, models.WaypointStatusCurrent, waypoints[1].Status)

	_, progress, err := engine.Snapshot(trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, progress.Percentage)

	// Two more advances finish the route.
	_, err = engine.AdvanceWaypoint(ctx, trip.ID, driver.ID)
	require.NoError(t, err)
	_, err = engine.AdvanceWaypoint(ctx, trip.ID, driver.ID)
	require.NoError(t, err)

	waypoints, err = loadWaypoints(db, trip.ID)
	require.NoError(t, err)
	for _, wp := range waypoints {
		assert.Equal(t, models.WaypointStatusCompleted, wp.Status)
	}

	_, progress, err = engine.Snapshot(trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, progress.Percentage)

	// Nothing left to advance.
	_, err = engine.AdvanceWaypoint(ctx, trip.ID, driver.ID)
	var stateErr *InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestOnlyOneCurrentWaypoint(t *testing.T) {
	db := setupTestDB(t)
	engine := New(db)
	ctx := context.Background()

	driver := createDriver(t, db)
	_, vehicle := createVehicle(t, db)
	trip := createAssignedTrip(t, db, driver.ID, vehicle.ID)

	_, err := engine.StartTrip(ctx, trip.ID, driver.ID, preDepartureFields(), "")
	require.NoError(t, err)
	_, err = engine.AdvanceWaypoint(ctx, trip.ID, driver.ID)
	require.NoError(t, err)

	waypoints, err := loadWaypoints(db, trip.ID)
	require.NoError(t, err)

	currentCount := 0
	for _, wp := range waypoints {
		if wp.Status == models.WaypointStatusCurrent {
			currentCount++
		}
	}
	assert.Equal(t, 1, currentCount)
}

func TestSkipWaypoint(t *testing.T) {
	db := setupTestDB(t)
	engine := New(db)
	ctx := context.Background()

	driver := createDriver(t, db)
	_, vehicle := createVehicle(t, db)
	trip := createAssignedTrip(t, db, driver.ID, vehicle.ID)

	_, err := engine.StartTrip(ctx, trip.ID, driver.ID, preDepartureFields(), "")
	require.NoError(t, err)

	waypoints, err := loadWaypoints(db, trip.ID)
	require.NoError(t, err)

	// Skip the upcoming waypoint 2; current pointer stays on waypoint 1.
	require.NoError(t, engine.SkipWaypoint(ctx, trip.ID, waypoints[1].ID, driver.ID))

	waypoints, err = loadWaypoints(db, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WaypointStatusCurrent, waypoints[0].Status)
	assert.Equal(t, models.WaypointStatusSkipped, waypoints[1].Status)

	// Skipping anything not upcoming is NotFound.
	err = engine.SkipWaypoint(ctx, trip.ID, waypoints[0].ID, driver.ID)
	var notFoundErr *NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
	err = engine.SkipWaypoint(ctx, trip.ID, waypoints[1].ID, driver.ID)
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestCompleteWaypointDemotesCurrent(t *testing.T) {
	db := setupTestDB(t)
	engine := New(db)
	ctx := context.Background()

	driver := createDriver(t, db)
	_, vehicle := createVehicle(t, db)
	trip := createAssignedTrip(t, db, driver.ID, vehicle.ID)

	_, err := engine.StartTrip(ctx, trip.ID, driver.ID, preDepartureFields(), "")
	require.NoError(t, err)

	waypoints, err := loadWaypoints(db, trip.ID)
	require.NoError(t, err)

	// Driver jumps ahead to waypoint 3; waypoint 1 (current) is demoted
	// to completed so only one current waypoint can ever exist.
	require.NoError(t, engine.CompleteWaypoint(ctx, trip.ID, waypoints[2].ID, driver.ID))

	waypoints, err = loadWaypoints(db, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WaypointStatusCompleted, waypoints[0].Status)
	assert.Equal(t, models.WaypointStatusUpcoming, waypoints[1].Status)
	assert.Equal(t, models.WaypointStatusCompleted, waypoints[2].Status)
	assert.NotNil(t, waypoints[2].ActualArrivalTime)
}

func TestUpdateStatusCompletedFinalizesTrip(t *testing.T) {
	db := setupTestDB(t)
	engine := New(db)
	ctx := context.Background()

	driver := createDriver(t, db)
	_, vehicle := createVehicle(t, db)
	trip := createAssignedTrip(t, db, driver.ID, vehicle.ID)

	_, err := engine.StartTrip(ctx, trip.ID, driver.ID, preDepartureFields(), "")
	require.NoError(t, err)

	_, err = engine.UpdateStatus(ctx, trip.ID, driver.ID, StatusInput{
		Status:   models.StatusUpdateCompleted,
		Location: "Amboseli Lodge",
	})
	require.NoError(t, err)

	var reloaded models.Trip
	require.NoError(t, db.First(&reloaded, trip.ID).Error)
	assert.Equal(t, models.TripStatusCompleted, reloaded.Status)

	// Terminal cleanup: current completed, remaining upcoming skipped.
	waypoints, err := loadWaypoints(db, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WaypointStatusCompleted, waypoints[0].Status)
	assert.Equal(t, models.WaypointStatusSkipped, waypoints[1].Status)
	assert.Equal(t, models.WaypointStatusSkipped, waypoints[2].Status)

	// Updating a terminal trip fails.
	_, err = engine.UpdateStatus(ctx, trip.ID, driver.ID, StatusInput{Status: models.StatusUpdateCompleted})
	var transitionErr *InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestUpdateStatusAppendOnly(t *testing.T) {
	db := setupTestDB(t)
	engine := New(db)
	ctx := context.Background()

	driver := createDriver(t, db)
	_, vehicle := createVehicle(t, db)
	trip := createAssignedTrip(t, db, driver.ID, vehicle.ID)

	_, err := engine.StartTrip(ctx, trip.ID, driver.ID, preDepartureFields(), "")
	require.NoError(t, err)

	input := StatusInput{Status: models.StatusUpdateRestStop, Location: "Mtito Andei"}
	first, err := engine.UpdateStatus(ctx, trip.ID, driver.ID, input)
	require.NoError(t, err)
	second, err := engine.UpdateStatus(ctx, trip.ID, driver.ID, input)
	require.NoError(t, err)

	// Identical payloads yield two rows; the first is untouched.
	assert.NotEqual(t, first.ID, second.ID)
	var count int64
	db.Model(&models.StatusUpdate{}).
		Where("trip_id = ? AND status = ?", trip.ID, models.StatusUpdateRestStop).
		Count(&count)
	assert.Equal(t, int64(2), count)

	// Location display field is derived from the latest update.
	var reloaded models.Trip
	require.NoError(t, db.First(&reloaded, trip.ID).Error)
	if assert.NotNil(t, reloaded.CurrentLocation) {
		assert.Equal(t, "Mtito Andei", *reloaded.CurrentLocation)
	}
}

func TestDriverOwnershipEnforced(t *testing.T) {
	db := setupTestDB(t)
	engine := New(db)
	ctx := context.Background()

	driver := createDriver(t, db)
	other := createDriver(t, db)
	_, vehicle := createVehicle(t, db)
	trip := createAssignedTrip(t, db, driver.ID, vehicle.ID)

	_, err := engine.StartTrip(ctx, trip.ID, other.ID, preDepartureFields(), "")
	var authErr *AuthorizationError
	assert.ErrorAs(t, err, &authErr)

	_, err = engine.AppendCommunication(ctx, trip.ID, other.ID, models.CommunicationCall, nil)
	assert.ErrorAs(t, err, &authErr)
}

func TestCancelTripSkipsRemainingWaypoints(t *testing.T) {
	db := setupTestDB(t)
	engine := New(db)
	ctx := context.Background()

	driver := createDriver(t, db)
	_, vehicle := createVehicle(t, db)
	trip := createAssignedTrip(t, db, driver.ID, vehicle.ID)

	cancelled, err := engine.CancelTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TripStatusCancelled, cancelled.Status)

	waypoints, err := loadWaypoints(db, trip.ID)
	require.NoError(t, err)
	for _, wp := range waypoints {
		assert.Equal(t, models.WaypointStatusSkipped, wp.Status)
	}

	_, err = engine.CancelTrip(ctx, trip.ID)
	var transitionErr *InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestDelayAndResume(t *testing.T) {
	db := setupTestDB(t)
	engine := New(db)
	ctx := context.Background()

	driver := createDriver(t, db)
	_, vehicle := createVehicle(t, db)
	trip := createAssignedTrip(t, db, driver.ID, vehicle.ID)

	_, err := engine.StartTrip(ctx, trip.ID, driver.ID, preDepartureFields(), "")
	require.NoError(t, err)

	delayed, err := engine.MarkDelayed(ctx, trip.ID, driver.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TripStatusDelayed, delayed.Status)

	resumed, err := engine.ResumeTrip(ctx, trip.ID, driver.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TripStatusInProgress, resumed.Status)
}

func TestListStatusUpdatesNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	engine := New(db)
	ctx := context.Background()

	driver := createDriver(t, db)
	_, vehicle := createVehicle(t, db)
	trip := createAssignedTrip(t, db, driver.ID, vehicle.ID)

	_, err := engine.StartTrip(ctx, trip.ID, driver.ID, preDepartureFields(), "")
	require.NoError(t, err)

	for _, status := range []models.StatusUpdateType{
		models.StatusUpdateGameDrive,
		models.StatusUpdateRestStop,
	} {
		_, err := engine.UpdateStatus(ctx, trip.ID, driver.ID, StatusInput{Status: status})
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}

	updates, err := engine.ListStatusUpdates(trip.ID, 2)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, models.StatusUpdateRestStop, updates[0].Status)
	assert.Equal(t, models.StatusUpdateGameDrive, updates[1].Status)
}

func TestCreateTripRejectsBrokenSequences(t *testing.T) {
	db := setupTestDB(t)
	engine := New(db)
	ctx := context.Background()

	base := TripInput{
		StartDate:  time.Now(),
		EndDate:    time.Now().Add(24 * time.Hour),
		GuestCount: 2,
	}

	dup := base
	dup.Waypoints = []WaypointInput{
		{SequenceOrder: 1, Name: "A"},
		{SequenceOrder: 1, Name: "B"},
	}
	_, err := engine.CreateTrip(ctx, dup)
	var stateErr *InvalidStateError
	assert.ErrorAs(t, err, &stateErr)

	gap := base
	gap.Waypoints = []WaypointInput{
		{SequenceOrder: 1, Name: "A"},
		{SequenceOrder: 3, Name: "B"},
	}
	_, err = engine.CreateTrip(ctx, gap)
	assert.ErrorAs(t, err, &stateErr)

	ok := base
	ok.Waypoints = []WaypointInput{
		{SequenceOrder: 2, Name: "B"},
		{SequenceOrder: 1, Name: "A"},
	}
	trip, err := engine.CreateTrip(ctx, ok)
	require.NoError(t, err)

	waypoints, err := loadWaypoints(db, trip.ID)
	require.NoError(t, err)
	require.Len(t, waypoints, 2)
	assert.Equal(t, "A", waypoints[0].Name)
}
