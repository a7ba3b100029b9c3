package tripengine

import (
	"testing"

	"github.com/kwetu-safaris/safariops-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestParseDistanceKm(t *testing.T) {
	assert.Equal(t, 12.0, ParseDistanceKm(strPtr("12 km")))
	assert.Equal(t, 7.5, ParseDistanceKm(strPtr("7.5km")))
	assert.Equal(t, 40.0, ParseDistanceKm(strPtr("40")))
	assert.Equal(t, 0.0, ParseDistanceKm(strPtr("about an hour")))
	assert.Equal(t, 0.0, ParseDistanceKm(strPtr("")))
	assert.Equal(t, 0.0, ParseDistanceKm(strPtr("km 12")))
	assert.Equal(t, 0.0, ParseDistanceKm(nil))
	assert.Equal(t, 3.0, ParseDistanceKm(strPtr("  3 km ")))
}

func waypoint(seq int, status models.WaypointStatus, distance *string) models.Waypoint {
	return models.Waypoint{
		SequenceOrder:        seq,
		Name:                 "stop",
		Status:               status,
		DistanceFromPrevious: distance,
	}
}

func TestComputeProgressEmpty(t *testing.T) {
	p := ComputeProgress(nil)
	assert.Equal(t, 0, p.Percentage)
	assert.Equal(t, 0, p.TotalCount)
	assert.Nil(t, p.NextStop)
}

func TestComputeProgressOneOfThree(t *testing.T) {
	waypoints := []models.Waypoint{
		waypoint(1, models.WaypointStatusCompleted, strPtr("10 km")),
		waypoint(2, models.WaypointStatusCurrent, strPtr("20 km")),
		waypoint(3, models.WaypointStatusUpcoming, strPtr("30 km")),
	}

	p := ComputeProgress(waypoints)
	assert.Equal(t, 33, p.Percentage) // round(1/3*100)
	assert.Equal(t, 1, p.CompletedCount)
	assert.Equal(t, 3, p.TotalCount)
	assert.Equal(t, 10.0, p.CompletedDistance)
	assert.Equal(t, 60.0, p.TotalDistance)
}

func TestComputeProgressAllCompleted(t *testing.T) {
	waypoints := []models.Waypoint{
		waypoint(1, models.WaypointStatusCompleted, strPtr("10 km")),
		waypoint(2, models.WaypointStatusCompleted, nil),
		waypoint(3, models.WaypointStatusCompleted, strPtr("garbage")),
	}

	p := ComputeProgress(waypoints)
	assert.Equal(t, 100, p.Percentage)
	assert.Equal(t, 10.0, p.CompletedDistance)
	assert.Equal(t, 10.0, p.TotalDistance)
	assert.Nil(t, p.NextStop)
}

func TestComputeProgressBounds(t *testing.T) {
	// Malformed distances never push the percentage out of [0, 100].
	waypoints := []models.Waypoint{
		waypoint(1, models.WaypointStatusSkipped, strPtr("-5 km")),
		waypoint(2, models.WaypointStatusCompleted, strPtr("NaN")),
	}

	p := ComputeProgress(waypoints)
	assert.GreaterOrEqual(t, p.Percentage, 0)
	assert.LessOrEqual(t, p.Percentage, 100)
	assert.Equal(t, 50, p.Percentage)
}

func TestComputeProgressNextStop(t *testing.T) {
	waypoints := []models.Waypoint{
		waypoint(1, models.WaypointStatusCompleted, nil),
		{SequenceOrder: 2, Name: "Mara River Crossing", Status: models.WaypointStatusCurrent},
	}

	p := ComputeProgress(waypoints)
	if assert.NotNil(t, p.NextStop) {
		assert.Equal(t, "Mara River Crossing", *p.NextStop)
	}
}
