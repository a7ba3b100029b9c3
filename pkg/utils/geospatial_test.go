package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	// Same point
	assert.InDelta(t, 0, HaversineDistance(-1.2921, 36.8219, -1.2921, 36.8219), 0.001)

	// Nairobi to Amboseli is roughly 200 km as the crow flies
	d := HaversineDistance(-1.2921, 36.8219, -2.6527, 37.2606)
	assert.Greater(t, d, 150.0)
	assert.Less(t, d, 250.0)
}

func TestCalculateETA(t *testing.T) {
	assert.Equal(t, 60, CalculateETA(25, 25))
	assert.Equal(t, 1, CalculateETA(0.1, 60)) // floor of one minute
	assert.Equal(t, 24, CalculateETA(10, 0))  // default park speed kicks in
}
