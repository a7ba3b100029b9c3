package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTripStatusTransitions(t *testing.T) {
	assert.True(t, TripStatusScheduled.CanTransition(TripStatusInProgress))
	assert.True(t, TripStatusScheduled.CanTransition(TripStatusCancelled))
	assert.False(t, TripStatusScheduled.CanTransition(TripStatusCompleted))
	assert.False(t, TripStatusScheduled.CanTransition(TripStatusDelayed))

	assert.True(t, TripStatusInProgress.CanTransition(TripStatusDelayed))
	assert.True(t, TripStatusInProgress.CanTransition(TripStatusCompleted))
	assert.True(t, TripStatusInProgress.CanTransition(TripStatusCancelled))
	assert.False(t, TripStatusInProgress.CanTransition(TripStatusScheduled))

	// Delayed is recoverable
	assert.True(t, TripStatusDelayed.CanTransition(TripStatusInProgress))
	assert.True(t, TripStatusDelayed.CanTransition(TripStatusCompleted))
}

func TestTerminalStatesAllowNothing(t *testing.T) {
	for _, terminal := range []TripStatus{TripStatusCompleted, TripStatusCancelled} {
		assert.True(t, terminal.IsTerminal())
		for _, target := range []TripStatus{
			TripStatusScheduled, TripStatusInProgress, TripStatusDelayed,
			TripStatusCompleted, TripStatusCancelled,
		} {
			assert.False(t, terminal.CanTransition(target), "%s -> %s", terminal, target)
		}
	}
}

func TestValidStatusUpdateType(t *testing.T) {
	for _, valid := range []StatusUpdateType{
		StatusUpdateInTransit, StatusUpdateArrived, StatusUpdateGameDrive,
		StatusUpdateRestStop, StatusUpdateFuelStop, StatusUpdateIssue,
		StatusUpdateCompleted,
	} {
		assert.True(t, ValidStatusUpdateType(valid), string(valid))
	}
	assert.False(t, ValidStatusUpdateType("teleporting"))
	assert.False(t, ValidStatusUpdateType(""))
}

func TestValidCommunicationType(t *testing.T) {
	assert.True(t, ValidCommunicationType(CommunicationCall))
	assert.True(t, ValidCommunicationType(CommunicationWhatsApp))
	assert.False(t, ValidCommunicationType("carrier-pigeon"))
}

func TestRequiredChecklistFields(t *testing.T) {
	assert.Len(t, RequiredChecklistFields[ChecklistPreDeparture], 6)
	assert.Len(t, RequiredChecklistFields[ChecklistPreNavigation], 5)
	assert.True(t, ValidChecklistType(ChecklistDailyCheck))
	assert.False(t, ValidChecklistType("post-trip"))
}
