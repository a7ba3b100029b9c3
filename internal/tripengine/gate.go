package tripengine

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/kwetu-safaris/safariops-backend/internal/models"
	"gorm.io/gorm"
)

// GateResult is the outcome of a checklist evaluation.
type GateResult struct {
	Allowed       bool     `json:"allowed"`
	MissingFields []string `json:"missingFields,omitempty"`
}

// EvaluateGate compares the submitted boolean fields against the fixed
// required-field set for the checklist type. Allowed only when every
// required field is present and true. Pure; persists nothing.
func EvaluateGate(checklistType models.ChecklistType, fields map[string]bool) GateResult {
	required := models.RequiredChecklistFields[checklistType]

	var missing []string
	for _, name := range required {
		if !fields[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)

	if len(missing) > 0 {
		return GateResult{Allowed: false, MissingFields: missing}
	}
	return GateResult{Allowed: true}
}

// passGate evaluates the gate and, on Allowed, persists the completed
// Checklist row inside tx. On Blocked it returns GateBlockedError and
// nothing is written.
func passGate(tx *gorm.DB, trip *models.Trip, driverID uint, checklistType models.ChecklistType, fields map[string]bool, notes string) error {
	result := EvaluateGate(checklistType, fields)
	if !result.Allowed {
		return &GateBlockedError{ChecklistType: checklistType, MissingFields: result.MissingFields}
	}

	snapshot, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	checklist := models.Checklist{
		TripID:        trip.ID,
		DriverID:      driverID,
		ChecklistType: checklistType,
		Fields:        string(snapshot),
		Notes:         notes,
		CompletedAt:   time.Now(),
	}
	return tx.Create(&checklist).Error
}
