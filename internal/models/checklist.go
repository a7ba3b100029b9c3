package models

import (
	"time"

	"gorm.io/gorm"
)

// ChecklistType names a fixed set of boolean gate conditions.
type ChecklistType string

const (
	ChecklistPreDeparture  ChecklistType = "pre-departure"
	ChecklistPreNavigation ChecklistType = "pre-navigation"
	ChecklistDailyCheck    ChecklistType = "daily-check"
)

// RequiredChecklistFields maps each checklist type to the boolean fields
// that must all be true before the gated action is permitted. Field names
// match what the driver app submits.
var RequiredChecklistFields = map[ChecklistType][]string{
	ChecklistPreDeparture: {
		"vehicle_inspected",
		"fuel_checked",
		"safety_equipment",
		"guests_arrived",
		"luggage_loaded",
		"route_planned",
	},
	ChecklistPreNavigation: {
		"vehicleChecked",
		"fuelChecked",
		"safetyChecked",
		"routeChecked",
		"customerContacted",
	},
	ChecklistDailyCheck: {
		"vehicle_condition",
		"fuel_level_checked",
		"equipment_check",
	},
}

// ValidChecklistType reports whether t names a known checklist.
func ValidChecklistType(t ChecklistType) bool {
	_, ok := RequiredChecklistFields[t]
	return ok
}

// Checklist is a persisted record of a satisfied gate. A row is written
// only when every required field was true; CompletedAt is set at that
// moment and the row is never modified afterwards.
type Checklist struct {
	gorm.Model
	TripID        uint          `json:"tripId" gorm:"not null;index"`
	DriverID      uint          `json:"driverId" gorm:"not null"`
	ChecklistType ChecklistType `json:"checklistType" gorm:"not null"`
	Fields        string        `json:"fields" gorm:"type:text;not null"` // JSON snapshot of submitted booleans
	Notes         string        `json:"notes,omitempty"`
	CompletedAt   time.Time     `json:"completedAt" gorm:"not null"`
}

// TableName specifies the table name
func (Checklist) TableName() string {
	return "checklists"
}
