package models

import "gorm.io/gorm"

// Vehicle is a safari vehicle that Operations can assign to a trip.
type Vehicle struct {
	gorm.Model
	Plate    string `json:"plate" gorm:"column:plate;unique;not null"`
	Make     string `json:"make" gorm:"column:make;not null"`
	VehModel string `json:"model" gorm:"column:model;not null"`
	Seats    int    `json:"seats" gorm:"not null;default:6"`
	Features string `json:"features,omitempty"` // comma-separated, e.g. "pop-up roof,fridge"
}

// TableName specifies the table name
func (Vehicle) TableName() string {
	return "vehicles"
}
