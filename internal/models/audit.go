package models

import "gorm.io/gorm"

// StatusUpdate is an append-only audit record of a driver-reported trip
// status change. Rows are never edited or deleted; CreatedAt (from
// gorm.Model) is assigned at insert time and orders the log.
type StatusUpdate struct {
	gorm.Model
	TripID    uint             `json:"tripId" gorm:"not null;index"`
	DriverID  uint             `json:"driverId" gorm:"not null"`
	Status    StatusUpdateType `json:"status" gorm:"not null"`
	Location  string           `json:"location,omitempty"`
	FuelLevel *int             `json:"fuelLevel,omitempty"` // 0-100
	Notes     string           `json:"notes,omitempty"`
	Latitude  *float64         `json:"lat,omitempty"`
	Longitude *float64         `json:"lng,omitempty"`
	PhotoURL  string           `json:"photoUrl,omitempty"` // only set for issue reports
}

// TableName specifies the table name
func (StatusUpdate) TableName() string {
	return "status_updates"
}

// CommunicationType is the channel used to contact a customer.
type CommunicationType string

const (
	CommunicationCall     CommunicationType = "call"
	CommunicationSMS      CommunicationType = "sms"
	CommunicationEmail    CommunicationType = "email"
	CommunicationWhatsApp CommunicationType = "whatsapp"
)

// ValidCommunicationType reports whether t is a known channel.
func ValidCommunicationType(t CommunicationType) bool {
	switch t {
	case CommunicationCall, CommunicationSMS, CommunicationEmail, CommunicationWhatsApp:
		return true
	}
	return false
}

// Communication is an append-only audit record of a driver-customer
// contact. The core records intent only; the actual call/SMS/email is
// dispatched by the driver's device.
type Communication struct {
	gorm.Model
	TripID            uint              `json:"tripId" gorm:"not null;index"`
	DriverID          uint              `json:"driverId" gorm:"not null"`
	CommunicationType CommunicationType `json:"communicationType" gorm:"not null"`
	Message           *string           `json:"message,omitempty"`
	DeliveryStatus    string            `json:"deliveryStatus" gorm:"not null;default:'recorded'"`
}

// TableName specifies the table name
func (Communication) TableName() string {
	return "communications"
}
