package tripengine

import (
	"context"

	"github.com/kwetu-safaris/safariops-backend/internal/models"
	"gorm.io/gorm"
)

// The audit log is append-only. There is no update or delete path for
// status updates or communications anywhere in this package; trip history
// integrity depends on it.

// AppendCommunication records a driver-customer contact event. The core
// records intent only; dispatch happens on the driver's device.
func (e *Engine) AppendCommunication(ctx context.Context, tripID, driverID uint, commType models.CommunicationType, message *string) (*models.Communication, error) {
	trip, err := loadDriverTrip(e.db, tripID, driverID)
	if err != nil {
		return nil, err
	}

	comm := models.Communication{
		TripID:            trip.ID,
		DriverID:          driverID,
		CommunicationType: commType,
		Message:           message,
		DeliveryStatus:    "recorded",
	}
	if err := e.db.Create(&comm).Error; err != nil {
		return nil, err
	}
	return &comm, nil
}

// ListStatusUpdates returns the trip's status history newest-first.
func (e *Engine) ListStatusUpdates(tripID uint, limit int) ([]models.StatusUpdate, error) {
	if _, err := loadTrip(e.db, tripID); err != nil {
		return nil, err
	}

	var updates []models.StatusUpdate
	err := applyLimit(e.db.Where("trip_id = ?", tripID).Order("created_at DESC"), limit).
		Find(&updates).Error
	return updates, err
}

// ListCommunications returns the trip's communication history newest-first.
func (e *Engine) ListCommunications(tripID uint, limit int) ([]models.Communication, error) {
	if _, err := loadTrip(e.db, tripID); err != nil {
		return nil, err
	}

	var comms []models.Communication
	err := applyLimit(e.db.Where("trip_id = ?", tripID).Order("created_at DESC"), limit).
		Find(&comms).Error
	return comms, err
}

func applyLimit(q *gorm.DB, limit int) *gorm.DB {
	if limit > 0 {
		return q.Limit(limit)
	}
	return q
}
