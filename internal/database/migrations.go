package database

import (
	"github.com/kwetu-safaris/safariops-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Vehicle{},
		&models.Trip{},
		&models.Waypoint{},
		&models.Checklist{},
		&models.StatusUpdate{},
		&models.Communication{},
	)
	if err != nil {
		return err
	}

	// Enum-style check constraints; AutoMigrate only covers columns
	db.Exec(`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_user_type_check`)
	db.Exec(`ALTER TABLE users ADD CONSTRAINT users_user_type_check CHECK (user_type IN ('driver', 'staff'))`)

	db.Exec(`ALTER TABLE trips DROP CONSTRAINT IF EXISTS trips_status_check`)
	db.Exec(`ALTER TABLE trips ADD CONSTRAINT trips_status_check CHECK (status IN ('scheduled', 'in_progress', 'delayed', 'completed', 'cancelled'))`)

	db.Exec(`ALTER TABLE waypoints DROP CONSTRAINT IF EXISTS waypoints_status_check`)
	db.Exec(`ALTER TABLE waypoints ADD CONSTRAINT waypoints_status_check CHECK (status IN ('upcoming', 'current', 'completed', 'skipped'))`)

	db.Exec(`ALTER TABLE waypoints DROP CONSTRAINT IF EXISTS waypoints_seq_positive_check`)
	db.Exec(`ALTER TABLE waypoints ADD CONSTRAINT waypoints_seq_positive_check CHECK (sequence_order >= 1)`)

	// At most one current waypoint per trip, enforced by the store as the
	// final arbiter under concurrent writers
	db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_waypoints_one_current
		ON waypoints (trip_id) WHERE status = 'current' AND deleted_at IS NULL`)

	db.Exec(`ALTER TABLE status_updates DROP CONSTRAINT IF EXISTS status_updates_fuel_check`)
	db.Exec(`ALTER TABLE status_updates ADD CONSTRAINT status_updates_fuel_check CHECK (fuel_level IS NULL OR (fuel_level >= 0 AND fuel_level <= 100))`)

	return nil
}
