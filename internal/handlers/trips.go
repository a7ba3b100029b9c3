package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kwetu-safaris/safariops-backend/internal/models"
	"github.com/kwetu-safaris/safariops-backend/internal/services"
	"github.com/kwetu-safaris/safariops-backend/internal/tripengine"
	"gorm.io/gorm"
)

func tripIDParam(c *gin.Context) (uint, bool) {
	tripID, err := strconv.ParseUint(c.Param("tripId"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid trip ID"})
		return 0, false
	}
	return uint(tripID), true
}

// CreateTrip creates a scheduled trip with its ordered waypoints. This is
// the Booking/Assignment supply side; staff only.
func CreateTrip(engine *tripengine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userType := c.GetString("userType")
		if userType != string(models.UserTypeStaff) {
			c.JSON(403, gin.H{"error": "Only staff can create trips"})
			return
		}

		var input tripengine.TripInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		trip, err := engine.CreateTrip(c.Request.Context(), input)
		if err != nil {
			respondEngineError(c, err)
			return
		}

		c.JSON(201, gin.H{
			"message": "Trip created successfully",
			"trip":    trip,
		})
	}
}

// tripSnapshot is the cached read model consumed by the driver and staff UIs
type tripSnapshot struct {
	Trip     *models.Trip              `json:"trip"`
	Progress tripengine.TripProgress   `json:"progress"`
}

// GetTrip returns the trip snapshot: status, progress, current location,
// next stop and the ordered waypoint list. Snapshots are cached in Redis
// and invalidated on every mutation.
func GetTrip(engine *tripengine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripID, ok := tripIDParam(c)
		if !ok {
			return
		}

		ctx := context.Background()
		var cached tripSnapshot
		if hit, err := services.GetTripSnapshot(ctx, tripID, &cached); err == nil && hit {
			c.JSON(200, cached)
			return
		}

		trip, progress, err := engine.Snapshot(tripID)
		if err != nil {
			respondEngineError(c, err)
			return
		}

		snapshot := tripSnapshot{Trip: trip, Progress: progress}
		services.CacheTripSnapshot(ctx, tripID, snapshot)

		c.JSON(200, snapshot)
	}
}

// GetDriverTrips lists trips assigned to the acting driver
func GetDriverTrips(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetUint("userId")
		userType := c.GetString("userType")

		if userType != string(models.UserTypeDriver) {
			c.JSON(403, gin.H{"error": "Only drivers can view assigned trips"})
			return
		}

		var trips []models.Trip
		if err := db.Preload("Vehicle").
			Where("driver_id = ? AND status IN (?)", driverID, []models.TripStatus{
				models.TripStatusScheduled,
				models.TripStatusInProgress,
				models.TripStatusDelayed,
			}).
			Order("start_date ASC").
			Find(&trips).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch assigned trips"})
			return
		}

		c.JSON(200, trips)
	}
}

// GetAllTrips lists every trip for the operations dashboard; staff only
func GetAllTrips(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userType := c.GetString("userType")
		if userType != string(models.UserTypeStaff) {
			c.JSON(403, gin.H{"error": "Only staff can view all trips"})
			return
		}

		pageStr := c.DefaultQuery("page", "1")
		limitStr := c.DefaultQuery("limit", "20")

		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			page = 1
		}
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			limit = 20
		}
		offset := (page - 1) * limit

		var trips []models.Trip
		if err := db.Preload("Driver").Preload("Vehicle").
			Order("start_date DESC").
			Offset(offset).
			Limit(limit).
			Find(&trips).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch trips"})
			return
		}

		var total int64
		db.Model(&models.Trip{}).Count(&total)

		c.JSON(200, gin.H{
			"trips": trips,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": (total + int64(limit) - 1) / int64(limit),
			},
		})
	}
}

// AssignResources sets the driver and vehicle on a trip; staff only. This
// is the inbound hook from the Operations assignment flow.
func AssignResources(engine *tripengine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userType := c.GetString("userType")
		if userType != string(models.UserTypeStaff) {
			c.JSON(403, gin.H{"error": "Only staff can assign resources"})
			return
		}

		tripID, ok := tripIDParam(c)
		if !ok {
			return
		}

		var input struct {
			DriverID  uint `json:"driverId" binding:"required"`
			VehicleID uint `json:"vehicleId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		trip, err := engine.AssignResources(c.Request.Context(), tripID, input.DriverID, input.VehicleID)
		if err != nil {
			respondEngineError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Resources assigned successfully",
			"trip":    trip,
		})
	}
}

// CancelTrip terminates a scheduled or in-progress trip; staff only.
func CancelTrip(engine *tripengine.Engine, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userType := c.GetString("userType")
		if userType != string(models.UserTypeStaff) {
			c.JSON(403, gin.H{"error": "Only staff can cancel trips"})
			return
		}

		tripID, ok := tripIDParam(c)
		if !ok {
			return
		}

		trip, err := engine.CancelTrip(c.Request.Context(), tripID)
		if err != nil {
			respondEngineError(c, err)
			return
		}

		broadcastTripUpdate(hub, trip, "Trip cancelled")
		services.PublishTripUpdate(context.Background(), tripID, string(trip.Status), nil)

		c.JSON(200, gin.H{
			"message": "Trip cancelled successfully",
			"tripId":  trip.ID,
			"status":  trip.Status,
		})
	}
}

// broadcastTripUpdate pushes the trip's new state to connected ops staff.
func broadcastTripUpdate(hub *services.Hub, trip *models.Trip, message string) {
	if hub == nil || trip == nil {
		return
	}

	update := services.TripUpdate{
		TripID:   trip.ID,
		Status:   string(trip.Status),
		Progress: trip.Progress,
		Message:  message,
	}
	if trip.DriverID != nil {
		update.DriverID = *trip.DriverID
	}
	if trip.NextStop != nil {
		update.NextStop = *trip.NextStop
	}
	hub.SendTripUpdate(update)
}

// CreateVehicle registers a safari vehicle; staff only. Kept minimal — the
// fleet screens live in the staff portal, this backend just needs vehicles
// to exist for assignment.
func CreateVehicle(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userType := c.GetString("userType")
		if userType != string(models.UserTypeStaff) {
			c.JSON(403, gin.H{"error": "Only staff can register vehicles"})
			return
		}

		var input struct {
			Plate    string `json:"plate" binding:"required"`
			Make     string `json:"make" binding:"required"`
			Model    string `json:"model" binding:"required"`
			Seats    int    `json:"seats"`
			Features string `json:"features"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		vehicle := models.Vehicle{
			Plate:    input.Plate,
			Make:     input.Make,
			VehModel: input.Model,
			Seats:    input.Seats,
			Features: input.Features,
		}
		if vehicle.Seats == 0 {
			vehicle.Seats = 6
		}

		if err := db.Create(&vehicle).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to register vehicle"})
			return
		}

		c.JSON(201, vehicle)
	}
}

// GetVehicles lists registered vehicles
func GetVehicles(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var vehicles []models.Vehicle
		if err := db.Order("plate ASC").Find(&vehicles).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch vehicles"})
			return
		}
		c.JSON(200, vehicles)
	}
}
