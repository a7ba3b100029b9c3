package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kwetu-safaris/safariops-backend/internal/models"
	"github.com/kwetu-safaris/safariops-backend/internal/services"
	"github.com/kwetu-safaris/safariops-backend/internal/tripengine"
)

func driverOnly(c *gin.Context) (uint, bool) {
	driverID := c.GetUint("userId")
	if c.GetString("userType") != string(models.UserTypeDriver) {
		c.JSON(403, gin.H{"error": "Only drivers can perform this action"})
		return 0, false
	}
	return driverID, true
}

// StartTrip transitions a scheduled trip to in_progress once the
// pre-departure checklist passes. The first waypoint becomes current and
// an in-transit status update is appended.
func StartTrip(engine *tripengine.Engine, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverOnly(c)
		if !ok {
			return
		}
		tripID, ok := tripIDParam(c)
		if !ok {
			return
		}

		var input struct {
			Checklist map[string]bool `json:"checklist" binding:"required"`
			Notes     string          `json:"notes"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		trip, err := engine.StartTrip(c.Request.Context(), tripID, driverID, input.Checklist, input.Notes)
		if err != nil {
			respondEngineError(c, err)
			return
		}

		broadcastTripUpdate(hub, trip, "Trip started")
		services.PublishTripUpdate(context.Background(), tripID, string(trip.Status), nil)

		c.JSON(200, gin.H{
			"message":  "Trip started successfully",
			"tripId":   trip.ID,
			"status":   trip.Status,
			"nextStop": trip.NextStop,
		})
	}
}

// StartNavigation records a passed pre-navigation checklist. Trip status
// is untouched; the mapping app launch happens on the driver's device.
func StartNavigation(engine *tripengine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverOnly(c)
		if !ok {
			return
		}
		tripID, ok := tripIDParam(c)
		if !ok {
			return
		}

		var input struct {
			Checklist map[string]bool `json:"checklist" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if err := engine.StartNavigation(c.Request.Context(), tripID, driverID, input.Checklist); err != nil {
			respondEngineError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Navigation checklist recorded",
			"tripId":  tripID,
		})
	}
}

// DailyCheck records a daily vehicle check; it gates no transition.
func DailyCheck(engine *tripengine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverOnly(c)
		if !ok {
			return
		}
		tripID, ok := tripIDParam(c)
		if !ok {
			return
		}

		var input struct {
			Checklist map[string]bool `json:"checklist" binding:"required"`
			Notes     string          `json:"notes"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if err := engine.RecordDailyCheck(c.Request.Context(), tripID, driverID, input.Checklist, input.Notes); err != nil {
			respondEngineError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Daily check recorded",
			"tripId":  tripID,
		})
	}
}

// UpdateStatus appends a driver-reported status update. A "completed"
// status also terminates the trip and finalizes its waypoints. An "issue"
// status is pushed to ops staff for escalation.
func UpdateStatus(engine *tripengine.Engine, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverOnly(c)
		if !ok {
			return
		}
		tripID, ok := tripIDParam(c)
		if !ok {
			return
		}

		var input struct {
			Status    string   `json:"status" binding:"required"`
			Location  string   `json:"location"`
			FuelLevel *int     `json:"fuelLevel"`
			Notes     string   `json:"notes"`
			Lat       *float64 `json:"lat"`
			Lng       *float64 `json:"lng"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		statusType := models.StatusUpdateType(input.Status)
		if !models.ValidStatusUpdateType(statusType) {
			c.JSON(400, gin.H{"error": "Unknown status type"})
			return
		}
		if input.FuelLevel != nil && (*input.FuelLevel < 0 || *input.FuelLevel > 100) {
			c.JSON(400, gin.H{"error": "Fuel level must be between 0 and 100"})
			return
		}

		update, err := engine.UpdateStatus(c.Request.Context(), tripID, driverID, tripengine.StatusInput{
			Status:    statusType,
			Location:  input.Location,
			FuelLevel: input.FuelLevel,
			Notes:     input.Notes,
			Latitude:  input.Lat,
			Longitude: input.Lng,
		})
		if err != nil {
			respondEngineError(c, err)
			return
		}

		trip, _, snapErr := engine.Snapshot(tripID)
		if snapErr == nil {
			broadcastTripUpdate(hub, trip, "Status: "+input.Status)
		}
		if statusType == models.StatusUpdateIssue {
			hub.SendIssueReported(services.IssueReported{
				TripID:   tripID,
				DriverID: driverID,
				Location: input.Location,
				Notes:    input.Notes,
			})
		}
		services.PublishTripUpdate(context.Background(), tripID, input.Status, nil)

		c.JSON(201, gin.H{
			"message": "Status recorded",
			"update":  update,
		})
	}
}

// ReportIssue appends an "issue" status update with an attached photo.
// Multipart form: photo file plus location/notes fields.
func ReportIssue(engine *tripengine.Engine, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverOnly(c)
		if !ok {
			return
		}
		tripID, ok := tripIDParam(c)
		if !ok {
			return
		}

		location := c.PostForm("location")
		notes := c.PostForm("notes")

		photoURL := ""
		if file, err := c.FormFile("photo"); err == nil {
			path, uploadErr := services.UploadImage(file, "issues")
			if uploadErr != nil {
				c.JSON(500, gin.H{"error": "Failed to upload photo"})
				return
			}
			photoURL = services.GetImageURL(path)
		}

		update, err := engine.UpdateStatus(c.Request.Context(), tripID, driverID, tripengine.StatusInput{
			Status:   models.StatusUpdateIssue,
			Location: location,
			Notes:    notes,
			PhotoURL: photoURL,
		})
		if err != nil {
			respondEngineError(c, err)
			return
		}

		hub.SendIssueReported(services.IssueReported{
			TripID:   tripID,
			DriverID: driverID,
			Location: location,
			Notes:    notes,
			PhotoURL: photoURL,
		})

		c.JSON(201, gin.H{
			"message": "Issue reported",
			"update":  update,
		})
	}
}

// MarkDelayed moves an in-progress trip into the recoverable delayed state
func MarkDelayed(engine *tripengine.Engine, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverOnly(c)
		if !ok {
			return
		}
		tripID, ok := tripIDParam(c)
		if !ok {
			return
		}

		trip, err := engine.MarkDelayed(c.Request.Context(), tripID, driverID)
		if err != nil {
			respondEngineError(c, err)
			return
		}

		broadcastTripUpdate(hub, trip, "Trip delayed")
		c.JSON(200, gin.H{"message": "Trip marked delayed", "tripId": trip.ID, "status": trip.Status})
	}
}

// ResumeTrip recovers a delayed trip back to in_progress
func ResumeTrip(engine *tripengine.Engine, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverOnly(c)
		if !ok {
			return
		}
		tripID, ok := tripIDParam(c)
		if !ok {
			return
		}

		trip, err := engine.ResumeTrip(c.Request.Context(), tripID, driverID)
		if err != nil {
			respondEngineError(c, err)
			return
		}

		broadcastTripUpdate(hub, trip, "Trip resumed")
		c.JSON(200, gin.H{"message": "Trip resumed", "tripId": trip.ID, "status": trip.Status})
	}
}

// AdvanceWaypoint completes the current waypoint and promotes the next one
func AdvanceWaypoint(engine *tripengine.Engine, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverOnly(c)
		if !ok {
			return
		}
		tripID, ok := tripIDParam(c)
		if !ok {
			return
		}

		waypoint, err := engine.AdvanceWaypoint(c.Request.Context(), tripID, driverID)
		if err != nil {
			respondEngineError(c, err)
			return
		}

		trip, progress, snapErr := engine.Snapshot(tripID)
		if snapErr == nil {
			broadcastTripUpdate(hub, trip, "Arrived: "+waypoint.Name)
		}

		c.JSON(200, gin.H{
			"message":  "Waypoint advanced",
			"waypoint": waypoint,
			"progress": progress,
		})
	}
}

// SkipWaypoint marks an upcoming waypoint as skipped
func SkipWaypoint(engine *tripengine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverOnly(c)
		if !ok {
			return
		}
		tripID, ok := tripIDParam(c)
		if !ok {
			return
		}
		waypointID, err := strconv.ParseUint(c.Param("waypointId"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid waypoint ID"})
			return
		}

		if err := engine.SkipWaypoint(c.Request.Context(), tripID, uint(waypointID), driverID); err != nil {
			respondEngineError(c, err)
			return
		}

		c.JSON(200, gin.H{"message": "Waypoint skipped", "waypointId": waypointID})
	}
}

// CompleteWaypoint explicitly completes a named waypoint, used when a
// driver jumps ahead of the planned order
func CompleteWaypoint(engine *tripengine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverOnly(c)
		if !ok {
			return
		}
		tripID, ok := tripIDParam(c)
		if !ok {
			return
		}
		waypointID, err := strconv.ParseUint(c.Param("waypointId"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid waypoint ID"})
			return
		}

		if err := engine.CompleteWaypoint(c.Request.Context(), tripID, uint(waypointID), driverID); err != nil {
			respondEngineError(c, err)
			return
		}

		c.JSON(200, gin.H{"message": "Waypoint completed", "waypointId": waypointID})
	}
}
