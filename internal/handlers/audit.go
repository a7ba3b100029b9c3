package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kwetu-safaris/safariops-backend/internal/models"
	"github.com/kwetu-safaris/safariops-backend/internal/tripengine"
)

func limitQuery(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	return limit
}

// GetStatusHistory returns the trip's status updates newest-first
func GetStatusHistory(engine *tripengine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripID, ok := tripIDParam(c)
		if !ok {
			return
		}

		updates, err := engine.ListStatusUpdates(tripID, limitQuery(c))
		if err != nil {
			respondEngineError(c, err)
			return
		}

		c.JSON(200, gin.H{"tripId": tripID, "updates": updates})
	}
}

// AppendCommunication records a driver-customer contact event. The actual
// call/SMS/email is dispatched on the driver's device; this is the audit
// record of intent.
func AppendCommunication(engine *tripengine.Engine) gin.HandlerFunc {
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
			CommunicationType string  `json:"communicationType" binding:"required"`
			Message           *string `json:"message"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		commType := models.CommunicationType(input.CommunicationType)
		if !models.ValidCommunicationType(commType) {
			c.JSON(400, gin.H{"error": "Unknown communication type"})
			return
		}

		comm, err := engine.AppendCommunication(c.Request.Context(), tripID, driverID, commType, input.Message)
		if err != nil {
			respondEngineError(c, err)
			return
		}

		c.JSON(201, gin.H{
			"message":       "Communication recorded",
			"communication": comm,
		})
	}
}

// GetCommunications returns the trip's communication log newest-first
func GetCommunications(engine *tripengine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripID, ok := tripIDParam(c)
		if !ok {
			return
		}

		comms, err := engine.ListCommunications(tripID, limitQuery(c))
		if err != nil {
			respondEngineError(c, err)
			return
		}

		c.JSON(200, gin.H{"tripId": tripID, "communications": comms})
	}
}
