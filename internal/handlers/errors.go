package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/kwetu-safaris/safariops-backend/internal/tripengine"
)

// respondEngineError maps the engine's typed errors onto HTTP responses.
// Everything the engine returns is scoped to a single trip operation;
// nothing here is fatal.
func respondEngineError(c *gin.Context, err error) {
	var gateErr *tripengine.GateBlockedError
	if errors.As(err, &gateErr) {
		c.JSON(422, gin.H{
			"error":         "Checklist incomplete",
			"checklistType": gateErr.ChecklistType,
			"missingFields": gateErr.MissingFields,
		})
		return
	}

	var transitionErr *tripengine.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		c.JSON(409, gin.H{"error": transitionErr.Error()})
		return
	}

	var stateErr *tripengine.InvalidStateError
	if errors.As(err, &stateErr) {
		c.JSON(409, gin.H{"error": stateErr.Error()})
		return
	}

	var notFoundErr *tripengine.NotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(404, gin.H{"error": notFoundErr.Error()})
		return
	}

	var authErr *tripengine.AuthorizationError
	if errors.As(err, &authErr) {
		c.JSON(403, gin.H{"error": "Unauthorized to act on this trip"})
		return
	}

	c.JSON(500, gin.H{"error": "Operation failed"})
}
