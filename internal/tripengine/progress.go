package tripengine

import (
	"math"
	"strconv"
	"strings"

	"github.com/kwetu-safaris/safariops-backend/internal/models"
)

// ParseDistanceKm extracts the leading number from a "12 km"-style string.
// Malformed or missing values contribute 0.
func ParseDistanceKm(s *string) float64 {
	if s == nil {
		return 0
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return 0
	}

	end := 0
	for end < len(trimmed) {
		c := trimmed[end]
		if (c >= '0' && c <= '9') || c == '.' {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0
	}

	value, err := strconv.ParseFloat(trimmed[:end], 64)
	if err != nil {
		return 0
	}
	return value
}

// TripProgress is the derived view of how far along a trip is. It is
// always recomputed from the waypoint list, never stored as the source of
// truth.
type TripProgress struct {
	Percentage        int     `json:"percentage"`
	CompletedCount    int     `json:"completedCount"`
	TotalCount        int     `json:"totalCount"`
	CompletedDistance float64 `json:"completedDistanceKm"`
	TotalDistance     float64 `json:"totalDistanceKm"`
	NextStop          *string `json:"nextStop,omitempty"`
}

// ComputeProgress derives the percentage-complete and distance aggregates
// from the waypoint list. Percentage is completed/total rounded to the
// nearest integer and clamped to [0, 100]; an empty list yields 0.
func ComputeProgress(waypoints []models.Waypoint) TripProgress {
	var p TripProgress
	p.TotalCount = len(waypoints)

	for i := range waypoints {
		wp := &waypoints[i]
		distance := ParseDistanceKm(wp.DistanceFromPrevious)
		p.TotalDistance += distance

		switch wp.Status {
		case models.WaypointStatusCompleted:
			p.CompletedCount++
			p.CompletedDistance += distance
		case models.WaypointStatusCurrent:
			name := wp.Name
			p.NextStop = &name
		}
	}

	if p.TotalCount == 0 {
		return p
	}

	pct := int(math.Round(float64(p.CompletedCount) / float64(p.TotalCount) * 100))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	p.Percentage = pct
	return p
}
