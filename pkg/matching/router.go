package matching

import "github.com/Ramsey-B/fern/pkg/models"

// Confidence thresholds (inclusive lower bounds), checked top-down.
const (
	ThresholdExcellent = 95.0 // auto-assign
	ThresholdGood      = 80.0 // review optional, still queued
	ThresholdFair      = 60.0 // review required
)

// Route classifies a confidence into a disposition and its band. Exactly one
// boundary check fires; a confidence sitting exactly on a threshold rounds
// into the higher bucket.
func Route(confidence float64) (models.Disposition, models.ConfidenceBand) {
	switch {
	case confidence >= ThresholdExcellent:
		return models.DispositionAutoAssigned, models.BandExcellent
	case confidence >= ThresholdGood:
		return models.DispositionNeedsReview, models.BandGood
	case confidence >= ThresholdFair:
		return models.DispositionNeedsReview, models.BandFair
	default:
		return models.DispositionRejected, models.BandNone
	}
}
