package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name        string
		confidence  float64
		disposition models.Disposition
		band        models.ConfidenceBand
	}{
		{name: "exactly excellent", confidence: 95, disposition: models.DispositionAutoAssigned, band: models.BandExcellent},
		{name: "just under excellent", confidence: 94.9, disposition: models.DispositionNeedsReview, band: models.BandGood},
		{name: "exactly good", confidence: 80, disposition: models.DispositionNeedsReview, band: models.BandGood},
		{name: "exactly fair", confidence: 60, disposition: models.DispositionNeedsReview, band: models.BandFair},
		{name: "just under fair", confidence: 59.9, disposition: models.DispositionRejected, band: models.BandNone},
		{name: "perfect", confidence: 100, disposition: models.DispositionAutoAssigned, band: models.BandExcellent},
		{name: "zero", confidence: 0, disposition: models.DispositionRejected, band: models.BandNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disposition, band := Route(tt.confidence)
			assert.Equal(t, tt.disposition, disposition)
			assert.Equal(t, tt.band, band)
		})
	}
}
