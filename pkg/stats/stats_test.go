package stats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

type fakeDecisionReader struct {
	decisions []models.Decision
	err       error
}

func (f *fakeDecisionReader) ListWindow(_ context.Context, _ string, _, _ time.Time) ([]models.Decision, error) {
	return f.decisions, f.err
}

type fakeDebtReader struct {
	amount float64
	err    error
}

func (f *fakeDebtReader) TotalAmount(_ context.Context, _ string, _, _ time.Time) (float64, error) {
	return f.amount, f.err
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func decision(disposition models.Disposition, confidence float64, personID string, criteria ...string) models.Decision {
	d := models.Decision{
		Disposition: disposition,
		Confidence:  confidence,
	}
	if personID != "" {
		d.PersonID = &personID
	}
	matched, _ := json.Marshal(criteria)
	d.MatchedCriteria = matched
	return d
}

func TestWindowAggregates(t *testing.T) {
	decisions := &fakeDecisionReader{decisions: []models.Decision{
		decision(models.DispositionAutoAssigned, 100, "p1", "rut", "email", "name"),
		decision(models.DispositionAutoAssigned, 96, "p2", "rut", "name"),
		decision(models.DispositionNeedsReview, 82, "p3", "email", "name"),
		decision(models.DispositionRejected, 40, ""),
	}}
	svc := NewService(testLogger(), decisions, &fakeDebtReader{amount: 275000})

	report, err := svc.Window(context.Background(), "t1", time.Time{}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.AutoAssigned)
	assert.Equal(t, 1, report.NeedsReview)
	assert.Equal(t, 1, report.Rejected)
	assert.InDelta(t, 0.75, report.MatchRate, 0.001)
	assert.InDelta(t, (100+96+82+40)/4.0, report.AvgConfidence, 0.001)
	assert.Equal(t, 275000.0, report.DebtAmount)

	require.Len(t, report.TopCriteria, 3)
	assert.Equal(t, CriterionCount{Name: "name", Count: 3}, report.TopCriteria[0])
	// ties break alphabetically
	assert.Equal(t, CriterionCount{Name: "email", Count: 2}, report.TopCriteria[1])
	assert.Equal(t, CriterionCount{Name: "rut", Count: 2}, report.TopCriteria[2])
}

func TestWindowEmpty(t *testing.T) {
	svc := NewService(testLogger(), &fakeDecisionReader{}, &fakeDebtReader{})

	report, err := svc.Window(context.Background(), "t1", time.Time{}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Total)
	assert.Zero(t, report.MatchRate)
	assert.Zero(t, report.AvgConfidence)
	assert.Empty(t, report.TopCriteria)
}

func TestWindowPropagatesReaderError(t *testing.T) {
	svc := NewService(testLogger(), &fakeDecisionReader{err: errors.New("db down")}, &fakeDebtReader{})

	report, err := svc.Window(context.Background(), "t1", time.Time{}, time.Now())
	assert.Error(t, err)
	assert.Nil(t, report)
}
