package review

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

type fakeDecisions struct {
	byID    map[string]*models.Decision
	created []*models.Decision
	debts   []*models.Debt
}

func (f *fakeDecisions) Get(_ context.Context, _ string, id string) (*models.Decision, error) {
	if d, ok := f.byID[id]; ok {
		return d, nil
	}
	return nil, httperror.NewHTTPError(404, "decision not found")
}

func (f *fakeDecisions) Create(_ context.Context, decision *models.Decision) error {
	f.created = append(f.created, decision)
	return nil
}

func (f *fakeDecisions) CreateWithDebt(_ context.Context, decision *models.Decision, debt *models.Debt) error {
	f.created = append(f.created, decision)
	f.debts = append(f.debts, debt)
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func pendingDecision() *models.Decision {
	personID := "p1"
	record := models.ContactRecord{
		SourceID: "r1",
		Source:   "csv-upload",
		Fields: map[string]string{
			models.FieldFullName: "Juan Pérez",
			models.FieldRUT:      "12345678-5",
			models.FieldAmount:   "89000.50",
			models.FieldDueDate:  "2026-10-15",
		},
	}
	raw, _ := json.Marshal(&record)
	matched, _ := json.Marshal([]string{"rut", "name"})

	return &models.Decision{
		ID:              "d1",
		TenantID:        "t1",
		SourceID:        "r1",
		Source:          "csv-upload",
		PersonID:        &personID,
		Disposition:     models.DispositionNeedsReview,
		Band:            models.BandGood,
		Confidence:      86.5,
		MatchedCriteria: matched,
		RawRecord:       raw,
	}
}

func TestApprove(t *testing.T) {
	decisions := &fakeDecisions{byID: map[string]*models.Decision{"d1": pendingDecision()}}
	svc := NewService(testLogger(), decisions, nil)

	approved, err := svc.Approve(context.Background(), "t1", "d1", "reviewer@fern")
	require.NoError(t, err)

	assert.Equal(t, models.DispositionAutoAssigned, approved.Disposition)
	assert.NotEqual(t, "d1", approved.ID)
	assert.Equal(t, "r1", approved.SourceID)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, "reviewer@fern", *approved.ReviewedBy)

	// the original row is untouched; the verdict is a new row
	require.Len(t, decisions.created, 1)
	assert.Equal(t, models.DispositionNeedsReview, decisions.byID["d1"].Disposition)

	require.Len(t, decisions.debts, 1)
	debt := decisions.debts[0]
	assert.Equal(t, "p1", debt.PersonID)
	assert.Equal(t, 89000.50, debt.Amount)
	require.NotNil(t, debt.DueDate)
	assert.Equal(t, "2026-10-15", debt.DueDate.Format("2006-01-02"))
	assert.InDelta(t, 86.5, debt.Confidence, 0.001)
}

func TestApproveRejectsNonPending(t *testing.T) {
	decision := pendingDecision()
	decision.Disposition = models.DispositionRejected
	decisions := &fakeDecisions{byID: map[string]*models.Decision{"d1": decision}}
	svc := NewService(testLogger(), decisions, nil)

	_, err := svc.Approve(context.Background(), "t1", "d1", "reviewer@fern")
	require.Error(t, err)
	assert.Equal(t, 409, httperror.GetStatusCode(err))
}

func TestApproveRequiresMatchedPerson(t *testing.T) {
	decision := pendingDecision()
	decision.PersonID = nil
	decisions := &fakeDecisions{byID: map[string]*models.Decision{"d1": decision}}
	svc := NewService(testLogger(), decisions, nil)

	_, err := svc.Approve(context.Background(), "t1", "d1", "reviewer@fern")
	require.Error(t, err)
	assert.Equal(t, 409, httperror.GetStatusCode(err))
}

func TestDiscard(t *testing.T) {
	decisions := &fakeDecisions{byID: map[string]*models.Decision{"d1": pendingDecision()}}
	svc := NewService(testLogger(), decisions, nil)

	discarded, err := svc.Discard(context.Background(), "t1", "d1", "reviewer@fern")
	require.NoError(t, err)

	assert.Equal(t, models.DispositionRejected, discarded.Disposition)
	assert.Nil(t, discarded.PersonID)
	require.NotNil(t, discarded.ReviewedBy)
	assert.Empty(t, decisions.debts)
}

func TestDiscardUnknownDecision(t *testing.T) {
	decisions := &fakeDecisions{byID: map[string]*models.Decision{}}
	svc := NewService(testLogger(), decisions, nil)

	_, err := svc.Discard(context.Background(), "t1", "missing", "reviewer@fern")
	assert.Error(t, err)
}
