package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/validation"
)

type fakePersons struct {
	candidates []models.Person
	failFor    map[string]error // keyed by record source id
}

func (f *fakePersons) FindCandidates(_ context.Context, _ string, record *models.ContactRecord, _ int) ([]models.Person, error) {
	if err, ok := f.failFor[record.SourceID]; ok {
		return nil, err
	}
	return f.candidates, nil
}

type fakeDecisions struct {
	created  []*models.Decision
	existing map[string]bool
}

func (f *fakeDecisions) Create(_ context.Context, decision *models.Decision) error {
	f.created = append(f.created, decision)
	return nil
}

func (f *fakeDecisions) ExistsForRecord(_ context.Context, _ string, sourceID string) (bool, error) {
	return f.existing[sourceID], nil
}

type fakeDebts struct {
	created   []*models.Debt
	createErr error
}

func (f *fakeDebts) Create(_ context.Context, debt *models.Debt) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, debt)
	return nil
}

type fakeNotifier struct {
	made []*models.Decision
}

func (f *fakeNotifier) DecisionMade(_ context.Context, decision *models.Decision) {
	f.made = append(f.made, decision)
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func strPtr(s string) *string { return &s }

func testCriteria() []models.MatchCriterion {
	return []models.MatchCriterion{
		{ID: "c1", Name: "rut", Field: models.FieldRUT, Mode: models.CriterionModeNormalized, Weight: 100, Normalizer: strPtr("nrut")},
		{ID: "c2", Name: "email", Field: models.FieldEmail, Mode: models.CriterionModeFuzzy, Weight: 80, Threshold: 0.9},
		{ID: "c3", Name: "name", Field: models.FieldFullName, Mode: models.CriterionModeFuzzy, Weight: 50, Threshold: 0.8},
	}
}

func testPerson() models.Person {
	return models.Person{
		ID:       "p1",
		TenantID: "t1",
		RUT:      "12.345.678-5",
		FullName: "Juan Pérez",
		Email:    "juan.perez@example.com",
		Phone:    "912345678",
	}
}

func perfectRecord(sourceID string) models.ContactRecord {
	return models.ContactRecord{
		SourceID: sourceID,
		Source:   "csv-upload",
		Fields: map[string]string{
			models.FieldFullName: "Juan Pérez",
			models.FieldRUT:      "12345678-5",
			models.FieldEmail:    "juan.perez@example.com",
			models.FieldAmount:   "150000",
			models.FieldDueDate:  "2026-09-30",
		},
	}
}

func newTestOrchestrator(persons *fakePersons, decisions *fakeDecisions, debts *fakeDebts) *Orchestrator {
	logger := testLogger()
	return NewOrchestrator(logger, matching.NewEngine(logger), validation.New(), persons, decisions, debts, nil)
}

func TestProcessBatchAutoAssign(t *testing.T) {
	persons := &fakePersons{candidates: []models.Person{testPerson()}}
	decisions := &fakeDecisions{existing: map[string]bool{}}
	debts := &fakeDebts{}
	orch := newTestOrchestrator(persons, decisions, debts)

	records := []models.ContactRecord{perfectRecord("r1")}

	summary, err := orch.ProcessBatch(context.Background(), "t1", records, testCriteria())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 1, summary.AutoAssigned)
	assert.Empty(t, summary.Errors)

	require.Len(t, decisions.created, 1)
	decision := decisions.created[0]
	assert.Equal(t, models.DispositionAutoAssigned, decision.Disposition)
	assert.Equal(t, models.BandExcellent, decision.Band)
	require.NotNil(t, decision.PersonID)
	assert.Equal(t, "p1", *decision.PersonID)
	assert.InDelta(t, 100.0, decision.Confidence, 0.001)

	require.Len(t, debts.created, 1)
	debt := debts.created[0]
	assert.Equal(t, "p1", debt.PersonID)
	assert.Equal(t, 150000.0, debt.Amount)
	require.NotNil(t, debt.DueDate)
	assert.Equal(t, "2026-09-30", debt.DueDate.Format("2006-01-02"))
}

func TestProcessBatchIsolatesLookupFailure(t *testing.T) {
	persons := &fakePersons{
		candidates: []models.Person{testPerson()},
		failFor:    map[string]error{"r2": errors.New("registry timeout")},
	}
	decisions := &fakeDecisions{existing: map[string]bool{}}
	orch := newTestOrchestrator(persons, decisions, &fakeDebts{})

	records := []models.ContactRecord{perfectRecord("r1"), perfectRecord("r2"), perfectRecord("r3")}

	summary, err := orch.ProcessBatch(context.Background(), "t1", records, testCriteria())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.Decided())
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "r2", summary.Errors[0].SourceID)
	assert.Equal(t, models.StageLookup, summary.Errors[0].Stage)
	assert.Equal(t, 1, summary.Errors[0].Index)
}

func TestProcessBatchSkipsAlreadyDecided(t *testing.T) {
	persons := &fakePersons{candidates: []models.Person{testPerson()}}
	decisions := &fakeDecisions{existing: map[string]bool{"r1": true}}
	orch := newTestOrchestrator(persons, decisions, &fakeDebts{})

	records := []models.ContactRecord{perfectRecord("r1"), perfectRecord("r2")}

	summary, err := orch.ProcessBatch(context.Background(), "t1", records, testCriteria())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.AutoAssigned)
	require.Len(t, decisions.created, 1)
	assert.Equal(t, "r2", decisions.created[0].SourceID)
}

func TestProcessBatchDowngradesSecondClaim(t *testing.T) {
	persons := &fakePersons{candidates: []models.Person{testPerson()}}
	decisions := &fakeDecisions{existing: map[string]bool{}}
	debts := &fakeDebts{}
	orch := newTestOrchestrator(persons, decisions, debts)

	records := []models.ContactRecord{perfectRecord("r1"), perfectRecord("r2")}

	summary, err := orch.ProcessBatch(context.Background(), "t1", records, testCriteria())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.AutoAssigned)
	assert.Equal(t, 1, summary.NeedsReview)
	require.Len(t, decisions.created, 2)
	assert.Equal(t, models.DispositionAutoAssigned, decisions.created[0].Disposition)
	assert.Equal(t, models.DispositionNeedsReview, decisions.created[1].Disposition)
	assert.Len(t, debts.created, 1)
}

func TestProcessBatchDebtFailureCountsAsError(t *testing.T) {
	persons := &fakePersons{candidates: []models.Person{testPerson()}}
	decisions := &fakeDecisions{existing: map[string]bool{}}
	debts := &fakeDebts{createErr: errors.New("debts table unavailable")}
	notifier := &fakeNotifier{}
	logger := testLogger()
	orch := NewOrchestrator(logger, matching.NewEngine(logger), validation.New(), persons, decisions, debts, notifier)

	records := []models.ContactRecord{perfectRecord("r1")}

	summary, err := orch.ProcessBatch(context.Background(), "t1", records, testCriteria())
	require.NoError(t, err)

	// the record errored; it must not also count as assigned or be announced
	assert.Equal(t, 0, summary.AutoAssigned)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "r1", summary.Errors[0].SourceID)
	assert.Equal(t, models.StagePersist, summary.Errors[0].Stage)
	assert.Empty(t, notifier.made)
}

func TestProcessBatchValidationFailure(t *testing.T) {
	persons := &fakePersons{candidates: []models.Person{testPerson()}}
	decisions := &fakeDecisions{existing: map[string]bool{}}
	orch := newTestOrchestrator(persons, decisions, &fakeDebts{})

	records := []models.ContactRecord{
		{SourceID: "bad", Fields: map[string]string{models.FieldFullName: "J. Perez"}},
	}

	summary, err := orch.ProcessBatch(context.Background(), "t1", records, testCriteria())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Decided())
	assert.NotEmpty(t, summary.ValidationErrors)
	assert.Equal(t, models.StageValidate, summary.ValidationErrors[0].Stage)
	assert.Empty(t, decisions.created)
}

func TestProcessBatchRejectsWithoutCandidates(t *testing.T) {
	persons := &fakePersons{candidates: nil}
	decisions := &fakeDecisions{existing: map[string]bool{}}
	orch := newTestOrchestrator(persons, decisions, &fakeDebts{})

	records := []models.ContactRecord{perfectRecord("r1")}

	summary, err := orch.ProcessBatch(context.Background(), "t1", records, testCriteria())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Matched)
	assert.Equal(t, 1, summary.Rejected)
	require.Len(t, decisions.created, 1)
	decision := decisions.created[0]
	assert.Equal(t, models.DispositionRejected, decision.Disposition)
	assert.Equal(t, models.BandNone, decision.Band)
	assert.Nil(t, decision.PersonID)
}

func TestProcessBatchAbortsOnBadCriteria(t *testing.T) {
	orch := newTestOrchestrator(&fakePersons{}, &fakeDecisions{existing: map[string]bool{}}, &fakeDebts{})

	summary, err := orch.ProcessBatch(context.Background(), "t1", []models.ContactRecord{perfectRecord("r1")}, nil)
	require.Error(t, err)
	assert.Nil(t, summary)

	var cfgErr *models.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
