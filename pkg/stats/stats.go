// Package stats aggregates reconciliation outcomes over a time window
package stats

import (
	"context"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// DecisionReader lists decisions inside a window.
type DecisionReader interface {
	ListWindow(ctx context.Context, tenantID string, since, until time.Time) ([]models.Decision, error)
}

// DebtReader sums the obligations created inside a window.
type DebtReader interface {
	TotalAmount(ctx context.Context, tenantID string, since, until time.Time) (float64, error)
}

// CriterionCount is how often one criterion contributed to a match.
type CriterionCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Report is the aggregated view of a decision window.
type Report struct {
	TenantID      string           `json:"tenant_id"`
	Since         time.Time        `json:"since"`
	Until         time.Time        `json:"until"`
	Total         int              `json:"total"`
	AutoAssigned  int              `json:"auto_assigned"`
	NeedsReview   int              `json:"needs_review"`
	Rejected      int              `json:"rejected"`
	MatchRate     float64          `json:"match_rate"`     // decided-to-person share of total, in [0,1]
	AvgConfidence float64          `json:"avg_confidence"` // over all decisions in the window
	TopCriteria   []CriterionCount `json:"top_criteria"`
	DebtAmount    float64          `json:"debt_amount"` // total auto-assigned obligation value
}

// Service computes reconciliation statistics.
type Service struct {
	logger    ectologger.Logger
	decisions DecisionReader
	debts     DebtReader
}

// NewService creates a new stats service
func NewService(logger ectologger.Logger, decisions DecisionReader, debts DebtReader) *Service {
	return &Service{
		logger:    logger,
		decisions: decisions,
		debts:     debts,
	}
}

// Window aggregates every decision made for a tenant in [since, until).
func (s *Service) Window(ctx context.Context, tenantID string, since, until time.Time) (*Report, error) {
	ctx, span := tracing.StartSpan(ctx, "stats.Service.Window")
	defer span.End()

	decisions, err := s.decisions.ListWindow(ctx, tenantID, since, until)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to list decisions for stats window")
		return nil, err
	}

	report := &Report{
		TenantID: tenantID,
		Since:    since,
		Until:    until,
		Total:    len(decisions),
	}

	criteriaCounts := make(map[string]int)
	confidenceSum := 0.0
	matched := 0

	for i := range decisions {
		d := &decisions[i]
		confidenceSum += d.Confidence

		switch d.Disposition {
		case models.DispositionAutoAssigned:
			report.AutoAssigned++
		case models.DispositionNeedsReview:
			report.NeedsReview++
		case models.DispositionRejected:
			report.Rejected++
		}

		if d.PersonID != nil {
			matched++
		}

		for _, name := range d.MatchedCriteriaNames() {
			criteriaCounts[name]++
		}
	}

	if report.Total > 0 {
		report.MatchRate = float64(matched) / float64(report.Total)
		report.AvgConfidence = confidenceSum / float64(report.Total)
	}

	report.TopCriteria = rankCriteria(criteriaCounts)

	amount, err := s.debts.TotalAmount(ctx, tenantID, since, until)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to total debt amounts for stats window")
		return nil, err
	}
	report.DebtAmount = amount

	return report, nil
}

// rankCriteria orders criterion counts descending, name ascending on ties so
// the ranking is stable across runs.
func rankCriteria(counts map[string]int) []CriterionCount {
	ranked := make([]CriterionCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, CriterionCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}
