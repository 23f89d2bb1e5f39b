package retention

import (
	"context"
	"time"

	"github.com/AccelByte/extend-retention-engine/pkg/model"
	"github.com/AccelByte/extend-retention-engine/pkg/store"
)

// ActiveWindow separates active players from at-risk ones: a player whose
// last activity is older than this is a candidate for intervention.
const ActiveWindow = 24 * time.Hour

// Aggregator computes cohort-level retention metrics from the durable store.
// It reads independently of the write path.
type Aggregator struct {
	store store.Store
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(s store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// Metrics computes the retention snapshot at now. Rates are 0 for an empty
// cohort.
func (a *Aggregator) Metrics(ctx context.Context, now time.Time) (*model.RetentionMetrics, error) {
	total, active, atRisk, churned, err := a.store.CountPlayers(ctx, now.Add(-ActiveWindow))
	if err != nil {
		return nil, err
	}

	m := &model.RetentionMetrics{
		TotalPlayers:   total,
		ActivePlayers:  active,
		AtRiskPlayers:  atRisk,
		ChurnedPlayers: churned,
	}
	if total > 0 {
		m.RetentionRate = float64(active) / float64(total)
		m.ChurnRate = float64(churned) / float64(total)
	}
	return m, nil
}
