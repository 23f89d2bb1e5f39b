package risk

import "github.com/AccelByte/extend-retention-engine/pkg/model"

// Default thresholds for risk tiers. Both bounds are inclusive on the lower
// edge of their tier.
const (
	DefaultHighThreshold   = 0.8
	DefaultMediumThreshold = 0.5
)

// Classifier maps a risk score onto a risk tier. Classification is pure and
// deterministic: the tier is always a function of the score alone.
type Classifier struct {
	high   float64
	medium float64
}

// NewClassifier creates a classifier with the given inclusive lower bounds
// for the high and medium tiers.
func NewClassifier(high, medium float64) *Classifier {
	return &Classifier{high: high, medium: medium}
}

// NewDefaultClassifier creates a classifier with the default thresholds.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(DefaultHighThreshold, DefaultMediumThreshold)
}

// Classify returns the risk tier for a score.
func (c *Classifier) Classify(score float64) model.RiskLevel {
	switch {
	case score >= c.high:
		return model.RiskHigh
	case score >= c.medium:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}
