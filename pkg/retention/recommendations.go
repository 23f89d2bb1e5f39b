package retention

import "github.com/AccelByte/extend-retention-engine/pkg/model"

// RecommendationsFor returns the fixed intervention playbook for a risk
// tier. These are operator-facing suggestions, not automated actions.
func RecommendationsFor(level model.RiskLevel) []string {
	switch level {
	case model.RiskHigh:
		return []string{
			"Send immediate discount offer",
			"Grant comeback bonus",
			"Send push notification",
		}
	case model.RiskMedium:
		return []string{
			"Promote engagement content",
			"Offer limited-time discount",
			"Invite to social challenge",
		}
	default:
		return []string{
			"Maintain engagement cadence",
			"Promote premium features",
			"Suggest achievement goals",
		}
	}
}
