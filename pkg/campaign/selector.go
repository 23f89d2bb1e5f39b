package campaign

import (
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-retention-engine/pkg/model"
)

// Selector matches a player against the catalog for a given risk tier.
type Selector struct {
	catalog *Catalog
}

// NewSelector creates a selector over the given catalog.
func NewSelector(catalog *Catalog) *Selector {
	return &Selector{catalog: catalog}
}

// Select returns the campaign to dispatch for a player at the given tier:
// the first active tier-matching campaign whose targeting predicates the
// player satisfies, falling back to the first active tier-matching campaign
// when none do. Returns nil when no active campaign targets the tier.
func (s *Selector) Select(level model.RiskLevel, player *model.PlayerState) *model.Campaign {
	var candidates []model.Campaign
	for _, c := range s.catalog.Active() {
		if c.RiskLevel == level {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	for i := range candidates {
		if Matches(&candidates[i], player) {
			return &candidates[i]
		}
	}

	// No predicate match: fall back to the first campaign at this tier so a
	// high-risk player is never left without an action.
	logrus.Debugf("no campaign predicates matched user %s at tier %s, using fallback %s",
		player.UserID, level, candidates[0].ID)
	return &candidates[0]
}

// Eligible returns every active campaign at the player's tier whose
// predicates the player satisfies.
func (s *Selector) Eligible(player *model.PlayerState) []model.Campaign {
	var out []model.Campaign
	for _, c := range s.catalog.Active() {
		if c.RiskLevel == player.RiskLevel && Matches(&c, player) {
			out = append(out, c)
		}
	}
	return out
}

// Matches reports whether the player satisfies the campaign's targeting
// predicates: segment membership (empty set matches everyone) and the spend
// bounds.
func Matches(c *model.Campaign, player *model.PlayerState) bool {
	if len(c.Segments) > 0 {
		found := false
		for _, seg := range c.Segments {
			if seg == player.Segment {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return player.TotalSpent >= c.MinSpending && player.TotalSpent <= c.MaxSpending
}
