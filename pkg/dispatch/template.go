package dispatch

import (
	"strconv"
	"strings"
	"time"

	"github.com/AccelByte/extend-retention-engine/pkg/model"
)

// Personalize substitutes the supported message placeholders with values
// from the player's state. This is literal find/replace, not a templating
// engine; unknown placeholders pass through untouched.
//
// Supported placeholders: {playerName}, {daysAway}, {lastScore}, {level}.
func Personalize(template string, p *model.PlayerState, now time.Time) string {
	name := p.PlayerName
	if name == "" {
		name = p.UserID
	}

	daysAway := 0
	if !p.LastActivity.IsZero() {
		daysAway = int(now.Sub(p.LastActivity).Hours() / 24)
		if daysAway < 0 {
			daysAway = 0
		}
	}

	r := strings.NewReplacer(
		"{playerName}", name,
		"{daysAway}", strconv.Itoa(daysAway),
		"{lastScore}", strconv.Itoa(p.LastScore),
		"{level}", strconv.Itoa(p.Level),
	)
	return r.Replace(template)
}
