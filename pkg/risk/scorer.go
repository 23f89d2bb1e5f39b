// Package risk derives a continuous churn-risk score per player from recent
// activity and classifies it into a risk tier.
//
// The score is a weighted sum of four factors over the most recent activity
// window: recency (0.4), session frequency (0.3), spending (0.2), and
// engagement (0.1). Scores range from 0.0 (safe) to 1.0 (high risk).
package risk

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-retention-engine/pkg/model"
	"github.com/AccelByte/extend-retention-engine/pkg/store"
)

const (
	// ActivityWindow is how many recent events feed one score.
	ActivityWindow = 100

	recencyWeight    = 0.4
	frequencyWeight  = 0.3
	spendingWeight   = 0.2
	engagementWeight = 0.1

	// maxRecencyDays is the inactivity span at which the recency factor
	// saturates.
	maxRecencyDays = 7.0

	// maxSpending is the spend amount at which the spending factor bottoms
	// out.
	maxSpending = 100.0

	// maxGameEvents is the event count at which the engagement count score
	// saturates.
	maxGameEvents = 100.0

	// maxSessionSeconds is the average session duration (30 minutes) at
	// which the engagement duration score saturates.
	maxSessionSeconds = 1800.0

	// neutralScore is returned when the activity log cannot be read. The
	// scan must not stall on one bad record, so read failures score neutral
	// instead of propagating.
	neutralScore = 0.5
)

// Scorer computes churn-risk scores from the durable activity log.
type Scorer struct {
	store store.Store
}

// NewScorer creates a scorer backed by the given store.
func NewScorer(s store.Store) *Scorer {
	return &Scorer{store: s}
}

// Score computes the churn-risk score for a player, in [0,1]. A player with
// no recorded activity scores 1.0 (maximum risk). Store read errors score
// the neutral default 0.5.
func (s *Scorer) Score(ctx context.Context, userID string) float64 {
	events, err := s.store.RecentActivity(ctx, userID, ActivityWindow)
	if err != nil {
		logrus.Errorf("failed to read activity for user %s, scoring neutral: %v", userID, err)
		return neutralScore
	}
	return ScoreEvents(events, time.Now())
}

// ScoreEvents computes the risk score from a window of events, newest first.
func ScoreEvents(events []model.ActivityEvent, now time.Time) float64 {
	if len(events) == 0 {
		return 1.0
	}

	score := recencyFactor(events, now) +
		frequencyFactor(events, now) +
		spendingFactor(events) +
		engagementFactor(events)

	return clip(score, 0, 1)
}

// recencyFactor grows linearly with days since the last event, saturating at
// a week of silence.
func recencyFactor(events []model.ActivityEvent, now time.Time) float64 {
	daysSince := now.Sub(events[0].Timestamp).Hours() / 24
	return clip(daysSince/maxRecencyDays, 0, 1) * recencyWeight
}

// frequencyFactor penalizes players with few sessions relative to the span of
// their recent activity. Fewer than two observed session starts counts as
// zero frequency.
func frequencyFactor(events []model.ActivityEvent, now time.Time) float64 {
	sessionCount := 0
	for _, ev := range events {
		if ev.Type == model.ActivitySessionStart {
			sessionCount++
		}
	}

	sessionFrequency := 0.0
	if sessionCount >= 2 {
		oldest := events[len(events)-1].Timestamp
		newest := events[0].Timestamp
		spanDays := newest.Sub(oldest).Hours() / 24
		if spanDays < 1 {
			spanDays = 1
		}
		sessionFrequency = clip(float64(sessionCount)/spanDays, 0, 1)
	}

	return (1 - sessionFrequency) * frequencyWeight
}

// spendingFactor penalizes low spenders, bottoming out at maxSpending.
func spendingFactor(events []model.ActivityEvent) float64 {
	totalSpent := 0.0
	for _, ev := range events {
		if ev.Type == model.ActivityPurchase {
			totalSpent += ev.Amount
		}
	}
	return (1 - clip(totalSpent/maxSpending, 0, 1)) * spendingWeight
}

// engagementFactor blends game-event volume with average session duration.
// Sessions are paired from consecutive start/end events; unterminated
// sessions are ignored.
func engagementFactor(events []model.ActivityEvent) float64 {
	gameEvents := 0
	for _, ev := range events {
		if ev.Type == model.ActivityGameEvent {
			gameEvents++
		}
	}
	eventCountScore := clip(float64(gameEvents)/maxGameEvents, 0, 1)

	var totalDuration time.Duration
	sessions := 0
	var openStart *time.Time
	// Events arrive newest first; walk oldest to newest to pair sessions.
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		switch ev.Type {
		case model.ActivitySessionStart:
			ts := ev.Timestamp
			openStart = &ts
		case model.ActivitySessionEnd:
			if openStart != nil && ev.Timestamp.After(*openStart) {
				totalDuration += ev.Timestamp.Sub(*openStart)
				sessions++
			}
			openStart = nil
		}
	}

	durationScore := 0.0
	if sessions > 0 {
		avgSeconds := totalDuration.Seconds() / float64(sessions)
		durationScore = clip(avgSeconds/maxSessionSeconds, 0, 1)
	}

	return (1 - (eventCountScore+durationScore)/2) * engagementWeight
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
