// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package scheduler runs the engine's periodic sweeps: the at-risk scan, the
// campaign sweep, and the player-state refresh.
package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-retention-engine/pkg/campaign"
	"github.com/AccelByte/extend-retention-engine/pkg/common"
	"github.com/AccelByte/extend-retention-engine/pkg/dispatch"
	"github.com/AccelByte/extend-retention-engine/pkg/metrics"
	"github.com/AccelByte/extend-retention-engine/pkg/model"
	"github.com/AccelByte/extend-retention-engine/pkg/risk"
	"github.com/AccelByte/extend-retention-engine/pkg/store"
)

// Sweep cadence and lifecycle defaults.
const (
	DefaultAtRiskInterval   = 30 * time.Minute
	DefaultCampaignInterval = time.Hour
	DefaultRefreshInterval  = 5 * time.Minute

	// DefaultInactiveAfter is how long without activity before the at-risk
	// scan picks a player up for rescoring.
	DefaultInactiveAfter = 24 * time.Hour

	// DefaultChurnAfterDays is how many days of silence before a player is
	// marked churned.
	DefaultChurnAfterDays = 30

	// refreshBatchSize caps how many events one state-refresh pass folds in.
	refreshBatchSize = 1000
)

// Sweeper implements the three periodic sweeps. Each sweep processes every
// candidate independently: a failure on one player or campaign is logged and
// the sweep moves on.
type Sweeper struct {
	store      store.Store
	scorer     *risk.Scorer
	classifier *risk.Classifier
	catalog    *campaign.Catalog
	selector   *campaign.Selector
	dispatcher *dispatch.Dispatcher

	inactiveAfter time.Duration
	churnAfter    time.Duration

	// cursor is the last activity-event id folded into player state. The
	// refresh sweep is the only writer.
	cursor uint
}

// SweeperConfig carries the sweeper's collaborators and tunables.
type SweeperConfig struct {
	Store      store.Store
	Scorer     *risk.Scorer
	Classifier *risk.Classifier
	Catalog    *campaign.Catalog
	Selector   *campaign.Selector
	Dispatcher *dispatch.Dispatcher

	// InactiveAfter defaults to DefaultInactiveAfter when zero.
	InactiveAfter time.Duration

	// ChurnAfterDays defaults to DefaultChurnAfterDays when zero.
	ChurnAfterDays int
}

// NewSweeper creates a sweeper and initializes the refresh cursor at the
// current tail of the activity log, so a restart does not re-fold events that
// were already applied.
func NewSweeper(ctx context.Context, cfg SweeperConfig) (*Sweeper, error) {
	tail, err := cfg.Store.LatestActivityID(ctx)
	if err != nil {
		return nil, err
	}

	inactiveAfter := cfg.InactiveAfter
	if inactiveAfter == 0 {
		inactiveAfter = DefaultInactiveAfter
	}
	churnDays := cfg.ChurnAfterDays
	if churnDays == 0 {
		churnDays = DefaultChurnAfterDays
	}

	return &Sweeper{
		store:         cfg.Store,
		scorer:        cfg.Scorer,
		classifier:    cfg.Classifier,
		catalog:       cfg.Catalog,
		selector:      cfg.Selector,
		dispatcher:    cfg.Dispatcher,
		inactiveAfter: inactiveAfter,
		churnAfter:    time.Duration(churnDays) * 24 * time.Hour,
		cursor:        tail,
	}, nil
}

// AtRiskScan rescans every player inactive past the threshold: recomputes
// their risk score and tier, marks long-silent players churned, and dispatches
// one matching campaign to medium and high tier players.
func (s *Sweeper) AtRiskScan(ctx context.Context) {
	timer := sweepTimer("at_risk")
	defer timer()

	scope := common.StartScope(ctx, "AtRiskScan")
	defer scope.Finish()

	now := time.Now()
	players, err := s.store.PlayersInactiveSince(scope.Ctx, now.Add(-s.inactiveAfter))
	if err != nil {
		scope.TraceError(err)
		scope.Log.Errorf("at-risk scan: listing inactive players: %v", err)
		return
	}
	scope.SetAttributes("players.inactive", len(players))
	scope.Log.Debugf("at-risk scan: %d inactive players", len(players))

	for i := range players {
		s.evaluatePlayer(scope.Ctx, &players[i], now)
	}
}

func (s *Sweeper) evaluatePlayer(ctx context.Context, p *model.PlayerState, now time.Time) {
	score := s.scorer.Score(ctx, p.UserID)
	level := s.classifier.Classify(score)
	if err := s.store.UpdateRisk(ctx, p.UserID, score, level); err != nil {
		logrus.Errorf("at-risk scan: updating risk for user %s: %v", p.UserID, err)
		return
	}
	p.RiskScore = score
	p.RiskLevel = level

	if now.Sub(p.LastActivity) >= s.churnAfter {
		if err := s.store.SetPlayerStatus(ctx, p.UserID, model.StatusChurned); err != nil {
			logrus.Errorf("at-risk scan: marking user %s churned: %v", p.UserID, err)
			return
		}
		metrics.PlayersChurnedTotal.Inc()
		logrus.Infof("marked user %s churned after %v of inactivity", p.UserID, now.Sub(p.LastActivity))
		return
	}

	if level != model.RiskMedium && level != model.RiskHigh {
		return
	}
	c := s.selector.Select(level, p)
	if c == nil {
		logrus.Debugf("at-risk scan: no campaign for user %s at tier %s", p.UserID, level)
		return
	}
	if err := s.dispatcher.Execute(ctx, p, c); err != nil {
		logrus.Errorf("at-risk scan: dispatch for user %s: %v", p.UserID, err)
	}
}

// CampaignSweep fires every due active campaign against its matching players,
// then advances the campaign's LastRun. LastRun moves even when individual
// dispatches fail; a campaign re-fires only after its interval elapses again.
func (s *Sweeper) CampaignSweep(ctx context.Context) {
	timer := sweepTimer("campaign")
	defer timer()

	scope := common.StartScope(ctx, "CampaignSweep")
	defer scope.Finish()

	now := time.Now()
	for _, c := range s.catalog.Active() {
		if !c.DueAt(now) {
			continue
		}

		players, err := s.store.PlayersMatching(scope.Ctx, c.Segments, c.MinSpending, c.MaxSpending)
		if err != nil {
			scope.TraceError(err)
			scope.Log.Errorf("campaign sweep: matching players for campaign %s: %v", c.ID, err)
			continue
		}

		sent := 0
		for i := range players {
			campaignCopy := c
			if err := s.dispatcher.Execute(scope.Ctx, &players[i], &campaignCopy); err != nil {
				scope.Log.Errorf("campaign sweep: dispatch campaign %s to user %s: %v",
					c.ID, players[i].UserID, err)
				continue
			}
			sent++
		}

		if err := s.catalog.MarkRan(scope.Ctx, c.ID, now); err != nil {
			scope.TraceError(err)
			scope.Log.Errorf("campaign sweep: marking campaign %s ran: %v", c.ID, err)
			continue
		}
		scope.Log.Infof("campaign sweep: campaign %s dispatched to %d players", c.ID, sent)
	}
}

// StateRefresh folds activity events appended since the last pass into the
// per-player state rows, advancing the event cursor as it goes. Events are
// applied at most once: the cursor only advances past events that were
// applied or individually failed-and-logged.
func (s *Sweeper) StateRefresh(ctx context.Context) {
	timer := sweepTimer("state_refresh")
	defer timer()

	scope := common.StartScope(ctx, "StateRefresh")
	defer scope.Finish()

	for {
		events, err := s.store.ActivityAfter(scope.Ctx, s.cursor, refreshBatchSize)
		if err != nil {
			scope.TraceError(err)
			scope.Log.Errorf("state refresh: reading events after %d: %v", s.cursor, err)
			return
		}
		if len(events) == 0 {
			return
		}

		for i := range events {
			if err := s.store.ApplyActivity(scope.Ctx, &events[i]); err != nil {
				scope.Log.Errorf("state refresh: applying event %d for user %s: %v",
					events[i].ID, events[i].UserID, err)
			}
			s.cursor = events[i].ID
		}
		scope.Log.Debugf("state refresh: applied %d events, cursor at %d", len(events), s.cursor)

		if len(events) < refreshBatchSize {
			return
		}
	}
}

func sweepTimer(sweep string) func() {
	start := time.Now()
	return func() {
		metrics.SweepDuration.WithLabelValues(sweep).Observe(time.Since(start).Seconds())
	}
}
