// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package bootstrap assembles the engine's domain components from loaded
// configuration.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-retention-engine/internal/config"
	"github.com/AccelByte/extend-retention-engine/pkg/cache"
	"github.com/AccelByte/extend-retention-engine/pkg/campaign"
	"github.com/AccelByte/extend-retention-engine/pkg/channel"
	"github.com/AccelByte/extend-retention-engine/pkg/dispatch"
	"github.com/AccelByte/extend-retention-engine/pkg/risk"
	"github.com/AccelByte/extend-retention-engine/pkg/scheduler"
	"github.com/AccelByte/extend-retention-engine/pkg/store"
)

// Channels carries the outbound delivery adapters. Deployments swap in real
// provider integrations here; the defaults log the sends.
type Channels struct {
	Notification channel.Notification
	Email        channel.Email
	SMS          channel.SMS
}

// DefaultChannels returns the log-only delivery adapters.
func DefaultChannels() Channels {
	return Channels{
		Notification: channel.LogNotification{},
		Email:        channel.LogEmail{},
		SMS:          channel.LogSMS{},
	}
}

// InitSweeps builds the risk scorer, classifier, dispatcher, and the three
// periodic sweeps, wired to the given backends.
func InitSweeps(
	ctx context.Context,
	cfg *config.Config,
	s store.Store,
	rewards *cache.RewardCache,
	catalog *campaign.Catalog,
	ch Channels,
) (*scheduler.Scheduler, error) {
	classifier := risk.NewClassifier(cfg.HighRiskThreshold, cfg.MediumRiskThreshold)
	selector := campaign.NewSelector(catalog)

	dispatcher := dispatch.NewDispatcher(dispatch.Config{
		Store:        s,
		Rewards:      rewards,
		Notification: ch.Notification,
		Email:        ch.Email,
		SMS:          ch.SMS,
		SendTimeout:  cfg.DispatchTimeout,
	})

	sweeper, err := scheduler.NewSweeper(ctx, scheduler.SweeperConfig{
		Store:          s,
		Scorer:         risk.NewScorer(s),
		Classifier:     classifier,
		Catalog:        catalog,
		Selector:       selector,
		Dispatcher:     dispatcher,
		InactiveAfter:  cfg.InactiveAfter,
		ChurnAfterDays: cfg.ChurnAfterDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init sweeper: %w", err)
	}

	sched, err := scheduler.New(ctx, sweeper, scheduler.Intervals{
		AtRisk:   cfg.AtRiskInterval,
		Campaign: cfg.CampaignInterval,
		Refresh:  cfg.RefreshInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init sweep scheduler: %w", err)
	}

	logrus.Info("initialized periodic sweeps")
	return sched, nil
}
