// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Scheduler owns the cron runner for the three periodic sweeps.
type Scheduler struct {
	sched   gocron.Scheduler
	sweeper *Sweeper
}

// Intervals are the sweep cadences. Zero fields get the package defaults.
type Intervals struct {
	AtRisk   time.Duration
	Campaign time.Duration
	Refresh  time.Duration
}

// New registers the three sweeps on a fresh cron runner. Jobs are bound to
// ctx so an engine shutdown cancels in-flight sweeps.
func New(ctx context.Context, sweeper *Sweeper, iv Intervals) (*Scheduler, error) {
	if iv.AtRisk == 0 {
		iv.AtRisk = DefaultAtRiskInterval
	}
	if iv.Campaign == 0 {
		iv.Campaign = DefaultCampaignInterval
	}
	if iv.Refresh == 0 {
		iv.Refresh = DefaultRefreshInterval
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	jobs := []struct {
		name     string
		interval time.Duration
		run      func(context.Context)
	}{
		{"at_risk", iv.AtRisk, sweeper.AtRiskScan},
		{"campaign", iv.Campaign, sweeper.CampaignSweep},
		{"state_refresh", iv.Refresh, sweeper.StateRefresh},
	}
	for _, j := range jobs {
		j := j
		_, err := sched.NewJob(
			gocron.DurationJob(j.interval),
			gocron.NewTask(func() { j.run(ctx) }),
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, err
		}
		logrus.Infof("registered %s sweep every %v", j.name, j.interval)
	}

	return &Scheduler{sched: sched, sweeper: sweeper}, nil
}

// Start begins running the sweeps on their cadences.
func (s *Scheduler) Start() {
	s.sched.Start()
	logrus.Info("sweep scheduler started")
}

// Shutdown stops the runner and waits for running jobs to finish.
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
