// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package retention is the engine's service facade: event ingestion, the
// campaign admin surface, and the read APIs for metrics and per-player
// retention data.
package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-retention-engine/pkg/cache"
	"github.com/AccelByte/extend-retention-engine/pkg/campaign"
	"github.com/AccelByte/extend-retention-engine/pkg/model"
	"github.com/AccelByte/extend-retention-engine/pkg/store"
)

// ErrInvalidEvent indicates a malformed activity event at the ingestion
// boundary. Invalid events never reach core state.
var ErrInvalidEvent = errors.New("invalid activity event")

// Service wires the engine's components behind one facade. All
// collaborators are injected; the service owns no global state.
type Service struct {
	store      store.Store
	rewards    *cache.RewardCache
	catalog    *campaign.Catalog
	selector   *campaign.Selector
	aggregator *Aggregator
}

// NewService creates the retention service.
func NewService(s store.Store, rewards *cache.RewardCache, catalog *campaign.Catalog, selector *campaign.Selector) *Service {
	return &Service{
		store:      s,
		rewards:    rewards,
		catalog:    catalog,
		selector:   selector,
		aggregator: NewAggregator(s),
	}
}

// RecordActivity validates and appends an activity event, then advances the
// player's state row. A missing timestamp defaults to now.
func (s *Service) RecordActivity(ctx context.Context, ev *model.ActivityEvent) error {
	if ev.UserID == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidEvent)
	}
	if !ev.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, ev.Type)
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	if err := s.store.AppendActivity(ctx, ev); err != nil {
		return err
	}
	if err := s.store.TouchPlayer(ctx, ev.UserID, ev.Timestamp); err != nil {
		return err
	}

	logrus.Debugf("recorded %s activity for user %s", ev.Type, ev.UserID)
	return nil
}

// CreateCampaign validates the spec and adds the campaign to the catalog.
func (s *Service) CreateCampaign(ctx context.Context, spec *campaign.Spec) (*model.Campaign, error) {
	return s.catalog.Create(ctx, spec)
}

// ListCampaigns returns every campaign in insertion order.
func (s *Service) ListCampaigns() []model.Campaign {
	return s.catalog.All()
}

// DeactivateCampaign retires a campaign from selection and sweeps.
func (s *Service) DeactivateCampaign(ctx context.Context, id string) error {
	return s.catalog.Deactivate(ctx, id)
}

// GetRetentionMetrics returns the cohort retention snapshot.
func (s *Service) GetRetentionMetrics(ctx context.Context) (*model.RetentionMetrics, error) {
	return s.aggregator.Metrics(ctx, time.Now())
}

// PlayerRetentionData is the per-player retention view: current state, the
// cohort snapshot, the tier playbook, and the campaigns the player is
// eligible for.
type PlayerRetentionData struct {
	Player            *model.PlayerState      `json:"player"`
	Metrics           *model.RetentionMetrics `json:"metrics"`
	Recommendations   []string                `json:"recommendations"`
	EligibleCampaigns []model.Campaign        `json:"eligibleCampaigns"`
}

// GetPlayerRetentionData assembles the retention view for one player.
// Returns store.ErrPlayerNotFound for unknown players.
func (s *Service) GetPlayerRetentionData(ctx context.Context, userID string) (*PlayerRetentionData, error) {
	player, err := s.store.GetPlayer(ctx, userID)
	if err != nil {
		return nil, err
	}

	m, err := s.aggregator.Metrics(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	eligible := s.selector.Eligible(player)
	if eligible == nil {
		eligible = []model.Campaign{}
	}

	return &PlayerRetentionData{
		Player:            player,
		Metrics:           m,
		Recommendations:   RecommendationsFor(player.RiskLevel),
		EligibleCampaigns: eligible,
	}, nil
}

// PlayerRewards is the player's live transient rewards, read from the
// real-time cache. Either side can be nil; the cache is best-effort and may
// lag the durable store.
type PlayerRewards struct {
	Offer *model.Offer         `json:"offer,omitempty"`
	Bonus *model.ComebackBonus `json:"bonus,omitempty"`
}

// GetPlayerRewards returns the player's live offer and comeback bonus.
// Missing entries are not errors; cache connectivity failures are.
func (s *Service) GetPlayerRewards(ctx context.Context, userID string) (*PlayerRewards, error) {
	out := &PlayerRewards{}

	offer, err := s.rewards.GetOffer(ctx, userID)
	switch {
	case err == nil:
		out.Offer = offer
	case !errors.Is(err, cache.ErrNotFound):
		return nil, err
	}

	bonus, err := s.rewards.GetBonus(ctx, userID)
	switch {
	case err == nil:
		out.Bonus = bonus
	case !errors.Is(err, cache.ErrNotFound):
		return nil, err
	}

	return out, nil
}

// Ping reports the health of both persistence backends.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := s.rewards.Ping(ctx); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}
