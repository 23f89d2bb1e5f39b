// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/AccelByte/extend-retention-engine/pkg/cache"
	"github.com/AccelByte/extend-retention-engine/pkg/campaign"
	"github.com/AccelByte/extend-retention-engine/pkg/model"
	"github.com/AccelByte/extend-retention-engine/pkg/store"
)

type fixture struct {
	svc     *Service
	store   *store.Memory
	catalog *campaign.Catalog
	mr      *miniredis.Miniredis
	rewards *cache.RewardCache
}

func setup(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rewards := cache.NewRewardCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	st := store.NewMemory()
	catalog := campaign.NewCatalog(st)
	selector := campaign.NewSelector(catalog)

	return &fixture{
		svc:     NewService(st, rewards, catalog, selector),
		store:   st,
		catalog: catalog,
		mr:      mr,
		rewards: rewards,
	}
}

func TestRecordActivityValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := []struct {
		name string
		ev   model.ActivityEvent
	}{
		{"missing user", model.ActivityEvent{Type: model.ActivitySessionStart}},
		{"unknown type", model.ActivityEvent{UserID: "p1", Type: "teleport"}},
		{"empty type", model.ActivityEvent{UserID: "p1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := tc.ev
			if err := f.svc.RecordActivity(ctx, &ev); !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("expected ErrInvalidEvent, got %v", err)
			}
		})
	}

	if got, _ := f.store.LatestActivityID(ctx); got != 0 {
		t.Errorf("invalid events must not be persisted, found %d", got)
	}
}

func TestRecordActivityDefaultsTimestamp(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	before := time.Now()
	ev := model.ActivityEvent{UserID: "p1", Type: model.ActivitySessionStart}
	if err := f.svc.RecordActivity(ctx, &ev); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	if ev.Timestamp.Before(before) {
		t.Errorf("timestamp not defaulted: %v", ev.Timestamp)
	}

	player, err := f.store.GetPlayer(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if !player.LastActivity.Equal(ev.Timestamp) {
		t.Errorf("player lastActivity = %v, want %v", player.LastActivity, ev.Timestamp)
	}
	if player.Status != model.StatusActive {
		t.Errorf("new player status = %s, want active", player.Status)
	}
}

func TestRecordActivityAppendsEvent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ev := model.ActivityEvent{UserID: "p1", Type: model.ActivityPurchase, Amount: 9.99, Timestamp: time.Now()}
	if err := f.svc.RecordActivity(ctx, &ev); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}

	events, err := f.store.RecentActivity(ctx, "p1", 10)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(events) != 1 || events[0].Type != model.ActivityPurchase {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestGetPlayerRetentionData(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Now()

	if _, err := f.catalog.Create(ctx, &campaign.Spec{
		Name:      "high tier fallback",
		Type:      model.CampaignPush,
		RiskLevel: model.RiskHigh,
		Message:   "come back {playerName}",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	player := &model.PlayerState{
		UserID:       "p1",
		LastActivity: now.Add(-48 * time.Hour),
		RiskScore:    0.9,
		RiskLevel:    model.RiskHigh,
		Status:       model.StatusActive,
	}
	if err := f.store.UpsertPlayer(ctx, player); err != nil {
		t.Fatalf("UpsertPlayer: %v", err)
	}

	data, err := f.svc.GetPlayerRetentionData(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPlayerRetentionData: %v", err)
	}
	if data.Player.UserID != "p1" {
		t.Errorf("player = %+v", data.Player)
	}
	if len(data.Recommendations) == 0 {
		t.Error("expected recommendations for high tier")
	}
	if len(data.EligibleCampaigns) != 1 {
		t.Errorf("eligible campaigns = %d, want 1", len(data.EligibleCampaigns))
	}
	if data.Metrics == nil || data.Metrics.TotalPlayers != 1 {
		t.Errorf("metrics = %+v", data.Metrics)
	}
}

func TestGetPlayerRetentionDataUnknownPlayer(t *testing.T) {
	f := setup(t)

	_, err := f.svc.GetPlayerRetentionData(context.Background(), "ghost")
	if !errors.Is(err, store.ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestGetPlayerRewards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Nothing cached yet: both sides nil, no error.
	rewards, err := f.svc.GetPlayerRewards(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPlayerRewards: %v", err)
	}
	if rewards.Offer != nil || rewards.Bonus != nil {
		t.Fatalf("expected empty rewards, got %+v", rewards)
	}

	offer := &model.Offer{
		ID:        "o1",
		UserID:    "p1",
		Discount:  0.25,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := f.rewards.PutOffer(ctx, offer, time.Hour); err != nil {
		t.Fatalf("PutOffer: %v", err)
	}

	rewards, err = f.svc.GetPlayerRewards(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPlayerRewards: %v", err)
	}
	if rewards.Offer == nil || rewards.Offer.ID != "o1" {
		t.Fatalf("offer = %+v", rewards.Offer)
	}
	if rewards.Bonus != nil {
		t.Fatalf("bonus should be nil, got %+v", rewards.Bonus)
	}
}

func TestGetPlayerRewardsCacheDown(t *testing.T) {
	f := setup(t)
	f.mr.Close()

	if _, err := f.svc.GetPlayerRewards(context.Background(), "p1"); err == nil {
		t.Fatal("expected error when cache is unreachable")
	}
}

func TestRetentionMetricsEmptyCohort(t *testing.T) {
	f := setup(t)

	m, err := f.svc.GetRetentionMetrics(context.Background())
	if err != nil {
		t.Fatalf("GetRetentionMetrics: %v", err)
	}
	if m.TotalPlayers != 0 || m.RetentionRate != 0 || m.ChurnRate != 0 {
		t.Errorf("empty cohort metrics = %+v", m)
	}
}

func TestRecommendationsPerTier(t *testing.T) {
	for _, level := range []model.RiskLevel{model.RiskHigh, model.RiskMedium, model.RiskLow} {
		if got := RecommendationsFor(level); len(got) != 3 {
			t.Errorf("RecommendationsFor(%s) = %d entries, want 3", level, len(got))
		}
	}
}
