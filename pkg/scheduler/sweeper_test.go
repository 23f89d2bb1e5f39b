// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/AccelByte/extend-retention-engine/pkg/cache"
	"github.com/AccelByte/extend-retention-engine/pkg/campaign"
	"github.com/AccelByte/extend-retention-engine/pkg/channel/mock"
	"github.com/AccelByte/extend-retention-engine/pkg/dispatch"
	"github.com/AccelByte/extend-retention-engine/pkg/model"
	"github.com/AccelByte/extend-retention-engine/pkg/risk"
	"github.com/AccelByte/extend-retention-engine/pkg/store"
)

type fixture struct {
	sweeper *Sweeper
	store   *store.Memory
	catalog *campaign.Catalog
	notify  *mock.Notification
	email   *mock.Email
	sms     *mock.SMS
}

func setup(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rewards := cache.NewRewardCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	st := store.NewMemory()
	catalog := campaign.NewCatalog(st)

	notify := &mock.Notification{}
	email := &mock.Email{}
	sms := &mock.SMS{}

	dispatcher := dispatch.NewDispatcher(dispatch.Config{
		Store:        st,
		Rewards:      rewards,
		Notification: notify,
		Email:        email,
		SMS:          sms,
	})

	sweeper, err := NewSweeper(context.Background(), SweeperConfig{
		Store:      st,
		Scorer:     risk.NewScorer(st),
		Classifier: risk.NewDefaultClassifier(),
		Catalog:    catalog,
		Selector:   campaign.NewSelector(catalog),
		Dispatcher: dispatcher,
	})
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}

	return &fixture{
		sweeper: sweeper,
		store:   st,
		catalog: catalog,
		notify:  notify,
		email:   email,
		sms:     sms,
	}
}

func addPlayer(t *testing.T, f *fixture, userID string, lastActivity time.Time) {
	t.Helper()
	if err := f.store.UpsertPlayer(context.Background(), &model.PlayerState{
		UserID:       userID,
		LastActivity: lastActivity,
		Status:       model.StatusActive,
	}); err != nil {
		t.Fatalf("UpsertPlayer: %v", err)
	}
}

func addCampaign(t *testing.T, f *fixture, spec campaign.Spec) *model.Campaign {
	t.Helper()
	c, err := f.catalog.Create(context.Background(), &spec)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return c
}

func TestAtRiskScanRescoresAndDispatches(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	addCampaign(t, f, campaign.Spec{
		Name:      "we miss you",
		Type:      model.CampaignPush,
		RiskLevel: model.RiskHigh,
		Message:   "come back {playerName}",
	})

	// Silent for 10 days: all factors score high, tier must be high.
	addPlayer(t, f, "p1", time.Now().Add(-10*24*time.Hour))

	f.sweeper.AtRiskScan(ctx)

	p, err := f.store.GetPlayer(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if p.RiskLevel != model.RiskHigh {
		t.Errorf("risk level = %s, want high (score %f)", p.RiskLevel, p.RiskScore)
	}
	if p.Status != model.StatusActive {
		t.Errorf("10 days silent should not churn, status = %s", p.Status)
	}

	if got := len(f.notify.Calls); got != 1 {
		t.Fatalf("push sends = %d, want 1", got)
	}
	if len(f.store.Actions()) != 1 {
		t.Fatalf("audit records = %d, want 1", len(f.store.Actions()))
	}
}

func TestAtRiskScanMarksChurned(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	addCampaign(t, f, campaign.Spec{
		Name:      "we miss you",
		Type:      model.CampaignPush,
		RiskLevel: model.RiskHigh,
		Message:   "come back",
	})

	addPlayer(t, f, "gone", time.Now().Add(-40*24*time.Hour))

	f.sweeper.AtRiskScan(ctx)

	p, err := f.store.GetPlayer(ctx, "gone")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if p.Status != model.StatusChurned {
		t.Errorf("status = %s, want churned", p.Status)
	}
	// Churned players get no campaign on the same pass.
	if len(f.notify.Calls) != 0 {
		t.Errorf("churned player still received %d sends", len(f.notify.Calls))
	}

	// A churned player is skipped entirely on later scans.
	f.notify.Calls = nil
	f.sweeper.AtRiskScan(ctx)
	if len(f.notify.Calls) != 0 {
		t.Errorf("churned player rescanned: %d sends", len(f.notify.Calls))
	}
}

func TestAtRiskScanSkipsRecentlyActive(t *testing.T) {
	f := setup(t)

	addPlayer(t, f, "fresh", time.Now().Add(-2*time.Hour))

	f.sweeper.AtRiskScan(context.Background())

	p, _ := f.store.GetPlayer(context.Background(), "fresh")
	if p.RiskScore != 0 {
		t.Errorf("recently active player was rescored: %f", p.RiskScore)
	}
}

func TestAtRiskScanNoCampaignForTier(t *testing.T) {
	f := setup(t)

	// Catalog only has an email campaign for the medium tier; the high-risk
	// player finds no match and no send happens, but the rescore sticks.
	addCampaign(t, f, campaign.Spec{
		Name:      "medium only",
		Type:      model.CampaignEmail,
		RiskLevel: model.RiskMedium,
		Subject:   "hi",
		Message:   "hello",
	})
	addPlayer(t, f, "p1", time.Now().Add(-10*24*time.Hour))

	f.sweeper.AtRiskScan(context.Background())

	p, _ := f.store.GetPlayer(context.Background(), "p1")
	if p.RiskLevel != model.RiskHigh {
		t.Errorf("risk level = %s, want high", p.RiskLevel)
	}
	if len(f.email.Calls) != 0 || len(f.notify.Calls) != 0 {
		t.Error("no send expected when no campaign targets the tier")
	}
}

func TestAtRiskScanContinuesPastDispatchFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	addCampaign(t, f, campaign.Spec{
		Name:      "flaky push",
		Type:      model.CampaignPush,
		RiskLevel: model.RiskHigh,
		Message:   "come back",
	})
	f.notify.DefaultError = context.DeadlineExceeded

	addPlayer(t, f, "a", time.Now().Add(-10*24*time.Hour))
	addPlayer(t, f, "b", time.Now().Add(-10*24*time.Hour))

	f.sweeper.AtRiskScan(ctx)

	// Both players were attempted despite the first failure.
	if got := len(f.notify.Calls); got != 2 {
		t.Errorf("sends attempted = %d, want 2", got)
	}
	actions := f.store.Actions()
	if len(actions) != 2 {
		t.Fatalf("audit records = %d, want 2", len(actions))
	}
	for _, a := range actions {
		if a.Status != model.ActionFailed {
			t.Errorf("action status = %s, want failed", a.Status)
		}
	}
}

func TestCampaignSweepDispatchesDueCampaigns(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c := addCampaign(t, f, campaign.Spec{
		Name:      "whales",
		Type:      model.CampaignSMS,
		RiskLevel: model.RiskMedium,
		Segments:  []string{"whale"},
		Message:   "special deal",
	})

	if err := f.store.UpsertPlayer(ctx, &model.PlayerState{
		UserID:       "w1",
		Phone:        "+15550001",
		LastActivity: time.Now().Add(-48 * time.Hour),
		Status:       model.StatusActive,
		RiskLevel:    model.RiskMedium,
		Segment:      "whale",
	}); err != nil {
		t.Fatal(err)
	}
	// Same segment, never scored: the sweep targets on segment and spend
	// only, so an empty risk level does not exclude the player.
	if err := f.store.UpsertPlayer(ctx, &model.PlayerState{
		UserID:       "w2",
		Phone:        "+15550002",
		LastActivity: time.Now(),
		Status:       model.StatusActive,
		Segment:      "whale",
	}); err != nil {
		t.Fatal(err)
	}
	// Outside the targeted segment.
	if err := f.store.UpsertPlayer(ctx, &model.PlayerState{
		UserID:       "m1",
		Phone:        "+15550003",
		LastActivity: time.Now(),
		Status:       model.StatusActive,
		RiskLevel:    model.RiskMedium,
		Segment:      "minnow",
	}); err != nil {
		t.Fatal(err)
	}

	f.sweeper.CampaignSweep(ctx)

	if got := len(f.sms.Calls); got != 2 {
		t.Fatalf("sms sends = %d, want 2", got)
	}
	recipients := map[string]bool{}
	for _, call := range f.sms.Calls {
		recipients[call.Phone] = true
	}
	if !recipients["+15550001"] || !recipients["+15550002"] || recipients["+15550003"] {
		t.Errorf("dispatched to %v, want the two whale players only", recipients)
	}

	// LastRun advanced: the campaign is no longer due, so a second sweep
	// within the interval sends nothing.
	updated, err := f.catalog.Get(c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if updated.LastRun.IsZero() {
		t.Error("LastRun not advanced")
	}

	f.sweeper.CampaignSweep(ctx)
	if got := len(f.sms.Calls); got != 2 {
		t.Errorf("campaign re-fired within interval: %d sends", got)
	}
}

func TestCampaignSweepSkipsInactiveCampaigns(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c := addCampaign(t, f, campaign.Spec{
		Name:      "retired",
		Type:      model.CampaignPush,
		RiskLevel: model.RiskHigh,
		Message:   "old news",
	})
	if err := f.catalog.Deactivate(ctx, c.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	if err := f.store.UpsertPlayer(ctx, &model.PlayerState{
		UserID:       "p1",
		LastActivity: time.Now(),
		Status:       model.StatusActive,
		RiskLevel:    model.RiskHigh,
	}); err != nil {
		t.Fatal(err)
	}

	f.sweeper.CampaignSweep(ctx)

	if len(f.notify.Calls) != 0 {
		t.Errorf("inactive campaign dispatched %d sends", len(f.notify.Calls))
	}
}

func TestStateRefreshFoldsNewEvents(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Now()

	events := []model.ActivityEvent{
		{UserID: "p1", Type: model.ActivitySessionStart, Timestamp: now.Add(-3 * time.Minute)},
		{UserID: "p1", Type: model.ActivityPurchase, Amount: 4.99, Timestamp: now.Add(-2 * time.Minute)},
		{UserID: "p1", Type: model.ActivityLevelComplete, Level: 7, Score: 1200, Timestamp: now.Add(-time.Minute)},
	}
	for i := range events {
		if err := f.store.AppendActivity(ctx, &events[i]); err != nil {
			t.Fatalf("AppendActivity: %v", err)
		}
	}

	f.sweeper.StateRefresh(ctx)

	p, err := f.store.GetPlayer(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if p.SessionCount != 1 {
		t.Errorf("SessionCount = %d, want 1", p.SessionCount)
	}
	if p.TotalSpent != 4.99 {
		t.Errorf("TotalSpent = %f, want 4.99", p.TotalSpent)
	}
	if p.Level != 7 || p.LastScore != 1200 {
		t.Errorf("Level/LastScore = %d/%d, want 7/1200", p.Level, p.LastScore)
	}

	// Re-running must not double-apply: the cursor moved past the batch.
	f.sweeper.StateRefresh(ctx)
	p, _ = f.store.GetPlayer(ctx, "p1")
	if p.TotalSpent != 4.99 || p.SessionCount != 1 {
		t.Errorf("events double-applied: spent=%f sessions=%d", p.TotalSpent, p.SessionCount)
	}
}

func TestStateRefreshCursorStartsAtBootTail(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	// An event already in the log when the sweeper boots must not be
	// re-applied by the first refresh pass.
	old := model.ActivityEvent{UserID: "p1", Type: model.ActivityPurchase, Amount: 10, Timestamp: time.Now()}
	if err := st.AppendActivity(ctx, &old); err != nil {
		t.Fatal(err)
	}

	sweeper, err := NewSweeper(ctx, SweeperConfig{
		Store:      st,
		Scorer:     risk.NewScorer(st),
		Classifier: risk.NewDefaultClassifier(),
	})
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}

	sweeper.StateRefresh(ctx)

	if _, err := st.GetPlayer(ctx, "p1"); err == nil {
		t.Error("pre-boot event was applied by refresh")
	}
}
