package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/AccelByte/extend-retention-engine/pkg/cache"
	channelmock "github.com/AccelByte/extend-retention-engine/pkg/channel/mock"
	"github.com/AccelByte/extend-retention-engine/pkg/model"
	"github.com/AccelByte/extend-retention-engine/pkg/store"
)

type fixture struct {
	store  *store.Memory
	cache  *cache.RewardCache
	mr     *miniredis.Miniredis
	notify *channelmock.Notification
	email  *channelmock.Email
	sms    *channelmock.SMS
	d      *Dispatcher
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	f := &fixture{
		store:  store.NewMemory(),
		cache:  cache.NewRewardCache(redis.NewClient(&redis.Options{Addr: mr.Addr()})),
		mr:     mr,
		notify: &channelmock.Notification{},
		email:  &channelmock.Email{},
		sms:    &channelmock.SMS{},
	}
	f.d = NewDispatcher(Config{
		Store:        f.store,
		Rewards:      f.cache,
		Notification: f.notify,
		Email:        f.email,
		SMS:          f.sms,
		SendTimeout:  time.Second,
	})
	return f
}

func testPlayer() *model.PlayerState {
	return &model.PlayerState{
		UserID:       "user-1",
		PlayerName:   "Nova",
		Email:        "nova@example.com",
		Phone:        "+15550001234",
		RiskLevel:    model.RiskHigh,
		LastActivity: time.Now().Add(-3 * 24 * time.Hour),
		Level:        7,
	}
}

func TestExecute_PushPersonalizesMessage(t *testing.T) {
	f := setup(t)
	c := &model.Campaign{
		ID: "camp-1", Type: model.CampaignPush,
		Message: "Come back {playerName}, level {level} misses you",
	}

	if err := f.d.Execute(context.Background(), testPlayer(), c); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if f.notify.CallCount() != 1 {
		t.Fatalf("notify calls = %d, expected 1", f.notify.CallCount())
	}
	got := f.notify.Calls[0]
	if got.Message != "Come back Nova, level 7 misses you" {
		t.Errorf("message = %q, not personalized", got.Message)
	}
	if got.Data["campaignId"] != "camp-1" {
		t.Errorf("data.campaignId = %q, expected camp-1", got.Data["campaignId"])
	}
}

func TestExecute_EmailUsesSubjectAndAddress(t *testing.T) {
	f := setup(t)
	c := &model.Campaign{
		ID: "camp-2", Type: model.CampaignEmail,
		Subject: "We miss you, {playerName}",
		Message: "It has been {daysAway} days",
	}

	if err := f.d.Execute(context.Background(), testPlayer(), c); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(f.email.Calls) != 1 {
		t.Fatalf("email calls = %d, expected 1", len(f.email.Calls))
	}
	got := f.email.Calls[0]
	if got.Email != "nova@example.com" {
		t.Errorf("email = %q", got.Email)
	}
	if got.Subject != "We miss you, Nova" {
		t.Errorf("subject = %q, not personalized", got.Subject)
	}
}

func TestExecute_EmailWithoutAddressFails(t *testing.T) {
	f := setup(t)
	p := testPlayer()
	p.Email = ""
	c := &model.Campaign{ID: "camp-2", Type: model.CampaignEmail, Message: "m"}

	err := f.d.Execute(context.Background(), p, c)
	if !errors.Is(err, ErrNoContactAddress) {
		t.Fatalf("Execute() error = %v, expected ErrNoContactAddress", err)
	}
	if len(f.email.Calls) != 0 {
		t.Errorf("email calls = %d, expected none", len(f.email.Calls))
	}

	actions := f.store.Actions()
	if len(actions) != 1 || actions[0].Status != model.ActionFailed {
		t.Errorf("audit = %+v, expected one failed record", actions)
	}
}

func TestExecute_OfferWritesStoreAndCache(t *testing.T) {
	f := setup(t)
	c := &model.Campaign{
		ID: "camp-3", Type: model.CampaignInGameOffer,
		Message: "50% off for {playerName}", Discount: 0.5, Duration: 3600,
	}

	if err := f.d.Execute(context.Background(), testPlayer(), c); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	offers := f.store.Offers()
	if len(offers) != 1 {
		t.Fatalf("durable offers = %d, expected 1", len(offers))
	}
	if offers[0].Discount != 0.5 {
		t.Errorf("Discount = %v, expected 0.5", offers[0].Discount)
	}

	cached, err := f.cache.GetOffer(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetOffer() error = %v", err)
	}
	if cached.ID != offers[0].ID {
		t.Errorf("cached offer id = %s, durable id = %s", cached.ID, offers[0].ID)
	}
	if ttl := f.mr.TTL("offer:user-1"); ttl != time.Hour {
		t.Errorf("TTL = %v, expected campaign duration 1h", ttl)
	}
}

func TestExecute_BonusToleratesCacheFailure(t *testing.T) {
	f := setup(t)
	f.mr.Close() // cache is down, durable write must still count

	c := &model.Campaign{
		ID: "camp-4", Type: model.CampaignComebackBonus,
		Message: "welcome back", Rewards: []string{"100_gems"}, Duration: 3600,
	}

	if err := f.d.Execute(context.Background(), testPlayer(), c); err != nil {
		t.Fatalf("Execute() error = %v, expected partial success to be tolerated", err)
	}

	if len(f.store.Bonuses()) != 1 {
		t.Errorf("durable bonuses = %d, expected 1", len(f.store.Bonuses()))
	}
	actions := f.store.Actions()
	if len(actions) != 1 || actions[0].Status != model.ActionSent {
		t.Errorf("audit = %+v, expected one sent record", actions)
	}
}

func TestExecute_SendTimeoutIsFailure(t *testing.T) {
	f := setup(t)
	f.d.sendTimeout = 20 * time.Millisecond
	f.notify.SendFunc = func(ctx context.Context, _, _ string, _ map[string]string) error {
		<-time.After(time.Second) // adapter ignores ctx
		return nil
	}

	c := &model.Campaign{ID: "camp-5", Type: model.CampaignPush, Message: "m"}

	start := time.Now()
	err := f.d.Execute(context.Background(), testPlayer(), c)
	if err == nil {
		t.Fatal("Execute() error = nil, expected timeout")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Execute() blocked %v, expected prompt timeout", elapsed)
	}

	actions := f.store.Actions()
	if len(actions) != 1 || actions[0].Status != model.ActionFailed {
		t.Errorf("audit = %+v, expected one failed record", actions)
	}
}

func TestExecute_UnknownTypeIsSkipped(t *testing.T) {
	f := setup(t)
	c := &model.Campaign{ID: "camp-6", Type: "fax", Message: "m"}

	err := f.d.Execute(context.Background(), testPlayer(), c)
	if !errors.Is(err, ErrUnknownCampaignType) {
		t.Fatalf("Execute() error = %v, expected ErrUnknownCampaignType", err)
	}
	if f.notify.CallCount() != 0 || len(f.email.Calls) != 0 || len(f.sms.Calls) != 0 {
		t.Error("unknown campaign type must not reach any channel")
	}
}

func TestExecute_AppendsAuditWithPlayerTier(t *testing.T) {
	f := setup(t)
	c := &model.Campaign{ID: "camp-7", Type: model.CampaignSMS, Message: "short"}

	if err := f.d.Execute(context.Background(), testPlayer(), c); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	actions := f.store.Actions()
	if len(actions) != 1 {
		t.Fatalf("audit records = %d, expected 1", len(actions))
	}
	a := actions[0]
	if a.UserID != "user-1" || a.CampaignID != "camp-7" {
		t.Errorf("audit = %+v", a)
	}
	if a.RiskLevel != model.RiskHigh {
		t.Errorf("audit RiskLevel = %s, expected player's tier", a.RiskLevel)
	}
	if a.ID == "" {
		t.Error("audit id not generated")
	}
}
