package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AccelByte/extend-retention-engine/pkg/model"
	"github.com/AccelByte/extend-retention-engine/pkg/store"
)

func testNow(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
}

func TestCatalog_InsertionOrderSurvivesReload(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	catalog := NewCatalog(mem)

	names := []string{"alpha", "bravo", "charlie"}
	for _, name := range names {
		if _, err := catalog.Create(ctx, &Spec{
			Name: name, Type: model.CampaignPush, RiskLevel: model.RiskHigh, Message: "m",
		}); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}

	reloaded := NewCatalog(mem)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	all := reloaded.All()
	if len(all) != len(names) {
		t.Fatalf("len(All()) = %d, expected %d", len(all), len(names))
	}
	for i, c := range all {
		if c.Name != names[i] {
			t.Errorf("All()[%d].Name = %s, expected %s", i, c.Name, names[i])
		}
	}
}

func TestCatalog_Get(t *testing.T) {
	catalog := setupCatalog(t, &Spec{
		Name: "only", Type: model.CampaignEmail, RiskLevel: model.RiskMedium, Message: "m",
	})

	id := catalog.All()[0].ID
	got, err := catalog.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "only" {
		t.Errorf("Get().Name = %s, expected only", got.Name)
	}

	_, err = catalog.Get("missing")
	if !errors.Is(err, store.ErrCampaignNotFound) {
		t.Errorf("Get(missing) error = %v, expected ErrCampaignNotFound", err)
	}
}

func TestCatalog_MarkRanPersists(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	catalog := NewCatalog(mem)

	created, err := catalog.Create(ctx, &Spec{
		Name: "sweepable", Type: model.CampaignSMS, RiskLevel: model.RiskHigh, Message: "m",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ranAt := testNow(t)
	if err := catalog.MarkRan(ctx, created.ID, ranAt); err != nil {
		t.Fatalf("MarkRan() error = %v", err)
	}

	// In-memory view and durable row must agree.
	fromCatalog, _ := catalog.Get(created.ID)
	if !fromCatalog.LastRun.Equal(ranAt) {
		t.Errorf("catalog LastRun = %v, expected %v", fromCatalog.LastRun, ranAt)
	}
	fromStore, _ := mem.GetCampaign(ctx, created.ID)
	if !fromStore.LastRun.Equal(ranAt) {
		t.Errorf("store LastRun = %v, expected %v", fromStore.LastRun, ranAt)
	}
}

func TestCatalog_CreateRejectsInvalidSpec(t *testing.T) {
	catalog := NewCatalog(store.NewMemory())
	_, err := catalog.Create(context.Background(), &Spec{Type: "smoke_signal", RiskLevel: model.RiskHigh})
	if !errors.Is(err, ErrInvalidCampaign) {
		t.Errorf("Create() error = %v, expected ErrInvalidCampaign", err)
	}
	if catalog.Count() != 0 {
		t.Errorf("Count() = %d, expected 0 after rejected create", catalog.Count())
	}
}
