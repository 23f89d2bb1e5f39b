package campaign

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-retention-engine/pkg/model"
	"github.com/AccelByte/extend-retention-engine/pkg/store"
)

// Catalog manages all campaigns keyed by id, preserving insertion order.
// It is an in-memory view over the durable store: mutations write through,
// reads are served from memory. Iteration order is stable so the selector's
// first-match and fallback rules are deterministic.
type Catalog struct {
	store store.Store

	mu    sync.RWMutex
	order []string
	byID  map[string]*model.Campaign
}

// NewCatalog creates an empty catalog backed by the given store.
func NewCatalog(s store.Store) *Catalog {
	return &Catalog{
		store: s,
		byID:  make(map[string]*model.Campaign),
	}
}

// Load populates the catalog from the durable store.
func (c *Catalog) Load(ctx context.Context) error {
	campaigns, err := c.store.ListCampaigns(ctx)
	if err != nil {
		return fmt.Errorf("failed to load campaign catalog: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = c.order[:0]
	c.byID = make(map[string]*model.Campaign, len(campaigns))
	for i := range campaigns {
		cp := campaigns[i]
		c.order = append(c.order, cp.ID)
		c.byID[cp.ID] = &cp
	}

	logrus.Infof("loaded %d campaigns into catalog", len(campaigns))
	return nil
}

// Create validates the spec, persists the campaign, and appends it to the
// catalog. Returns the created campaign.
func (c *Catalog) Create(ctx context.Context, spec *Spec) (*model.Campaign, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	cp := spec.Build(time.Now())
	if err := c.store.CreateCampaign(ctx, cp); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.order = append(c.order, cp.ID)
	c.byID[cp.ID] = cp
	c.mu.Unlock()

	logrus.Infof("created campaign %s (%s, tier %s)", cp.ID, cp.Type, cp.RiskLevel)
	out := *cp
	return &out, nil
}

// Get returns a campaign by id, or store.ErrCampaignNotFound.
func (c *Catalog) Get(id string) (*model.Campaign, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp, ok := c.byID[id]
	if !ok {
		return nil, store.ErrCampaignNotFound
	}
	out := *cp
	return &out, nil
}

// All returns every campaign in insertion order.
func (c *Catalog) All() []model.Campaign {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Campaign, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.byID[id])
	}
	return out
}

// Active returns the active campaigns in insertion order.
func (c *Catalog) Active() []model.Campaign {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.Campaign
	for _, id := range c.order {
		if cp := c.byID[id]; cp.IsActive() {
			out = append(out, *cp)
		}
	}
	return out
}

// Count returns the number of campaigns in the catalog.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Deactivate marks a campaign inactive. Deactivated campaigns stay in the
// catalog but are never selected or swept again.
func (c *Catalog) Deactivate(ctx context.Context, id string) error {
	if err := c.store.SetCampaignStatus(ctx, id, model.CampaignInactive); err != nil {
		return err
	}

	c.mu.Lock()
	if cp, ok := c.byID[id]; ok {
		cp.Status = model.CampaignInactive
	}
	c.mu.Unlock()

	logrus.Infof("deactivated campaign %s", id)
	return nil
}

// MarkRan advances a campaign's LastRun. Only the campaign sweep calls this;
// at-risk-scan dispatches never move LastRun.
func (c *Catalog) MarkRan(ctx context.Context, id string, t time.Time) error {
	if err := c.store.SetCampaignLastRun(ctx, id, t); err != nil {
		return err
	}

	c.mu.Lock()
	if cp, ok := c.byID[id]; ok {
		cp.LastRun = t
	}
	c.mu.Unlock()
	return nil
}
