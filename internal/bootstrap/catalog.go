// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-retention-engine/pkg/campaign"
	"github.com/AccelByte/extend-retention-engine/pkg/store"
)

// InitCatalog loads the campaign catalog from the durable store and, when the
// store holds no campaigns yet, seeds it from the YAML file at path. Seeding
// runs only on an empty catalog so admin-created campaigns are never
// overwritten on restart.
func InitCatalog(ctx context.Context, s store.Store, path string) (*campaign.Catalog, error) {
	catalog := campaign.NewCatalog(s)
	if err := catalog.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load campaign catalog: %w", err)
	}

	if catalog.Count() > 0 {
		logrus.Infof("loaded %d campaigns from store", catalog.Count())
		return catalog, nil
	}

	cfg, err := campaign.LoadCatalogConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign seed file %s: %w", path, err)
	}

	for i := range cfg.Campaigns {
		spec := cfg.Campaigns[i]
		created, err := catalog.Create(ctx, &spec)
		if err != nil {
			return nil, fmt.Errorf("failed to seed campaign %q: %w", spec.Name, err)
		}
		logrus.Infof("seeded campaign %s (%s, tier %s)", created.Name, created.Type, created.RiskLevel)
	}

	logrus.Infof("seeded %d campaigns from %s", catalog.Count(), path)
	return catalog, nil
}
