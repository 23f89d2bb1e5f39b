// Package campaign holds the targeting-campaign catalog and the selection
// rule that matches players to campaigns.
package campaign

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AccelByte/extend-retention-engine/pkg/model"
)

// Defaults applied to unset fields on campaign creation, in seconds.
const (
	DefaultDurationSec = 86400
	DefaultIntervalSec = 86400
)

// ErrInvalidCampaign indicates the campaign spec failed validation at the
// admin boundary.
var ErrInvalidCampaign = errors.New("invalid campaign")

// Spec is the admin-facing payload for creating a campaign. Zero values get
// catalog defaults. Duration and Interval are in seconds.
type Spec struct {
	Name        string             `json:"name" yaml:"name"`
	Type        model.CampaignType `json:"type" yaml:"type"`
	RiskLevel   model.RiskLevel    `json:"riskLevel" yaml:"riskLevel"`
	Segments    []string           `json:"segments" yaml:"segments"`
	MinSpending float64            `json:"minSpending" yaml:"minSpending"`
	MaxSpending float64            `json:"maxSpending" yaml:"maxSpending"`
	Subject     string             `json:"subject" yaml:"subject"`
	Message     string             `json:"message" yaml:"message"`
	Discount    float64            `json:"discount" yaml:"discount"`
	Rewards     []string           `json:"rewards" yaml:"rewards"`
	Duration    int64              `json:"duration" yaml:"duration"`
	Interval    int64              `json:"interval" yaml:"interval"`
}

// Validate rejects malformed specs before they reach the catalog.
func (s *Spec) Validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("%w: unknown campaign type %q", ErrInvalidCampaign, s.Type)
	}
	if !s.RiskLevel.Valid() {
		return fmt.Errorf("%w: unknown risk level %q", ErrInvalidCampaign, s.RiskLevel)
	}
	if s.MinSpending < 0 {
		return fmt.Errorf("%w: minSpending must be non-negative", ErrInvalidCampaign)
	}
	if s.MaxSpending != 0 && s.MaxSpending < s.MinSpending {
		return fmt.Errorf("%w: maxSpending below minSpending", ErrInvalidCampaign)
	}
	if s.Duration < 0 || s.Interval < 0 {
		return fmt.Errorf("%w: duration and interval must be non-negative", ErrInvalidCampaign)
	}
	return nil
}

// Build materializes the spec into a campaign with a generated id and
// defaults filled in.
func (s *Spec) Build(now time.Time) *model.Campaign {
	c := &model.Campaign{
		ID:          uuid.NewString(),
		Name:        s.Name,
		Type:        s.Type,
		RiskLevel:   s.RiskLevel,
		Segments:    s.Segments,
		MinSpending: s.MinSpending,
		MaxSpending: s.MaxSpending,
		Subject:     s.Subject,
		Message:     s.Message,
		Discount:    s.Discount,
		Rewards:     s.Rewards,
		Duration:    s.Duration,
		Interval:    s.Interval,
		Status:      model.CampaignActive,
		CreatedAt:   now,
	}
	if c.Segments == nil {
		c.Segments = []string{}
	}
	if c.MaxSpending == 0 {
		c.MaxSpending = model.UnlimitedSpending
	}
	if c.Duration == 0 {
		c.Duration = DefaultDurationSec
	}
	if c.Interval == 0 {
		c.Interval = DefaultIntervalSec
	}
	return c
}
