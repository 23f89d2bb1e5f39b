// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/AccelByte/extend-retention-engine/pkg/model"
)

var (
	// ErrPlayerNotFound indicates that no state row exists for the player.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrCampaignNotFound indicates that no campaign exists with the given id.
	ErrCampaignNotFound = errors.New("campaign not found")
)

// Store is the durable repository for the retention engine: the append-only
// activity log, per-player state, the campaign catalog, dispatch audit
// records, and reward rows.
//
// Consistency contract: the store and the real-time cache (cache.RewardCache)
// are two uncoordinated backends. Reward writes go store-first, cache-second,
// with no transaction spanning the two; readers must tolerate either side
// being ahead of the other.
//
// Per-player writes are last-write-wins on a monotonic LastActivity: an
// activity-driven upsert never moves LastActivity backwards, and
// risk-evaluation writes touch only the risk columns, so the at-risk scan and
// the state-refresh sweep can safely race on the same row.
type Store interface {
	// AppendActivity appends an immutable activity event and fills in its
	// generated id.
	AppendActivity(ctx context.Context, ev *model.ActivityEvent) error

	// RecentActivity returns up to limit events for the player, newest first.
	RecentActivity(ctx context.Context, userID string, limit int) ([]model.ActivityEvent, error)

	// ActivityAfter returns up to limit events with id greater than afterID,
	// in ascending id order. Used as the state-refresh cursor.
	ActivityAfter(ctx context.Context, afterID uint, limit int) ([]model.ActivityEvent, error)

	// LatestActivityID returns the highest event id, or 0 for an empty log.
	LatestActivityID(ctx context.Context) (uint, error)

	// TouchPlayer ensures a state row exists for the player and advances
	// LastActivity to ts if ts is not older than the stored value. Any
	// activity flips the player back to active.
	TouchPlayer(ctx context.Context, userID string, ts time.Time) error

	// ApplyActivity folds one event into the player's state row: purchases
	// add to TotalSpent, level completions set Level and LastScore, session
	// starts increment SessionCount. All variants also touch LastActivity.
	ApplyActivity(ctx context.Context, ev *model.ActivityEvent) error

	// UpsertPlayer writes a full player profile row. LastActivity is still
	// guarded: a stale write never moves it backwards.
	UpsertPlayer(ctx context.Context, p *model.PlayerState) error

	// GetPlayer returns the state row for a player, or ErrPlayerNotFound.
	GetPlayer(ctx context.Context, userID string) (*model.PlayerState, error)

	// UpdateRisk writes only the risk columns for a player.
	UpdateRisk(ctx context.Context, userID string, score float64, level model.RiskLevel) error

	// SetPlayerStatus transitions a player's lifecycle status.
	SetPlayerStatus(ctx context.Context, userID string, status model.PlayerStatus) error

	// PlayersInactiveSince returns non-churned players whose LastActivity is
	// older than cutoff.
	PlayersInactiveSince(ctx context.Context, cutoff time.Time) ([]model.PlayerState, error)

	// PlayersMatching returns non-churned players satisfying the campaign
	// targeting predicates. An empty segments slice matches every segment.
	PlayersMatching(ctx context.Context, segments []string, minSpending, maxSpending float64) ([]model.PlayerState, error)

	// CountPlayers returns the cohort counts used by the metrics aggregator.
	// activeCutoff is the LastActivity threshold separating active from
	// at-risk players.
	CountPlayers(ctx context.Context, activeCutoff time.Time) (total, active, atRisk, churned int64, err error)

	// CreateCampaign persists a new campaign.
	CreateCampaign(ctx context.Context, c *model.Campaign) error

	// GetCampaign returns a campaign by id, or ErrCampaignNotFound.
	GetCampaign(ctx context.Context, id string) (*model.Campaign, error)

	// ListCampaigns returns all campaigns in insertion order.
	ListCampaigns(ctx context.Context) ([]model.Campaign, error)

	// SetCampaignStatus activates or deactivates a campaign.
	SetCampaignStatus(ctx context.Context, id string, status model.CampaignStatus) error

	// SetCampaignLastRun advances a campaign's LastRun. Only the campaign
	// sweep calls this.
	SetCampaignLastRun(ctx context.Context, id string, t time.Time) error

	// AppendAction appends an immutable dispatch audit record.
	AppendAction(ctx context.Context, a *model.RetentionAction) error

	// SaveOffer persists a transient in-game offer.
	SaveOffer(ctx context.Context, o *model.Offer) error

	// SaveBonus persists a transient comeback bonus.
	SaveBonus(ctx context.Context, b *model.ComebackBonus) error

	// Ping reports store connectivity.
	Ping(ctx context.Context) error
}
