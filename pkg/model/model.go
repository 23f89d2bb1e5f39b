// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package model

import (
	"math"
	"time"
)

// ActivityType enumerates the behavioral events the engine ingests.
type ActivityType string

const (
	ActivitySessionStart  ActivityType = "session_start"
	ActivitySessionEnd    ActivityType = "session_end"
	ActivityPurchase      ActivityType = "purchase"
	ActivityLevelComplete ActivityType = "level_complete"
	ActivityGameEvent     ActivityType = "game_event"
)

// Valid reports whether t is one of the enumerated activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivitySessionStart, ActivitySessionEnd, ActivityPurchase,
		ActivityLevelComplete, ActivityGameEvent:
		return true
	}
	return false
}

// PlayerStatus is the lifecycle status of a tracked player.
type PlayerStatus string

const (
	StatusActive  PlayerStatus = "active"
	StatusChurned PlayerStatus = "churned"
)

// RiskLevel is the discretized churn-risk tier of a player.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid reports whether l is one of the enumerated risk levels.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// CampaignType enumerates the retention action kinds a campaign can carry.
type CampaignType string

const (
	CampaignPush          CampaignType = "push"
	CampaignEmail         CampaignType = "email"
	CampaignSMS           CampaignType = "sms"
	CampaignInGameOffer   CampaignType = "in_game_offer"
	CampaignComebackBonus CampaignType = "comeback_bonus"
)

// Valid reports whether t is one of the enumerated campaign types.
func (t CampaignType) Valid() bool {
	switch t {
	case CampaignPush, CampaignEmail, CampaignSMS,
		CampaignInGameOffer, CampaignComebackBonus:
		return true
	}
	return false
}

// CampaignStatus is the lifecycle status of a campaign.
type CampaignStatus string

const (
	CampaignActive   CampaignStatus = "active"
	CampaignInactive CampaignStatus = "inactive"
)

// ActionStatus records the outcome of a dispatch attempt.
type ActionStatus string

const (
	ActionSent   ActionStatus = "sent"
	ActionFailed ActionStatus = "failed"
)

// ActivityEvent is an immutable, append-only behavioral event for a player.
type ActivityEvent struct {
	ID        uint         `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID    string       `gorm:"index:idx_activity_user_ts;not null" json:"userId"`
	Type      ActivityType `gorm:"not null" json:"type"`
	Amount    float64      `json:"amount,omitempty"`
	Level     int          `json:"level,omitempty"`
	Score     int          `json:"score,omitempty"`
	Timestamp time.Time    `gorm:"index:idx_activity_user_ts" json:"timestamp"`
}

func (ActivityEvent) TableName() string { return "activity_events" }

// PlayerState is the single per-player row upserted on every event and every
// risk evaluation. LastActivity only ever moves forward in time; RiskLevel is
// always derived from RiskScore.
type PlayerState struct {
	UserID       string       `gorm:"primaryKey" json:"userId"`
	PlayerName   string       `json:"playerName,omitempty"`
	Email        string       `json:"email,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	LastActivity time.Time    `gorm:"index" json:"lastActivity"`
	Status       PlayerStatus `gorm:"index;default:active" json:"status"`
	RiskScore    float64      `json:"riskScore"`
	RiskLevel    RiskLevel    `json:"riskLevel"`
	TotalSpent   float64      `json:"totalSpent"`
	SessionCount int          `json:"sessionCount"`
	Level        int          `json:"level"`
	LastScore    int          `json:"lastScore"`
	Segment      string       `gorm:"index" json:"segment,omitempty"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (PlayerState) TableName() string { return "player_activity" }

// UnlimitedSpending is the default upper spend bound for campaign targeting.
const UnlimitedSpending = math.MaxFloat64

// Campaign is a targeting rule plus an action template, re-fireable once per
// Interval. LastRun is advanced only by the periodic campaign sweep.
type Campaign struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	Name        string         `json:"name"`
	Type        CampaignType   `gorm:"not null" json:"type"`
	RiskLevel   RiskLevel      `gorm:"index" json:"riskLevel"`
	Segments    []string       `gorm:"serializer:json" json:"segments"`
	MinSpending float64        `json:"minSpending"`
	MaxSpending float64        `json:"maxSpending"`
	Subject     string         `json:"subject,omitempty"`
	Message     string         `json:"message"`
	Discount    float64        `json:"discount,omitempty"`
	Rewards     []string       `gorm:"serializer:json" json:"rewards,omitempty"`
	Duration    int64          `json:"duration"` // seconds
	Interval    int64          `json:"interval"` // seconds
	LastRun     time.Time      `json:"lastRun"`
	Status      CampaignStatus `gorm:"index;default:active" json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func (Campaign) TableName() string { return "retention_campaigns" }

// IsActive reports whether the campaign is eligible for selection.
func (c *Campaign) IsActive() bool { return c.Status == CampaignActive }

// TTL is the campaign duration as a time.Duration. Rewards issued by the
// campaign expire after this long.
func (c *Campaign) TTL() time.Duration {
	return time.Duration(c.Duration) * time.Second
}

// DueAt reports whether the campaign sweep may re-fire the campaign at now.
func (c *Campaign) DueAt(now time.Time) bool {
	return now.Sub(c.LastRun) >= time.Duration(c.Interval)*time.Second
}

// RetentionAction is the immutable audit record appended after a dispatch
// attempt.
type RetentionAction struct {
	ID         string       `gorm:"primaryKey" json:"id"`
	UserID     string       `gorm:"index" json:"userId"`
	CampaignID string       `gorm:"index" json:"campaignId"`
	RiskLevel  RiskLevel    `json:"riskLevel"`
	Timestamp  time.Time    `json:"timestamp"`
	Status     ActionStatus `json:"status"`
}

func (RetentionAction) TableName() string { return "retention_actions" }

// Offer is a transient in-game reward written to both the durable store and
// the real-time cache.
type Offer struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"index" json:"userId"`
	CampaignID string    `json:"campaignId"`
	Message    string    `json:"message"`
	Discount   float64   `json:"discount"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

func (Offer) TableName() string { return "in_game_offers" }

// ComebackBonus is a transient comeback reward written to both the durable
// store and the real-time cache.
type ComebackBonus struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"index" json:"userId"`
	CampaignID string    `json:"campaignId"`
	Message    string    `json:"message"`
	Rewards    []string  `gorm:"serializer:json" json:"rewards"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

func (ComebackBonus) TableName() string { return "comeback_bonuses" }

// RetentionMetrics holds cohort-level retention aggregates.
type RetentionMetrics struct {
	TotalPlayers   int64   `json:"totalPlayers"`
	ActivePlayers  int64   `json:"activePlayers"`
	AtRiskPlayers  int64   `json:"atRiskPlayers"`
	ChurnedPlayers int64   `json:"churnedPlayers"`
	RetentionRate  float64 `json:"retentionRate"`
	ChurnRate      float64 `json:"churnRate"`
}
