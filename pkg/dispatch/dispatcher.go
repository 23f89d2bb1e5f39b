// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package dispatch executes a campaign's retention action for a specific
// player: message channels get a personalized send, reward campaigns get a
// durable row plus a cache entry, and every attempt leaves an audit record.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-retention-engine/pkg/cache"
	"github.com/AccelByte/extend-retention-engine/pkg/channel"
	"github.com/AccelByte/extend-retention-engine/pkg/metrics"
	"github.com/AccelByte/extend-retention-engine/pkg/model"
	"github.com/AccelByte/extend-retention-engine/pkg/store"
)

// DefaultSendTimeout bounds one channel send. A slow provider must not stall
// the sweep behind it; a timeout counts as a dispatch failure.
const DefaultSendTimeout = 10 * time.Second

var (
	// ErrUnknownCampaignType indicates a campaign type outside the
	// enumerated set. Callers log a warning and skip the campaign.
	ErrUnknownCampaignType = errors.New("unknown campaign type")

	// ErrNoContactAddress indicates the player has no address for the
	// campaign's channel.
	ErrNoContactAddress = errors.New("player has no contact address for channel")
)

// Dispatcher executes retention actions through the configured channels.
type Dispatcher struct {
	store       store.Store
	rewards     *cache.RewardCache
	notify      channel.Notification
	email       channel.Email
	sms         channel.SMS
	sendTimeout time.Duration
}

// Config carries the dispatcher's collaborators.
type Config struct {
	Store        store.Store
	Rewards      *cache.RewardCache
	Notification channel.Notification
	Email        channel.Email
	SMS          channel.SMS
	SendTimeout  time.Duration
}

// NewDispatcher creates a dispatcher. A zero SendTimeout gets
// DefaultSendTimeout.
func NewDispatcher(cfg Config) *Dispatcher {
	timeout := cfg.SendTimeout
	if timeout == 0 {
		timeout = DefaultSendTimeout
	}
	return &Dispatcher{
		store:       cfg.Store,
		rewards:     cfg.Rewards,
		notify:      cfg.Notification,
		email:       cfg.Email,
		sms:         cfg.SMS,
		sendTimeout: timeout,
	}
}

// Execute performs the campaign's action for the player and appends the
// audit record. The error reports the dispatch outcome; audit-write failures
// are logged, not returned, so one bad append cannot mask a delivered
// action.
func (d *Dispatcher) Execute(ctx context.Context, player *model.PlayerState, c *model.Campaign) error {
	now := time.Now()

	var err error
	switch c.Type {
	case model.CampaignPush:
		err = d.sendPush(ctx, player, c, now)
	case model.CampaignEmail:
		err = d.sendEmail(ctx, player, c, now)
	case model.CampaignSMS:
		err = d.sendSMS(ctx, player, c, now)
	case model.CampaignInGameOffer:
		err = d.grantOffer(ctx, player, c, now)
	case model.CampaignComebackBonus:
		err = d.grantBonus(ctx, player, c, now)
	default:
		logrus.Warnf("skipping campaign %s: unknown type %q", c.ID, c.Type)
		return fmt.Errorf("%w: %q", ErrUnknownCampaignType, c.Type)
	}

	status := model.ActionSent
	if err != nil {
		status = model.ActionFailed
		logrus.Errorf("dispatch failed for user %s, campaign %s: %v", player.UserID, c.ID, err)
	} else {
		logrus.Infof("dispatched %s campaign %s to user %s", c.Type, c.ID, player.UserID)
	}
	metrics.DispatchTotal.WithLabelValues(string(c.Type), string(status)).Inc()

	action := &model.RetentionAction{
		ID:         uuid.NewString(),
		UserID:     player.UserID,
		CampaignID: c.ID,
		RiskLevel:  player.RiskLevel,
		Timestamp:  now,
		Status:     status,
	}
	if auditErr := d.store.AppendAction(ctx, action); auditErr != nil {
		logrus.Errorf("failed to append audit record for user %s, campaign %s: %v",
			player.UserID, c.ID, auditErr)
	}

	return err
}

func (d *Dispatcher) sendPush(ctx context.Context, p *model.PlayerState, c *model.Campaign, now time.Time) error {
	msg := Personalize(c.Message, p, now)
	data := map[string]string{
		"campaignId": c.ID,
		"type":       string(c.Type),
	}
	return d.bounded(ctx, func(ctx context.Context) error {
		return d.notify.Send(ctx, p.UserID, msg, data)
	})
}

func (d *Dispatcher) sendEmail(ctx context.Context, p *model.PlayerState, c *model.Campaign, now time.Time) error {
	if p.Email == "" {
		return fmt.Errorf("%w: email", ErrNoContactAddress)
	}
	subject := Personalize(c.Subject, p, now)
	body := Personalize(c.Message, p, now)
	data := map[string]string{"campaignId": c.ID}
	return d.bounded(ctx, func(ctx context.Context) error {
		return d.email.Send(ctx, p.Email, subject, body, data)
	})
}

func (d *Dispatcher) sendSMS(ctx context.Context, p *model.PlayerState, c *model.Campaign, now time.Time) error {
	if p.Phone == "" {
		return fmt.Errorf("%w: sms", ErrNoContactAddress)
	}
	msg := Personalize(c.Message, p, now)
	return d.bounded(ctx, func(ctx context.Context) error {
		return d.sms.Send(ctx, p.Phone, msg)
	})
}

// grantOffer writes the reward durably, then to the cache. The two writes
// are sequential and not transactional: one side can succeed while the other
// fails, and readers must tolerate that. The grant counts as delivered if at
// least one write landed.
func (d *Dispatcher) grantOffer(ctx context.Context, p *model.PlayerState, c *model.Campaign, now time.Time) error {
	offer := &model.Offer{
		ID:         uuid.NewString(),
		UserID:     p.UserID,
		CampaignID: c.ID,
		Message:    Personalize(c.Message, p, now),
		Discount:   c.Discount,
		ExpiresAt:  now.Add(c.TTL()),
	}

	storeErr := d.store.SaveOffer(ctx, offer)
	if storeErr != nil {
		logrus.Errorf("durable offer write failed for user %s: %v", p.UserID, storeErr)
	}
	cacheErr := d.rewards.PutOffer(ctx, offer, c.TTL())
	if cacheErr != nil {
		logrus.Errorf("cached offer write failed for user %s: %v", p.UserID, cacheErr)
	}

	if storeErr != nil && cacheErr != nil {
		return fmt.Errorf("offer grant failed entirely: %w", storeErr)
	}
	return nil
}

func (d *Dispatcher) grantBonus(ctx context.Context, p *model.PlayerState, c *model.Campaign, now time.Time) error {
	bonus := &model.ComebackBonus{
		ID:         uuid.NewString(),
		UserID:     p.UserID,
		CampaignID: c.ID,
		Message:    Personalize(c.Message, p, now),
		Rewards:    c.Rewards,
		ExpiresAt:  now.Add(c.TTL()),
	}

	storeErr := d.store.SaveBonus(ctx, bonus)
	if storeErr != nil {
		logrus.Errorf("durable bonus write failed for user %s: %v", p.UserID, storeErr)
	}
	cacheErr := d.rewards.PutBonus(ctx, bonus, c.TTL())
	if cacheErr != nil {
		logrus.Errorf("cached bonus write failed for user %s: %v", p.UserID, cacheErr)
	}

	if storeErr != nil && cacheErr != nil {
		return fmt.Errorf("bonus grant failed entirely: %w", storeErr)
	}
	return nil
}

// bounded runs one send with the dispatch timeout. The send runs in its own
// goroutine so an adapter that ignores context cancellation still cannot
// hold up the sweep.
func (d *Dispatcher) bounded(ctx context.Context, send func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- send(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("send timed out after %v: %w", d.sendTimeout, ctx.Err())
	}
}
