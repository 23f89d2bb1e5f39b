// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/AccelByte/extend-retention-engine/pkg/model"
)

// Postgres implements Store on top of a PostgreSQL database via gorm.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects to Postgres with retry, runs migrations, and returns
// the store.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	var db *gorm.DB

	b := backoff.NewExponentialBackOff()
	op := func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			logrus.Warnf("Postgres connection failed: %v, retrying...", err)
			return err
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, 5), ctx)); err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&model.ActivityEvent{},
		&model.PlayerState{},
		&model.Campaign{},
		&model.RetentionAction{},
		&model.Offer{},
		&model.ComebackBonus{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logrus.Info("Postgres store initialized")
	return &Postgres{db: db}, nil
}

// NewPostgres wraps an existing gorm connection. Used by tests.
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) AppendActivity(ctx context.Context, ev *model.ActivityEvent) error {
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("failed to append activity for user %s: %w", ev.UserID, err)
	}
	return nil
}

func (s *Postgres) RecentActivity(ctx context.Context, userID string, limit int) ([]model.ActivityEvent, error) {
	var events []model.ActivityEvent
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query activity for user %s: %w", userID, err)
	}
	return events, nil
}

func (s *Postgres) ActivityAfter(ctx context.Context, afterID uint, limit int) ([]model.ActivityEvent, error) {
	var events []model.ActivityEvent
	err := s.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query activity after id %d: %w", afterID, err)
	}
	return events, nil
}

func (s *Postgres) LatestActivityID(ctx context.Context) (uint, error) {
	var ev model.ActivityEvent
	err := s.db.WithContext(ctx).Order("id DESC").First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query latest activity id: %w", err)
	}
	return ev.ID, nil
}

func (s *Postgres) TouchPlayer(ctx context.Context, userID string, ts time.Time) error {
	row := model.PlayerState{
		UserID:       userID,
		LastActivity: ts,
		Status:       model.StatusActive,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_activity": gorm.Expr("GREATEST(player_activity.last_activity, excluded.last_activity)"),
			"status":        string(model.StatusActive),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to touch player %s: %w", userID, err)
	}
	return nil
}

func (s *Postgres) ApplyActivity(ctx context.Context, ev *model.ActivityEvent) error {
	assigns := map[string]interface{}{
		"last_activity": gorm.Expr("GREATEST(player_activity.last_activity, excluded.last_activity)"),
		"status":        string(model.StatusActive),
	}

	row := model.PlayerState{
		UserID:       ev.UserID,
		LastActivity: ev.Timestamp,
		Status:       model.StatusActive,
	}

	switch ev.Type {
	case model.ActivityPurchase:
		assigns["total_spent"] = gorm.Expr("player_activity.total_spent + ?", ev.Amount)
		row.TotalSpent = ev.Amount
	case model.ActivitySessionStart:
		assigns["session_count"] = gorm.Expr("player_activity.session_count + 1")
		row.SessionCount = 1
	case model.ActivityLevelComplete:
		assigns["level"] = ev.Level
		assigns["last_score"] = ev.Score
		row.Level = ev.Level
		row.LastScore = ev.Score
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(assigns),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to apply %s activity for user %s: %w", ev.Type, ev.UserID, err)
	}
	return nil
}

func (s *Postgres) UpsertPlayer(ctx context.Context, p *model.PlayerState) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"player_name", "email", "phone", "last_activity", "status",
			"total_spent", "session_count", "level", "last_score", "segment",
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("excluded.last_activity >= player_activity.last_activity"),
		}},
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("failed to upsert player %s: %w", p.UserID, err)
	}
	return nil
}

func (s *Postgres) GetPlayer(ctx context.Context, userID string) (*model.PlayerState, error) {
	var p model.PlayerState
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %s: %w", userID, err)
	}
	return &p, nil
}

func (s *Postgres) UpdateRisk(ctx context.Context, userID string, score float64, level model.RiskLevel) error {
	err := s.db.WithContext(ctx).Model(&model.PlayerState{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"risk_score": score,
			"risk_level": string(level),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update risk for player %s: %w", userID, err)
	}
	return nil
}

func (s *Postgres) SetPlayerStatus(ctx context.Context, userID string, status model.PlayerStatus) error {
	err := s.db.WithContext(ctx).Model(&model.PlayerState{}).
		Where("user_id = ?", userID).
		Update("status", string(status)).Error
	if err != nil {
		return fmt.Errorf("failed to set status for player %s: %w", userID, err)
	}
	return nil
}

func (s *Postgres) PlayersInactiveSince(ctx context.Context, cutoff time.Time) ([]model.PlayerState, error) {
	var players []model.PlayerState
	err := s.db.WithContext(ctx).
		Where("last_activity < ? AND status <> ?", cutoff, string(model.StatusChurned)).
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query inactive players: %w", err)
	}
	return players, nil
}

func (s *Postgres) PlayersMatching(ctx context.Context, segments []string, minSpending, maxSpending float64) ([]model.PlayerState, error) {
	q := s.db.WithContext(ctx).
		Where("status <> ?", string(model.StatusChurned)).
		Where("total_spent >= ?", minSpending)
	if maxSpending < model.UnlimitedSpending {
		q = q.Where("total_spent <= ?", maxSpending)
	}
	if len(segments) > 0 {
		q = q.Where("segment IN ?", segments)
	}

	var players []model.PlayerState
	if err := q.Find(&players).Error; err != nil {
		return nil, fmt.Errorf("failed to query matching players: %w", err)
	}
	return players, nil
}

func (s *Postgres) CountPlayers(ctx context.Context, activeCutoff time.Time) (total, active, atRisk, churned int64, err error) {
	db := s.db.WithContext(ctx).Model(&model.PlayerState{})

	if err = db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to count players: %w", err)
	}
	if err = db.Session(&gorm.Session{}).
		Where("last_activity >= ?", activeCutoff).
		Count(&active).Error; err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to count active players: %w", err)
	}
	if err = db.Session(&gorm.Session{}).
		Where("last_activity < ? AND status <> ?", activeCutoff, string(model.StatusChurned)).
		Count(&atRisk).Error; err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to count at-risk players: %w", err)
	}
	if err = db.Session(&gorm.Session{}).
		Where("status = ?", string(model.StatusChurned)).
		Count(&churned).Error; err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to count churned players: %w", err)
	}
	return total, active, atRisk, churned, nil
}

func (s *Postgres) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create campaign %s: %w", c.ID, err)
	}
	return nil
}

func (s *Postgres) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	var c model.Campaign
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign %s: %w", id, err)
	}
	return &c, nil
}

func (s *Postgres) ListCampaigns(ctx context.Context) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	err := s.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&campaigns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

func (s *Postgres) SetCampaignStatus(ctx context.Context, id string, status model.CampaignStatus) error {
	res := s.db.WithContext(ctx).Model(&model.Campaign{}).
		Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		return fmt.Errorf("failed to set status for campaign %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

func (s *Postgres) SetCampaignLastRun(ctx context.Context, id string, t time.Time) error {
	err := s.db.WithContext(ctx).Model(&model.Campaign{}).
		Where("id = ?", id).
		Update("last_run", t).Error
	if err != nil {
		return fmt.Errorf("failed to set last run for campaign %s: %w", id, err)
	}
	return nil
}

func (s *Postgres) AppendAction(ctx context.Context, a *model.RetentionAction) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to append action for user %s: %w", a.UserID, err)
	}
	return nil
}

func (s *Postgres) SaveOffer(ctx context.Context, o *model.Offer) error {
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("failed to save offer for user %s: %w", o.UserID, err)
	}
	return nil
}

func (s *Postgres) SaveBonus(ctx context.Context, b *model.ComebackBonus) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to save bonus for user %s: %w", b.UserID, err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *Postgres) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
