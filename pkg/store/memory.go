package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AccelByte/extend-retention-engine/pkg/model"
)

// Memory is an in-memory Store used by unit tests. It applies the same
// monotonic LastActivity guard as the Postgres implementation.
type Memory struct {
	mu        sync.Mutex
	nextEvent uint
	events    []model.ActivityEvent
	players   map[string]*model.PlayerState
	campaigns []*model.Campaign
	byID      map[string]*model.Campaign
	actions   []model.RetentionAction
	offers    []model.Offer
	bonuses   []model.ComebackBonus

	// FailReads makes every activity read return this error. Used to test
	// the scorer's fail-open path.
	FailReads error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		players: make(map[string]*model.PlayerState),
		byID:    make(map[string]*model.Campaign),
	}
}

func (s *Memory) AppendActivity(_ context.Context, ev *model.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEvent++
	ev.ID = s.nextEvent
	s.events = append(s.events, *ev)
	return nil
}

func (s *Memory) RecentActivity(_ context.Context, userID string, limit int) ([]model.ActivityEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}

	var events []model.ActivityEvent
	for _, ev := range s.events {
		if ev.UserID == userID {
			events = append(events, ev)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (s *Memory) ActivityAfter(_ context.Context, afterID uint, limit int) ([]model.ActivityEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}

	var events []model.ActivityEvent
	for _, ev := range s.events {
		if ev.ID > afterID {
			events = append(events, ev)
		}
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (s *Memory) LatestActivityID(_ context.Context) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextEvent, nil
}

func (s *Memory) TouchPlayer(_ context.Context, userID string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.playerLocked(userID)
	if !ts.Before(p.LastActivity) {
		p.LastActivity = ts
	}
	p.Status = model.StatusActive
	return nil
}

func (s *Memory) ApplyActivity(_ context.Context, ev *model.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.playerLocked(ev.UserID)
	if !ev.Timestamp.Before(p.LastActivity) {
		p.LastActivity = ev.Timestamp
	}
	p.Status = model.StatusActive

	switch ev.Type {
	case model.ActivityPurchase:
		p.TotalSpent += ev.Amount
	case model.ActivitySessionStart:
		p.SessionCount++
	case model.ActivityLevelComplete:
		p.Level = ev.Level
		p.LastScore = ev.Score
	}
	return nil
}

func (s *Memory) UpsertPlayer(_ context.Context, p *model.PlayerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.players[p.UserID]
	if ok && p.LastActivity.Before(existing.LastActivity) {
		return nil
	}
	cp := *p
	s.players[p.UserID] = &cp
	return nil
}

func (s *Memory) GetPlayer(_ context.Context, userID string) (*model.PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[userID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Memory) UpdateRisk(_ context.Context, userID string, score float64, level model.RiskLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[userID]; ok {
		p.RiskScore = score
		p.RiskLevel = level
	}
	return nil
}

func (s *Memory) SetPlayerStatus(_ context.Context, userID string, status model.PlayerStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[userID]; ok {
		p.Status = status
	}
	return nil
}

func (s *Memory) PlayersInactiveSince(_ context.Context, cutoff time.Time) ([]model.PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PlayerState
	for _, p := range s.sortedPlayersLocked() {
		if p.LastActivity.Before(cutoff) && p.Status != model.StatusChurned {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *Memory) PlayersMatching(_ context.Context, segments []string, minSpending, maxSpending float64) ([]model.PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PlayerState
	for _, p := range s.sortedPlayersLocked() {
		if p.Status == model.StatusChurned {
			continue
		}
		if p.TotalSpent < minSpending || p.TotalSpent > maxSpending {
			continue
		}
		if len(segments) > 0 && !contains(segments, p.Segment) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *Memory) CountPlayers(_ context.Context, activeCutoff time.Time) (total, active, atRisk, churned int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		total++
		if !p.LastActivity.Before(activeCutoff) {
			active++
		} else if p.Status != model.StatusChurned {
			atRisk++
		}
		if p.Status == model.StatusChurned {
			churned++
		}
	}
	return total, active, atRisk, churned, nil
}

func (s *Memory) CreateCampaign(_ context.Context, c *model.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.campaigns = append(s.campaigns, &cp)
	s.byID[c.ID] = &cp
	return nil
}

func (s *Memory) GetCampaign(_ context.Context, id string) (*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Memory) ListCampaigns(_ context.Context) ([]model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		out = append(out, *c)
	}
	return out, nil
}

func (s *Memory) SetCampaignStatus(_ context.Context, id string, status model.CampaignStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return ErrCampaignNotFound
	}
	c.Status = status
	return nil
}

func (s *Memory) SetCampaignLastRun(_ context.Context, id string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return ErrCampaignNotFound
	}
	c.LastRun = t
	return nil
}

func (s *Memory) AppendAction(_ context.Context, a *model.RetentionAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, *a)
	return nil
}

func (s *Memory) SaveOffer(_ context.Context, o *model.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offers = append(s.offers, *o)
	return nil
}

func (s *Memory) SaveBonus(_ context.Context, b *model.ComebackBonus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bonuses = append(s.bonuses, *b)
	return nil
}

func (s *Memory) Ping(context.Context) error { return nil }

// Actions returns a copy of the appended audit records. Test helper.
func (s *Memory) Actions() []model.RetentionAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.RetentionAction, len(s.actions))
	copy(out, s.actions)
	return out
}

// Offers returns a copy of the saved offers. Test helper.
func (s *Memory) Offers() []model.Offer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Offer, len(s.offers))
	copy(out, s.offers)
	return out
}

// Bonuses returns a copy of the saved bonuses. Test helper.
func (s *Memory) Bonuses() []model.ComebackBonus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ComebackBonus, len(s.bonuses))
	copy(out, s.bonuses)
	return out
}

func (s *Memory) playerLocked(userID string) *model.PlayerState {
	p, ok := s.players[userID]
	if !ok {
		p = &model.PlayerState{UserID: userID, Status: model.StatusActive}
		s.players[userID] = p
	}
	return p
}

func (s *Memory) sortedPlayersLocked() []*model.PlayerState {
	out := make([]*model.PlayerState, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
