package dispatch

import (
	"testing"
	"time"

	"github.com/AccelByte/extend-retention-engine/pkg/model"
)

func TestPersonalize(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	player := &model.PlayerState{
		UserID:       "user-9",
		PlayerName:   "Nova",
		LastActivity: now.Add(-5 * 24 * time.Hour),
		Level:        12,
		LastScore:    4200,
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{
			name:     "all placeholders",
			template: "Hey {playerName}, it's been {daysAway} days! Beat {lastScore} on level {level}?",
			expected: "Hey Nova, it's been 5 days! Beat 4200 on level 12?",
		},
		{
			name:     "no placeholders",
			template: "plain message",
			expected: "plain message",
		},
		{
			name:     "unknown placeholder passes through",
			template: "hello {clanName}",
			expected: "hello {clanName}",
		},
		{
			name:     "repeated placeholder",
			template: "{playerName} {playerName}",
			expected: "Nova Nova",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Personalize(tt.template, player, now); got != tt.expected {
				t.Errorf("Personalize() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestPersonalize_FallsBackToUserID(t *testing.T) {
	now := time.Now()
	player := &model.PlayerState{UserID: "user-1", LastActivity: now}

	got := Personalize("hi {playerName}", player, now)
	if got != "hi user-1" {
		t.Errorf("Personalize() = %q, expected user id fallback", got)
	}
}

func TestPersonalize_NeverNegativeDaysAway(t *testing.T) {
	now := time.Now()
	player := &model.PlayerState{UserID: "u", LastActivity: now.Add(time.Hour)}

	got := Personalize("{daysAway}", player, now)
	if got != "0" {
		t.Errorf("Personalize() = %q, expected 0 for future last activity", got)
	}
}
