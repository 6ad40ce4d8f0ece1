package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	th := DefaultThresholds()
	base := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		lastSeen time.Time
		now      time.Time
		want     Status
	}{
		{"just seen", base, base, StatusOnline},
		{"within online window", base, base.Add(10 * time.Second), StatusOnline},
		{"online window boundary", base, base.Add(15 * time.Second), StatusOnline},
		{"past online window", base, base.Add(20 * time.Second), StatusIdle},
		{"idle window boundary", base, base.Add(60 * time.Second), StatusIdle},
		{"past idle window", base, base.Add(90 * time.Second), StatusOffline},
		{"never seen", time.Time{}, base, StatusOffline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.lastSeen, tt.now, th))
		})
	}
}

// Status only degrades with elapsed time; once offline it stays offline.
func TestEvaluateMonotonic(t *testing.T) {
	th := DefaultThresholds()
	base := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

	prev := Evaluate(base, base, th)
	rank := map[Status]int{StatusOnline: 0, StatusIdle: 1, StatusOffline: 2}
	for elapsed := time.Second; elapsed <= 2*time.Minute; elapsed += time.Second {
		cur := Evaluate(base, base.Add(elapsed), th)
		assert.GreaterOrEqual(t, rank[cur], rank[prev], "status improved at %s without a heartbeat", elapsed)
		prev = cur
	}
	assert.Equal(t, StatusOffline, prev)
}

func TestEvaluateScenario(t *testing.T) {
	th := DefaultThresholds()
	start := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

	// Heartbeats at t=0 and t=10s; last seen is t=10s.
	lastSeen := start.Add(10 * time.Second)

	assert.Equal(t, StatusIdle, Evaluate(lastSeen, start.Add(20*time.Second), th))
	assert.Equal(t, StatusOffline, Evaluate(lastSeen, start.Add(90*time.Second), th))
}

func TestOffTask(t *testing.T) {
	allowed := []string{"khanacademy.org", "docs.google.com"}

	tests := []struct {
		name    string
		status  Status
		url     string
		domains []string
		want    bool
	}{
		{"exact domain", StatusOnline, "https://khanacademy.org/math", allowed, false},
		{"subdomain", StatusOnline, "https://www.khanacademy.org/", allowed, false},
		{"contains entry", StatusOnline, "https://khanacademy.org.cdn.example.com/", allowed, false},
		{"unrelated site", StatusOnline, "https://games.example.com/", allowed, true},
		{"idle never off-task", StatusIdle, "https://games.example.com/", allowed, false},
		{"offline never off-task", StatusOffline, "https://games.example.com/", allowed, false},
		{"no allow-list", StatusOnline, "https://games.example.com/", nil, false},
		{"empty url", StatusOnline, "", allowed, true},
		{"bare hostname", StatusOnline, "docs.google.com", allowed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OffTask(tt.status, tt.url, tt.domains))
		})
	}
}
