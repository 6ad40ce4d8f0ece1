package presence

import (
	"net/url"
	"strings"
	"time"
)

// Status is the derived liveness classification of a device. It is computed
// from heartbeat recency at read time and never stored, so it cannot drift
// from the underlying activity log.
type Status string

const (
	StatusOnline  Status = "online"
	StatusIdle    Status = "idle"
	StatusOffline Status = "offline"
)

type Thresholds struct {
	OnlineWindow time.Duration
	IdleWindow   time.Duration
}

// DefaultThresholds matches a 10s heartbeat cadence: the online window
// tolerates one dropped beat.
func DefaultThresholds() Thresholds {
	return Thresholds{
		OnlineWindow: 15 * time.Second,
		IdleWindow:   60 * time.Second,
	}
}

// Evaluate derives the status from the most recent heartbeat timestamp.
// A zero lastSeenAt means no heartbeat was ever received. The result is
// monotonic in elapsed time: without a new heartbeat it only degrades.
func Evaluate(lastSeenAt time.Time, now time.Time, th Thresholds) Status {
	if lastSeenAt.IsZero() {
		return StatusOffline
	}
	elapsed := now.Sub(lastSeenAt)
	switch {
	case elapsed <= th.OnlineWindow:
		return StatusOnline
	case elapsed <= th.IdleWindow:
		return StatusIdle
	default:
		return StatusOffline
	}
}

// OffTask reports whether an online device is browsing outside its allow-list.
// Devices that are idle or offline are never off-task, and an empty allow-list
// means nothing is restricted. Matching is deliberately permissive: a hostname
// matches an entry when it equals it, is a subdomain of it, or simply contains
// it.
func OffTask(status Status, activeTabURL string, allowedDomains []string) bool {
	if status != StatusOnline || len(allowedDomains) == 0 {
		return false
	}
	host := hostnameOf(activeTabURL)
	if host == "" {
		return true
	}
	for _, domain := range allowedDomains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) || strings.Contains(host, domain) {
			return false
		}
	}
	return true
}

func hostnameOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		// Bare hostnames without a scheme are common in extension reports.
		return strings.ToLower(strings.TrimSpace(rawURL))
	}
	return strings.ToLower(u.Hostname())
}
