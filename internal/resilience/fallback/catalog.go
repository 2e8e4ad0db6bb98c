// Package fallback selects pre-catalogued assets to stand in for failed
// image generation, under connectivity and availability constraints.
package fallback

import (
	"sort"

	"github.com/vietddude/lifeline/internal/core/domain"
)

// Catalog is a static, prioritized set of fallback assets. Runtime state
// lives only in the selector's validation cache.
type Catalog struct {
	assets []domain.FallbackAsset
}

// NewCatalog creates a catalog from the given entries.
func NewCatalog(assets []domain.FallbackAsset) *Catalog {
	cp := make([]domain.FallbackAsset, len(assets))
	copy(cp, assets)
	return &Catalog{assets: cp}
}

// DefaultCatalog returns the built-in assets shipped with the service.
// Local paths are bundled with the client and need no network.
func DefaultCatalog() *Catalog {
	return NewCatalog([]domain.FallbackAsset{
		{
			URL:          "https://cdn.lifeline.dev/assets/sunrise-peak.jpg",
			Label:        "Sunrise over the peak",
			Description:  "High-quality hero image for motivational replies",
			ContextTags:  []string{"motivational", "celebration"},
			Priority:     9,
			Availability: domain.AvailabilityOnlineOnly,
		},
		{
			URL:          "https://cdn.lifeline.dev/assets/warm-welcome.jpg",
			Label:        "Warm welcome",
			Description:  "High-quality greeting visual",
			ContextTags:  []string{"greeting", "default"},
			Priority:     8,
			Availability: domain.AvailabilityOnlineOnly,
		},
		{
			URL:          "https://cdn.lifeline.dev/assets/quiet-focus.jpg",
			Label:        "Quiet focus",
			Description:  "Mid-tier visual for thinking and working states",
			ContextTags:  []string{"thinking", "default"},
			Priority:     6,
			Availability: domain.AvailabilityOnlineOnly,
		},
		{
			URL:          "https://cdn.lifeline.dev/assets/gentle-retry.jpg",
			Label:        "Gentle retry",
			Description:  "Mid-tier visual shown alongside error recoveries",
			ContextTags:  []string{"error", "default"},
			Priority:     5,
			Availability: domain.AvailabilityAlways,
		},
		{
			URL:          "assets/offline/steady-lantern.jpg",
			Label:        "Steady lantern",
			Description:  "Bundled visual for offline sessions",
			ContextTags:  []string{"default", "error", "thinking"},
			Priority:     4,
			Availability: domain.AvailabilityOfflineOnly,
		},
		{
			URL:          "assets/offline/morning-coffee.jpg",
			Label:        "Morning coffee",
			Description:  "Bundled greeting visual for offline sessions",
			ContextTags:  []string{"greeting", "motivational"},
			Priority:     3,
			Availability: domain.AvailabilityOfflineOnly,
		},
		{
			URL:          "assets/offline/plain-backdrop.jpg",
			Label:        "Plain backdrop",
			Description:  "Last-resort neutral visual, always available",
			ContextTags:  []string{"default"},
			Priority:     1,
			Availability: domain.AvailabilityAlways,
		},
	})
}

// Assets returns a copy of every catalog entry.
func (c *Catalog) Assets() []domain.FallbackAsset {
	cp := make([]domain.FallbackAsset, len(c.assets))
	copy(cp, c.assets)
	return cp
}

// Candidates returns entries matching the tag (or "default") whose
// availability is compatible with the connectivity state, sorted by
// priority descending.
func (c *Catalog) Candidates(
	tag string,
	state domain.ConnectivityState,
	allowOfflineOnly bool,
) []domain.FallbackAsset {
	offline := state == domain.ConnectivityOffline

	var out []domain.FallbackAsset
	for _, a := range c.assets {
		if !a.HasTag(tag) && !a.HasTag("default") {
			continue
		}
		switch a.Availability {
		case domain.AvailabilityOnlineOnly:
			if offline {
				continue
			}
		case domain.AvailabilityOfflineOnly:
			if !offline && !allowOfflineOnly {
				continue
			}
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// LastResort returns the lowest-priority entry whose availability is
// "always". It is assumed reachable and served without validation.
func (c *Catalog) LastResort() (domain.FallbackAsset, bool) {
	var best domain.FallbackAsset
	found := false
	for _, a := range c.assets {
		if a.Availability != domain.AvailabilityAlways {
			continue
		}
		if !found || a.Priority < best.Priority {
			best = a
			found = true
		}
	}
	return best, found
}
