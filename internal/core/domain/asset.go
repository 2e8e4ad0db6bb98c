package domain

// AssetAvailability constrains when a fallback asset may be served.
type AssetAvailability string

const (
	AvailabilityAlways      AssetAvailability = "always"
	AvailabilityOnlineOnly  AssetAvailability = "online_only"
	AvailabilityOfflineOnly AssetAvailability = "offline_only"
)

// AssetTier is the quality band of a selected asset, derived from priority.
type AssetTier string

const (
	TierPrimary   AssetTier = "primary"
	TierFallback  AssetTier = "fallback"
	TierEmergency AssetTier = "emergency"
)

// TierForPriority maps a catalog priority to its quality band.
func TierForPriority(priority int) AssetTier {
	switch {
	case priority >= 8:
		return TierPrimary
	case priority >= 5:
		return TierFallback
	default:
		return TierEmergency
	}
}

// FallbackAsset is a pre-catalogued resource substitutable for a failed
// dynamically-generated one. Catalog entries are static configuration.
type FallbackAsset struct {
	URL          string            `json:"url"          yaml:"url"`
	Label        string            `json:"label"        yaml:"label"`
	Description  string            `json:"description"  yaml:"description"`
	ContextTags  []string          `json:"context_tags" yaml:"context_tags"`
	Priority     int               `json:"priority"     yaml:"priority"`
	Availability AssetAvailability `json:"availability" yaml:"availability"`
}

// HasTag reports whether the asset carries the given context tag.
func (a FallbackAsset) HasTag(tag string) bool {
	for _, t := range a.ContextTags {
		if t == tag {
			return true
		}
	}
	return false
}
