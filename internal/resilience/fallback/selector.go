package fallback

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/lifeline/internal/core/cache"
	"github.com/vietddude/lifeline/internal/core/domain"
	"github.com/vietddude/lifeline/internal/resilience/connectivity"
	"github.com/vietddude/lifeline/internal/resilience/metrics"
)

// highQualityPriority is the partition bound: with PreferHighQuality set,
// candidates at or above it are tried strictly before all others.
const highQualityPriority = 7

// Checker validates that an asset URL is reachable.
type Checker interface {
	Check(ctx context.Context, url string) error
}

// Options tune one selection call.
type Options struct {
	PreferHighQuality bool
	AllowOfflineOnly  bool
	MaxAttempts       int
}

// Selection is the outcome of a selector call. An empty URL is the absolute
// failure sentinel; callers always have something to render.
type Selection struct {
	URL          string           `json:"url"`
	Label        string           `json:"label"`
	Description  string           `json:"description"`
	Tier         domain.AssetTier `json:"tier"`
	UsedFallback bool             `json:"used_fallback"`
}

// Config holds selector settings.
type Config struct {
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// Selector picks the best reachable asset for a context tag. It never
// returns an error.
type Selector struct {
	catalog *Catalog
	conn    connectivity.Source
	checker Checker
	cache   *cache.Cache[string, bool]
	cfg     Config
	log     *slog.Logger
}

// NewSelector creates a selector over the given catalog.
func NewSelector(catalog *Catalog, conn connectivity.Source, checker Checker, cfg Config) *Selector {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	return &Selector{
		catalog: catalog,
		conn:    conn,
		checker: checker,
		cache:   cache.New[string, bool](cfg.CacheTTL),
		cfg:     cfg,
		log:     slog.Default().With("component", "fallback"),
	}
}

// Select returns the best matching asset for the tag under the current
// connectivity state.
func (s *Selector) Select(ctx context.Context, contextTag string, opts Options) Selection {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = s.cfg.MaxAttempts
	}

	state := s.conn.State()
	candidates := s.catalog.Candidates(contextTag, state, opts.AllowOfflineOnly)

	if opts.PreferHighQuality {
		candidates = partitionHighQuality(candidates)
	}

	attempts := 0
	for _, a := range candidates {
		if attempts >= maxAttempts {
			break
		}
		attempts++
		if s.validate(ctx, a) {
			return s.selection(a)
		}
	}

	// No candidate validated: serve the always-available last resort
	// without probing it.
	if a, ok := s.catalog.LastResort(); ok {
		s.log.Debug("Serving last-resort asset", "tag", contextTag, "label", a.Label)
		return s.selection(a)
	}

	s.log.Warn("No fallback asset available", "tag", contextTag)
	return Selection{Tier: domain.TierEmergency, UsedFallback: true}
}

func (s *Selector) selection(a domain.FallbackAsset) Selection {
	tier := domain.TierForPriority(a.Priority)
	metrics.FallbackSelections.WithLabelValues(string(tier)).Inc()
	return Selection{
		URL:          a.URL,
		Label:        a.Label,
		Description:  a.Description,
		Tier:         tier,
		UsedFallback: tier != domain.TierPrimary,
	}
}

// validate checks reachability through the TTL cache, probing on a miss.
// Negative results are cached too, so known-dead assets are not re-probed.
func (s *Selector) validate(ctx context.Context, a domain.FallbackAsset) bool {
	// Bundled assets need no network and no probe.
	if a.Availability == domain.AvailabilityOfflineOnly {
		return true
	}

	if valid, ok := s.cache.Get(a.URL); ok {
		metrics.ValidationProbes.WithLabelValues("cache_hit").Inc()
		return valid
	}

	err := s.checker.Check(ctx, a.URL)
	valid := err == nil
	s.cache.Set(a.URL, valid)

	if valid {
		metrics.ValidationProbes.WithLabelValues("ok").Inc()
	} else {
		metrics.ValidationProbes.WithLabelValues("failed").Inc()
		s.log.Debug("Asset validation failed", "url", a.URL, "error", err)
	}
	return valid
}

// partitionHighQuality moves candidates at or above the high-quality bound
// ahead of the rest, preserving priority order inside each part.
func partitionHighQuality(assets []domain.FallbackAsset) []domain.FallbackAsset {
	high := make([]domain.FallbackAsset, 0, len(assets))
	low := make([]domain.FallbackAsset, 0, len(assets))
	for _, a := range assets {
		if a.Priority >= highQualityPriority {
			high = append(high, a)
		} else {
			low = append(low, a)
		}
	}
	return append(high, low...)
}
