package offline

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/lifeline/internal/core/domain"
	"github.com/vietddude/lifeline/internal/resilience/connectivity"
	"github.com/vietddude/lifeline/internal/resilience/fallback"
)

// deadChecker fails every probe, like a machine with no network.
type deadChecker struct{}

func (deadChecker) Check(ctx context.Context, url string) error {
	return fmt.Errorf("no network")
}

func offlineResponder() *OfflineResponder {
	conn := connectivity.NewStatic(domain.ConnectivityOffline)
	selector := fallback.NewSelector(fallback.DefaultCatalog(), conn, deadChecker{}, fallback.Config{
		CacheTTL:    time.Minute,
		MaxAttempts: 3,
	})
	return NewOfflineResponder(selector)
}

func TestOfflineResponder_MatchesGreeting(t *testing.T) {
	r := offlineResponder()

	response, sel := r.Respond(context.Background(), "Hey, good morning!")
	if !strings.Contains(response, "offline mode") {
		t.Errorf("expected greeting response, got %q", response)
	}
	if sel.URL == "" {
		t.Error("expected a bundled asset paired with the response")
	}
}

func TestOfflineResponder_DefaultsWhenNoMatch(t *testing.T) {
	r := offlineResponder()

	response, _ := r.Respond(context.Background(), "compute the eigenvalues of this matrix")
	if !strings.Contains(response, "saved your request") {
		t.Errorf("expected generic offline response, got %q", response)
	}
}

func TestOfflineResponder_AssetIsOfflineServable(t *testing.T) {
	r := offlineResponder()

	_, sel := r.Respond(context.Background(), "thanks a lot")
	// Anything served here must not require network.
	if strings.HasPrefix(sel.URL, "http") {
		t.Errorf("offline responder must serve bundled assets, got %s", sel.URL)
	}
}
