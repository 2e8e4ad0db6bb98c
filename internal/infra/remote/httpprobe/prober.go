// Package httpprobe issues lightweight HEAD-style existence checks, used by
// the health monitor for subsystem probes and by the fallback selector to
// validate asset URLs.
package httpprobe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vietddude/lifeline/internal/core/domain"
)

// Prober probes configured subsystem endpoints.
type Prober struct {
	endpoints map[domain.Subsystem]string
	client    *http.Client
}

// NewProber creates a prober for the given endpoint map.
func NewProber(endpoints map[domain.Subsystem]string, timeout time.Duration) *Prober {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Prober{
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
	}
}

// Probe checks one subsystem endpoint.
func (p *Prober) Probe(ctx context.Context, subsystem domain.Subsystem) error {
	endpoint, ok := p.endpoints[subsystem]
	if !ok || endpoint == "" {
		return fmt.Errorf("no endpoint configured for subsystem %s", subsystem)
	}
	return check(ctx, p.client, endpoint)
}

// URLChecker validates arbitrary URLs with a short timeout.
type URLChecker struct {
	client *http.Client
}

// NewURLChecker creates a checker with the given probe timeout.
func NewURLChecker(timeout time.Duration) *URLChecker {
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	return &URLChecker{client: &http.Client{Timeout: timeout}}
}

// Check reports whether the URL answers a HEAD request.
func (c *URLChecker) Check(ctx context.Context, url string) error {
	return check(ctx, c.client, url)
}

func check(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}
	defer resp.Body.Close()

	// Some servers reject HEAD; anything below 500 proves the host is up.
	if resp.StatusCode >= 500 {
		return fmt.Errorf("probe failed: status %d", resp.StatusCode)
	}
	return nil
}
