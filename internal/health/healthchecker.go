// Package health runs background health checks over the service's external
// collaborators and aggregates them into a single service flag.
package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthPinger is implemented by collaborators that expose a health probe.
// HealthPing must return nil when the component is healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}

// HealthChecker is implemented by component-level checkers.
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ComponentChecker periodically probes one collaborator.
type ComponentChecker struct {
	name    string
	pinger  HealthPinger
	timeout time.Duration
	log     zerolog.Logger
	healthy atomic.Int32
}

// NewComponentChecker creates a checker for one collaborator.
func NewComponentChecker(name string, pinger HealthPinger, timeout time.Duration, log zerolog.Logger) *ComponentChecker {
	return &ComponentChecker{name: name, pinger: pinger, timeout: timeout, log: log}
}

func (c *ComponentChecker) Name() string    { return c.name }
func (c *ComponentChecker) IsHealthy() bool { return c.healthy.Load() == 1 }

// Start probes immediately and then on every tick until the context ends.
func (c *ComponentChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	probe := func() {
		pctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		if err := c.pinger.HealthPing(pctx); err != nil {
			if c.healthy.Swap(0) == 1 {
				c.log.Warn().Err(err).Str("component", c.name).Msg("component health: DOWN")
			}
			return
		}
		if c.healthy.Swap(1) == 0 {
			c.log.Info().Str("component", c.name).Msg("component health: UP")
		}
	}

	probe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}

// ServiceHealthChecker aggregates component checkers into one service flag.
type ServiceHealthChecker struct {
	healthy atomic.Int32
	deps    []HealthChecker
	log     zerolog.Logger
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	return &ServiceHealthChecker{deps: deps, log: log}
}

// IsHealthy returns cached service health.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.healthy.Load() == 1 }

// Start periodically evaluates dependency health and updates the flag.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	eval := func() {
		all := int32(1)
		for _, c := range h.deps {
			if !c.IsHealthy() {
				all = 0
				break
			}
		}
		if prev := h.healthy.Swap(all); prev != all {
			if all == 1 {
				h.log.Info().Msg("service health: UP")
			} else {
				h.log.Warn().Msg("service health: DOWN")
			}
		}
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}
