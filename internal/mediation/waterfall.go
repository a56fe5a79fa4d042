// Package mediation simulates an ad-network waterfall: enabled networks are
// requested in priority order until one reports inventory.
package mediation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ArowuTest/easyearning-backend/internal/models"
)

var (
	ErrNoActiveNetworks     = errors.New("no active ad networks configured")
	ErrAllNetworksExhausted = errors.New("all ad networks reported no fill")
)

// Float64Source yields uniform values in [0,1); *rand.Rand satisfies it
type Float64Source interface {
	Float64() float64
}

// Observer receives every probe as it happens
type Observer func(models.WaterfallAttempt)

// Engine runs waterfalls against an injected random source
type Engine struct {
	mu         sync.Mutex
	rng        Float64Source
	probeDelay time.Duration
	observer   Observer
}

// Option configures an Engine
type Option func(*Engine)

// WithProbeDelay paces probes for presentation; it never affects the outcome
func WithProbeDelay(d time.Duration) Option {
	return func(e *Engine) { e.probeDelay = d }
}

// WithObserver registers a callback invoked for each probe
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// NewEngine creates a waterfall engine drawing from rng
func NewEngine(rng Float64Source, opts ...Option) *Engine {
	e := &Engine{rng: rng}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ActiveNetworks returns the enabled networks sorted ascending by priority
func ActiveNetworks(settings models.MediationSettings) []models.MediationNetwork {
	active := make([]models.MediationNetwork, 0, len(settings.Networks))
	for _, n := range settings.Networks {
		if n.IsEnabled {
			active = append(active, n)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Priority < active[j].Priority })
	return active
}

// Run probes the active networks in order. With the waterfall disabled only the
// primary network is requested. Cancelling ctx abandons the run with ctx.Err().
func (e *Engine) Run(ctx context.Context, settings models.MediationSettings) (*models.WaterfallResult, error) {
	networks := ActiveNetworks(settings)
	if !settings.WaterfallEnabled {
		networks = onlyPrimary(networks, settings.PrimaryNetworkID)
	}
	if len(networks) == 0 {
		return nil, ErrNoActiveNetworks
	}

	attempts := make([]models.WaterfallAttempt, 0, len(networks))
	for _, n := range networks {
		if err := e.pace(ctx); err != nil {
			return nil, err
		}

		draw := e.draw()
		// A zero fill rate never fills, even on a 0.0 draw
		filled := n.FillRate > 0 && draw <= float64(n.FillRate)
		attempt := models.WaterfallAttempt{
			NetworkID: n.ID,
			Network:   n.Name,
			Priority:  n.Priority,
			Draw:      draw,
			Filled:    filled,
		}
		attempts = append(attempts, attempt)
		if e.observer != nil {
			e.observer(attempt)
		}

		if filled {
			result := &models.WaterfallResult{Network: n, Attempts: attempts}
			if n.ID == settings.PrimaryNetworkID {
				result.AdUnitID = settings.AdUnits.RewardedID
			}
			return result, nil
		}
	}
	return nil, ErrAllNetworksExhausted
}

func (e *Engine) draw() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64() * 100
}

func (e *Engine) pace(ctx context.Context) error {
	if e.probeDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(e.probeDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func onlyPrimary(networks []models.MediationNetwork, primaryID string) []models.MediationNetwork {
	for _, n := range networks {
		if n.ID == primaryID {
			return []models.MediationNetwork{n}
		}
	}
	return nil
}
