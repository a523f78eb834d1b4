// Package view holds the client-side calendar state: which view is
// open, which date it is anchored on, and the latest agenda fetched
// for that pair.
package view

import (
	"context"
	"sync"
	"time"

	"planline/internal/engine"
	"planline/internal/schedule"
)

// Fetcher resolves a (anchor, view) pair into a laid-out agenda.
type Fetcher interface {
	ComputeAgenda(ctx context.Context, anchor time.Time, mode schedule.ViewMode) (engine.Agenda, error)
}

// State is the persisted calendar UI state.
type State struct {
	Mode   schedule.ViewMode
	Anchor time.Time
}

// Controller navigates the calendar and fetches agendas. Each fetch is
// stamped with a generation; a response whose generation is no longer
// current is discarded, so a late fetch never overwrites a newer one.
type Controller struct {
	fetch Fetcher

	mu      sync.Mutex
	state   State
	gen     uint64
	agenda  engine.Agenda
	loaded  bool
	lastErr error
}

func NewController(f Fetcher, initial State) *Controller {
	if initial.Mode == "" {
		initial.Mode = schedule.ViewWeek
	}
	if initial.Anchor.IsZero() {
		initial.Anchor = time.Now()
	}
	return &Controller{fetch: f, state: initial}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Agenda returns the last successfully fetched agenda.
func (c *Controller) Agenda() (engine.Agenda, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agenda, c.loaded
}

// Err returns the error of the most recent fetch, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SetMode switches the view and refetches.
func (c *Controller) SetMode(ctx context.Context, mode schedule.ViewMode) error {
	c.mu.Lock()
	c.state.Mode = mode
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// SetAnchor moves the calendar to a date and refetches.
func (c *Controller) SetAnchor(ctx context.Context, anchor time.Time) error {
	c.mu.Lock()
	c.state.Anchor = anchor
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Step advances the anchor by n view units: a day for the day view, a
// week for the week view, a month otherwise. The quarter view slides
// one month at a time rather than jumping three.
func (c *Controller) Step(ctx context.Context, n int) error {
	c.mu.Lock()
	switch c.state.Mode {
	case schedule.ViewDay:
		c.state.Anchor = c.state.Anchor.AddDate(0, 0, n)
	case schedule.ViewWeek:
		c.state.Anchor = c.state.Anchor.AddDate(0, 0, 7*n)
	default:
		c.state.Anchor = c.state.Anchor.AddDate(0, n, 0)
	}
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh fetches the agenda for the current state. If the state
// changed while the fetch was in flight the stale result is dropped.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	state := c.state
	c.mu.Unlock()

	agenda, err := c.fetch.ComputeAgenda(ctx, state.Anchor, state.Mode)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	if err != nil {
		// degrade to an empty agenda, keep the error for display
		c.lastErr = err
		c.agenda = engine.Agenda{Mode: string(state.Mode)}
		c.loaded = true
		return err
	}
	c.lastErr = nil
	c.agenda = agenda
	c.loaded = true
	return nil
}
