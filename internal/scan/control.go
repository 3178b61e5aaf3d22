package scan

import (
	"context"
	"sync"
)

// State is the scheduler's lifecycle state.
type State string

const (
	StateRunning  State = "running"
	StatePaused   State = "paused"
	StateDraining State = "draining"
	StateStopped  State = "stopped"
)

// Control is the interactive gate over a running scheduler. It can be
// driven by any input source: OS signals, an RPC surface, a console loop.
//
// Transitions: Running <-> Paused, Running/Paused -> Draining -> Stopped.
// Stop never kills in-flight probes; it stops admission of new hosts and
// lets the pool drain naturally.
type Control struct {
	mu       sync.Mutex
	state    State
	resumeCh chan struct{}
	cancel   context.CancelFunc
}

// NewControl creates a control gate in the Running state.
func NewControl() *Control {
	return &Control{state: StateRunning}
}

// State returns the current lifecycle state.
func (c *Control) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pause stops admission of new hosts. Hosts already being probed finish
// naturally. Returns false if the scheduler is already draining or stopped.
func (c *Control) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StatePaused:
		return true
	case StateRunning:
		c.state = StatePaused
		c.resumeCh = make(chan struct{})
		return true
	default:
		return false
	}
}

// Resume clears a pause. Returns false if the scheduler is not paused.
func (c *Control) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateRunning:
		return true
	case StatePaused:
		c.state = StateRunning
		if c.resumeCh != nil {
			close(c.resumeCh)
			c.resumeCh = nil
		}
		return true
	default:
		return false
	}
}

// Stop initiates the graceful drain: no new hosts start, in-flight hosts
// finish, the scheduler flushes collected records and returns. Safe to call
// from any state and from any goroutine.
func (c *Control) Stop() {
	c.mu.Lock()
	if c.state == StateRunning || c.state == StatePaused {
		c.state = StateDraining
	}
	if c.resumeCh != nil {
		close(c.resumeCh)
		c.resumeCh = nil
	}
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// bind attaches the run context's cancel func so Stop can interrupt the
// dispatch loop. Called once per Run. A Stop issued before bind must not
// be lost: when the gate is already draining, the fresh context is
// cancelled on the spot so the run drains before admitting anything.
func (c *Control) bind(cancel context.CancelFunc) {
	c.mu.Lock()
	c.cancel = cancel
	draining := c.state == StateDraining
	c.mu.Unlock()

	if draining {
		cancel()
	}
}

// markStopped records that the drain has completed.
func (c *Control) markStopped() {
	c.mu.Lock()
	c.state = StateStopped
	c.mu.Unlock()
}

// waitIfPaused blocks while the gate is paused. It returns false when ctx
// is cancelled, meaning the caller should stop dispatching.
func (c *Control) waitIfPaused(ctx context.Context) bool {
	for {
		c.mu.Lock()
		if c.state != StatePaused {
			c.mu.Unlock()
			return ctx.Err() == nil
		}
		ch := c.resumeCh
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return false
		}
	}
}
