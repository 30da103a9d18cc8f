package diskio

import (
	"fmt"
	"time"
)

// State is the phase of the concurrency controller.
type State int

const (
	// StateRampUp doubles the window every round while latency is flat.
	StateRampUp State = iota
	// StateBackOff holds a reduced window after latency degraded.
	StateBackOff
	// StateLinear grows the window by one per healthy round.
	StateLinear
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRampUp:
		return "ramp-up"
	case StateBackOff:
		return "back-off"
	case StateLinear:
		return "linear"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	// DefaultTolerance is how far P95 may rise above the baseline before
	// the window is reduced.
	DefaultTolerance = 1.5
	// DefaultBackOffRounds is how many healthy rounds are required before
	// growing again after a back-off.
	DefaultBackOffRounds = 2

	latencySamples = 64
	percentile     = 95
)

// Controller decides how many items may be in flight. It is fed completion
// latencies and re-evaluates once per round, a round being as many
// completions as the current window.
type Controller struct {
	Tolerance     float64
	BackOffRounds int

	latency  *LatencyWindow
	window   int
	limit    int
	state    State
	baseline time.Duration
	observed int
	holdLeft int
}

// NewController returns a controller that starts with one item in flight
// and never exceeds limit.
func NewController(limit int) *Controller {
	if limit < 1 {
		limit = 1
	}
	return &Controller{
		Tolerance:     DefaultTolerance,
		BackOffRounds: DefaultBackOffRounds,
		latency:       NewLatencyWindow(latencySamples),
		window:        1,
		limit:         limit,
	}
}

// Window returns the current number of items allowed in flight.
func (c *Controller) Window() int {
	return c.window
}

// State returns the current phase.
func (c *Controller) State() State {
	return c.state
}

// Baseline returns the reference P95 latency.
func (c *Controller) Baseline() time.Duration {
	return c.baseline
}

// Observe records one completion latency.
func (c *Controller) Observe(d time.Duration) {
	c.latency.Add(d)
	c.observed++
	if c.observed < c.window {
		return
	}
	c.observed = 0
	c.evaluate(c.latency.Percentile(percentile))
}

func (c *Controller) evaluate(p95 time.Duration) {
	if c.baseline == 0 {
		c.baseline = p95
		c.grow()
		return
	}

	degraded := float64(p95) > float64(c.baseline)*c.Tolerance

	switch c.state {
	case StateRampUp, StateLinear:
		if degraded {
			c.backOff()
			return
		}
		if p95 < c.baseline {
			c.baseline = p95
		}
		c.grow()
	case StateBackOff:
		if !degraded {
			c.holdLeft--
			if c.holdLeft <= 0 {
				c.state = StateLinear
			}
			return
		}
		if c.window == 1 {
			// Nothing left to shed; the slowdown is not ours.
			c.baseline = p95
			c.holdLeft = c.BackOffRounds
			return
		}
		c.backOff()
	}
}

func (c *Controller) grow() {
	switch c.state {
	case StateRampUp:
		c.window = min(c.window*2, c.limit)
	case StateLinear:
		c.window = min(c.window+1, c.limit)
	}
}

func (c *Controller) backOff() {
	c.window = max(c.window/2, 1)
	c.state = StateBackOff
	c.holdLeft = c.BackOffRounds
	c.latency.Reset()
}
