package scenario

import (
	"sync"
	"time"
)

// Clock returns the current time
type Clock func() time.Time

// ManualClock is a Clock that only moves when advanced. It drives
// simulations faster than real time.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Engine executes a scenario and tracks progression through phases
type Engine struct {
	scenario  *Scenario
	clock     Clock
	startTime time.Time
	mu        sync.RWMutex
}

// NewEngine creates a new scenario engine on the wall clock
func NewEngine(scenario *Scenario) *Engine {
	return NewEngineWithClock(scenario, time.Now)
}

// NewEngineWithClock creates an engine that reads time from clock
func NewEngineWithClock(scenario *Scenario, clock Clock) *Engine {
	return &Engine{
		scenario:  scenario,
		clock:     clock,
		startTime: clock(),
	}
}

// GetElapsed returns the time elapsed since scenario start
func (e *Engine) GetElapsed() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clock().Sub(e.startTime)
}

// GetCurrentPhase returns the current phase based on elapsed time
func (e *Engine) GetCurrentPhase() *Phase {
	return e.scenario.getCurrentPhase(e.GetElapsed())
}

// GetBreathConfig returns the effective breath configuration at current time
func (e *Engine) GetBreathConfig() *BreathConfig {
	return e.scenario.GetEffectiveConfig(e.GetElapsed())
}

// IsComplete returns true if the scenario has finished
func (e *Engine) IsComplete() bool {
	duration, unlimited := ParseDuration(e.scenario.Duration)
	if unlimited {
		return false
	}
	return e.GetElapsed() >= duration
}

// GetScenario returns the underlying scenario
func (e *Engine) GetScenario() *Scenario {
	return e.scenario
}

// Reset resets the scenario to the beginning
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startTime = e.clock()
}
