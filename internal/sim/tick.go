package sim

import (
	"log/slog"
	"time"
)

// Engine drives the simulation loop: one Step per tick at a wall-clock
// interval, adjustable by a speed multiplier.
type Engine struct {
	Tick     uint64        // current tick counter (monotonic, never resets)
	Speed    float64       // multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // base tick interval
	Running  bool

	// Callbacks, populated during setup.
	OnTick func(tick uint64) // every tick: the authoritative mutation pass
	OnDay  func(tick uint64) // every DayTicks: reporting and persistence

	dayTicks uint64
}

// NewEngine creates an engine ticking at the given interval.
func NewEngine(interval time.Duration, dayTicks int) *Engine {
	return &Engine{
		Speed:    1.0,
		Interval: interval,
		dayTicks: uint64(dayTicks),
	}
}

// Run starts the loop. Blocks until Stop is called.
func (e *Engine) Run() {
	e.Running = true
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed)

	for e.Running {
		if e.Speed <= 0 {
			// Paused.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		e.StepOnce()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the loop after the current tick finishes.
func (e *Engine) Stop() {
	e.Running = false
}

// StepOnce advances exactly one tick. Exposed so tests and the CLI can run
// the simulation without the wall clock.
func (e *Engine) StepOnce() {
	e.Tick++
	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
	if e.dayTicks > 0 && e.Tick%e.dayTicks == 0 && e.OnDay != nil {
		e.OnDay(e.Tick)
	}
}
