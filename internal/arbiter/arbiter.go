// Package arbiter combines the manual speed limit, the bandwidth schedule
// and the scheduler's active flag into the single effective limit the
// download engine is throttled to. It owns all configuration writes: the
// RPC layer and CLI mutate limits only through an Arbiter.
package arbiter

import (
	"errors"
	"sync"
	"time"

	"github.com/warpdl/bandwidth/internal/scheduler"
	"github.com/warpdl/bandwidth/pkg/logger"
	"github.com/warpdl/bandwidth/pkg/reactive"
	"github.com/warpdl/bandwidth/pkg/schedule"
)

// ErrNegativeLimit is returned for manual limits below zero; zero itself
// means unlimited and is accepted.
var ErrNegativeLimit = errors.New("manual speed limit cannot be negative")

// debounceDelay coalesces rapid edits (slider drags, repeated CLI calls)
// before side effects reach the engine and the settings store.
const debounceDelay = 500 * time.Millisecond

// Engine is the download engine collaborator: a single push operation, with
// 0 meaning unlimited.
type Engine interface {
	SetSpeedLimit(bytesPerSec int64)
}

// Store is the settings persistence collaborator. The arbiter knows nothing
// about the storage format; failed writes are logged, not retried.
type Store interface {
	SaveManualLimit(bytesPerSec int64) error
	SaveLastCustom(bytesPerSec int64) error
	SaveSchedule(s schedule.Schedule) error
}

// Arbiter holds the independent state cells and recombines them into the
// effective limit on every change. The cells are combined only at read
// time; each recompute is idempotent, so stale-then-fresh sequences
// converge without cross-cell locking.
type Arbiter struct {
	mu sync.Mutex // serializes mutating operations

	manual     *reactive.Cell[int64]
	sched      *reactive.Cell[schedule.Schedule]
	lastCustom *reactive.Cell[int64]
	effective  *reactive.Cell[int64]

	proc   *scheduler.Process
	engine Engine
	store  Store
	log    logger.Logger

	engineDeb     *reactive.Debouncer
	manualDeb     *reactive.Debouncer
	lastCustomDeb *reactive.Debouncer
	schedDeb      *reactive.Debouncer
}

// New wires an arbiter over the given scheduler process and collaborators,
// seeding it with state loaded by the caller (typically from the settings
// store). The initial schedule is pushed into the scheduler process and the
// initial effective limit into the engine, undebounced.
func New(proc *scheduler.Process, engine Engine, store Store, l logger.Logger, manual, lastCustom int64, sched schedule.Schedule) *Arbiter {
	a := &Arbiter{
		manual:     reactive.NewCell(manual),
		sched:      reactive.NewCell(sched),
		lastCustom: reactive.NewCell(lastCustom),
		effective:  reactive.NewCell(manual),
		proc:       proc,
		engine:     engine,
		store:      store,
		log:        l,
	}
	a.engineDeb = reactive.NewDebouncer(debounceDelay, a.pushEngine)
	a.manualDeb = reactive.NewDebouncer(debounceDelay, a.persistManual)
	a.lastCustomDeb = reactive.NewDebouncer(debounceDelay, a.persistLastCustom)
	a.schedDeb = reactive.NewDebouncer(debounceDelay, a.persistSchedule)

	// The scheduler's publishes drive recomputation; a publish may race a
	// fresh config write, but recompute always reads the latest cells.
	proc.Active().Subscribe(func(bool) {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.recompute()
	})

	proc.Set(sched)
	a.mu.Lock()
	a.recompute()
	a.mu.Unlock()
	engine.SetSpeedLimit(a.effective.Get())
	return a
}

// Effective returns the cell holding the derived effective limit.
func (a *Arbiter) Effective() *reactive.Cell[int64] {
	return a.effective
}

// ManualLimit returns the current manual global limit (0 = unlimited).
func (a *Arbiter) ManualLimit() int64 {
	return a.manual.Get()
}

// LastCustom returns the remembered nonzero manual limit.
func (a *Arbiter) LastCustom() int64 {
	return a.lastCustom.Get()
}

// Schedule returns the current schedule value.
func (a *Arbiter) Schedule() schedule.Schedule {
	return a.sched.Get()
}

// SetManualLimit sets the manual global limit. 0 means unlimited. The
// remembered custom value is updated only when the new value is nonzero and
// the schedule is not currently overriding the manual limit.
func (a *Arbiter) SetManualLimit(v int64) error {
	if v < 0 {
		return ErrNegativeLimit
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setManual(v)
	a.remember(v)
	return nil
}

// ToggleManualLimit flips between unlimited and the last custom limit: if
// the manual limit is 0 it is restored to max(lastCustom, MinLimit),
// otherwise the current value is remembered and the limit set to 0.
func (a *Arbiter) ToggleManualLimit() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur := a.manual.Get()
	if cur == 0 {
		restored := a.lastCustom.Get()
		if restored < schedule.MinLimit {
			restored = schedule.MinLimit
		}
		a.setManual(restored)
		return
	}
	a.setLastCustom(cur)
	a.setManual(0)
}

// SetSchedule replaces the whole schedule value.
func (a *Arbiter) SetSchedule(s schedule.Schedule) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setSchedule(s)
}

// ToggleSchedule flips the schedule's enabled flag, leaving every other
// field untouched.
func (a *Arbiter) ToggleSchedule() schedule.Schedule {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.sched.Get().WithEnabled(!a.sched.Get().Enabled)
	a.setSchedule(s)
	return s
}

// SetAltLimit replaces only the schedule's alternative limit. The floor is
// enforced by the schedule constructor; an out-of-range value is rejected
// without touching current state.
func (a *Arbiter) SetAltLimit(v int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.sched.Get().WithAltLimit(v)
	if err != nil {
		return err
	}
	a.setSchedule(s)
	return nil
}

// Close flushes pending debounced side effects and stops the timers. It
// does not stop the scheduler process; the daemon owns that.
func (a *Arbiter) Close() {
	a.engineDeb.Flush()
	a.manualDeb.Flush()
	a.lastCustomDeb.Flush()
	a.schedDeb.Flush()
	a.engineDeb.Stop()
	a.manualDeb.Stop()
	a.lastCustomDeb.Stop()
	a.schedDeb.Stop()
}

// setManual stores a new manual limit and recombines. Caller holds mu.
func (a *Arbiter) setManual(v int64) {
	if a.manual.Get() == v {
		return
	}
	a.manual.Set(v)
	a.manualDeb.Trigger()
	a.recompute()
}

// setLastCustom remembers v as the restore value. Zero is never stored.
// Caller holds mu.
func (a *Arbiter) setLastCustom(v int64) {
	if v == 0 || a.lastCustom.Get() == v {
		return
	}
	a.lastCustom.Set(v)
	a.lastCustomDeb.Trigger()
}

// remember applies the lastCustom update rule for a manual-limit change:
// only nonzero values, and never while the schedule is both enabled and
// currently active (a schedule-driven state must not pollute the remembered
// custom value). Caller holds mu.
func (a *Arbiter) remember(v int64) {
	if v == 0 {
		return
	}
	if a.sched.Get().Enabled && a.proc.ActiveNow() {
		return
	}
	a.setLastCustom(v)
}

// setSchedule stores the schedule, forwards it to the scheduler process and
// recombines. Caller holds mu.
func (a *Arbiter) setSchedule(s schedule.Schedule) {
	a.sched.Set(s)
	a.schedDeb.Trigger()
	a.proc.Set(s)
	a.recompute()
}

// recompute derives the effective limit from the current cells. Caller
// holds mu (or runs from the single scheduler publish goroutine during its
// subscription callback, which also takes mu).
func (a *Arbiter) recompute() {
	s := a.sched.Get()
	eff := a.manual.Get()
	if s.Enabled && a.proc.Active().Get() {
		eff = s.AltLimit
	}
	if a.effective.Get() == eff {
		return
	}
	a.effective.Set(eff)
	a.engineDeb.Trigger()
}

func (a *Arbiter) pushEngine() {
	a.engine.SetSpeedLimit(a.effective.Get())
}

func (a *Arbiter) persistManual() {
	if err := a.store.SaveManualLimit(a.manual.Get()); err != nil {
		a.log.Error("failed to persist manual limit: %v", err)
	}
}

func (a *Arbiter) persistLastCustom() {
	if err := a.store.SaveLastCustom(a.lastCustom.Get()); err != nil {
		a.log.Error("failed to persist last custom limit: %v", err)
	}
}

func (a *Arbiter) persistSchedule() {
	if err := a.store.SaveSchedule(a.sched.Get()); err != nil {
		a.log.Error("failed to persist schedule: %v", err)
	}
}
