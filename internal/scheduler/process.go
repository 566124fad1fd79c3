package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/warpdl/bandwidth/pkg/logger"
	"github.com/warpdl/bandwidth/pkg/reactive"
	"github.com/warpdl/bandwidth/pkg/schedule"
)

const (
	// floorDelay is the minimum sleep between evaluations. It guards against
	// zero or negative waits from clock skew and against busy-looping when a
	// transition instant has just passed.
	floorDelay = time.Second

	// maxSleepCap bounds any single sleep. NTP jumps, suspend/resume and
	// timezone changes are then picked up within a minute instead of at a
	// transition that may be days away.
	maxSleepCap = 60 * time.Second
)

// waitFor bounds a computed transition wait to [floorDelay, maxSleepCap].
func waitFor(d time.Duration) time.Duration {
	if d < floorDelay {
		return floorDelay
	}
	if d > maxSleepCap {
		return maxSleepCap
	}
	return d
}

// Process owns the schedule evaluation loop. All interaction goes through
// Set, Stop and the published active cell; the loop goroutine is the only
// writer of that cell while running.
type Process struct {
	cur    *reactive.Cell[schedule.Schedule]
	active *reactive.Cell[bool]

	kick     chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once

	now func() time.Time
	log logger.Logger
}

// New creates and starts a Process with the system clock. The initial
// schedule is disabled-empty; callers push the real one with Set.
func New(l logger.Logger) *Process {
	return newProcess(l, time.Now)
}

// newProcess allows tests to inject a frozen or stepped clock.
func newProcess(l logger.Logger, now func() time.Time) *Process {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Process{
		cur:    reactive.NewCell(schedule.Schedule{}),
		active: reactive.NewCell(false),
		kick:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		now:    now,
		log:    l,
	}
	go p.run()
	return p
}

// Active returns the cell the loop publishes the is-window-open flag into.
func (p *Process) Active() *reactive.Cell[bool] {
	return p.active
}

// Set replaces the current schedule. The stored value is visible to
// ActiveNow immediately; the loop is then kicked to supersede any in-flight
// wait. Kicks coalesce: the loop always evaluates the latest schedule, so
// dropping a kick while one is already pending is safe.
func (p *Process) Set(s schedule.Schedule) {
	p.cur.Set(s)
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Schedule returns the current schedule value.
func (p *Process) Schedule() schedule.Schedule {
	return p.cur.Get()
}

// ActiveNow recomputes the active flag synchronously from the current
// schedule and wall clock. It never consults the loop's cached published
// value, so it is exact even between ticks.
func (p *Process) ActiveNow() bool {
	s := p.cur.Get()
	if !s.Enabled {
		return false
	}
	return schedule.Active(p.now(), s)
}

// Stop cancels the loop, waits for the goroutine to exit, then publishes
// active=false. Safe to call multiple times; every caller returns only after
// the loop has fully stopped, so no stale publish can follow Stop.
func (p *Process) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()
		<-p.done
		p.active.Set(false)
	})
}

func (p *Process) run() {
	defer close(p.done)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	var timerCh <-chan time.Time

	// evaluate publishes the active flag for the current schedule and arms
	// the timer for the next transition. A disabled schedule publishes
	// false and leaves the timer disarmed: no loop runs while disabled.
	evaluate := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
		}
		timerCh = nil

		s := p.cur.Get()
		if !s.Enabled {
			p.active.Set(false)
			return
		}

		now := p.now()
		active := schedule.Active(now, s)

		next := schedule.NextTransition(now, s)
		dur := next.Sub(now)
		if dur < floorDelay {
			p.log.Warning("transition wait %v below floor, clamping to %v", dur, floorDelay)
		}
		if p.active.Get() != active {
			p.log.Info("schedule window active=%v, next transition at %s", active, next.Format(time.RFC3339))
		}
		p.active.Set(active)
		timer = time.NewTimer(waitFor(dur))
		timerCh = timer.C
	}

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.kick:
			evaluate()
		case <-timerCh:
			evaluate()
		}
	}
}
