package task

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

type entry struct {
	name   string
	future Future
	wake   time.Time
	done   bool
}

// Handle reports on a spawned future.
type Handle struct {
	e *entry
}

func (h *Handle) Name() string { return h.e.name }
func (h *Handle) Done() bool   { return h.e.done }

// Executor polls spawned futures in spawn order on the calling goroutine.
// It is not safe for concurrent use.
type Executor struct {
	clock   clock.Clock
	entries []*entry
	polls   int
}

func NewExecutor(clk clock.Clock) *Executor {
	if clk == nil {
		clk = clock.New()
	}
	return &Executor{clock: clk}
}

func (ex *Executor) Clock() clock.Clock { return ex.clock }

// Spawn registers f. It is first polled on the next Tick.
func (ex *Executor) Spawn(name string, f Future) *Handle {
	e := &entry{name: name, future: f}
	ex.entries = append(ex.entries, e)
	return &Handle{e: e}
}

// Pending returns the number of unfinished futures.
func (ex *Executor) Pending() int {
	n := 0
	for _, e := range ex.entries {
		if !e.done {
			n++
		}
	}
	return n
}

// Polls returns how many polls the executor has issued.
func (ex *Executor) Polls() int { return ex.polls }

// Tick polls every unfinished future whose wake time is not after now. It
// returns the earliest wake time among the futures still pending and
// whether any remain.
func (ex *Executor) Tick(now time.Time) (next time.Time, pending bool) {
	for _, e := range ex.entries {
		if e.done || e.wake.After(now) {
			continue
		}
		cx := &Context{now: now}
		ex.polls++
		if e.future.Poll(cx) == Ready {
			e.done = true
			continue
		}
		e.wake = cx.Wake()
	}

	ex.compact()

	for _, e := range ex.entries {
		if e.done {
			continue
		}
		if !pending || e.wake.Before(next) {
			next = e.wake
		}
		pending = true
	}
	return next, pending
}

func (ex *Executor) compact() {
	live := ex.entries[:0]
	for _, e := range ex.entries {
		if !e.done {
			live = append(live, e)
		}
	}
	for i := len(live); i < len(ex.entries); i++ {
		ex.entries[i] = nil
	}
	ex.entries = live
}

// Run polls until every future has completed or ctx is done. Between
// passes it sleeps on the executor clock until the earliest wake time.
func (ex *Executor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := ex.clock.Now()
		next, pending := ex.Tick(now)
		if !pending {
			return nil
		}

		wait := next.Sub(ex.clock.Now())
		if wait <= 0 {
			continue
		}

		timer := ex.clock.Timer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Block spawns f and runs the executor until everything spawned on it,
// f included, has completed.
func (ex *Executor) Block(ctx context.Context, name string, f Future) error {
	ex.Spawn(name, f)
	return ex.Run(ctx)
}
