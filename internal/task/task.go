package task

import (
	"time"
)

type Status int

const (
	Pending Status = iota
	Ready
)

func (s Status) String() string {
	if s == Ready {
		return "ready"
	}
	return "pending"
}

// Context is handed to a future on every poll.
type Context struct {
	now  time.Time
	wake time.Time
}

// NewContext returns a context for polling a future by hand at now.
func NewContext(now time.Time) *Context {
	return &Context{now: now}
}

func (c *Context) Now() time.Time { return c.now }

// WakeAt asks for the next poll no earlier than t. The earliest request
// made during one poll wins.
func (c *Context) WakeAt(t time.Time) {
	if c.wake.IsZero() || t.Before(c.wake) {
		c.wake = t
	}
}

// Wake reports the requested wake time. A pending future that made no
// request is polled again on the next pass.
func (c *Context) Wake() time.Time {
	if c.wake.IsZero() {
		return c.now
	}
	return c.wake
}

type Future interface {
	Poll(cx *Context) Status
}

// FutureFunc adapts a function to the Future interface.
type FutureFunc func(cx *Context) Status

func (f FutureFunc) Poll(cx *Context) Status { return f(cx) }

type sleep struct {
	d        time.Duration
	deadline time.Time
}

// Sleep returns a future that completes d after it is first polled.
func Sleep(d time.Duration) Future {
	return &sleep{d: d}
}

func (s *sleep) Poll(cx *Context) Status {
	if s.deadline.IsZero() {
		s.deadline = cx.Now().Add(s.d)
	}
	if cx.Now().Before(s.deadline) {
		cx.WakeAt(s.deadline)
		return Pending
	}
	return Ready
}

type join struct {
	futures []Future
	done    []bool
}

// Join returns a future that polls every future on each pass and
// completes when all of them have.
func Join(futures ...Future) Future {
	return &join{futures: futures, done: make([]bool, len(futures))}
}

func (j *join) Poll(cx *Context) Status {
	status := Ready
	for i, f := range j.futures {
		if j.done[i] {
			continue
		}
		sub := &Context{now: cx.now}
		if f.Poll(sub) == Ready {
			j.done[i] = true
			continue
		}
		cx.WakeAt(sub.Wake())
		status = Pending
	}
	return status
}

// Then returns a future that runs first to completion, then second.
func Then(first, second Future) Future {
	started := false
	return FutureFunc(func(cx *Context) Status {
		if !started {
			if first.Poll(cx) == Pending {
				return Pending
			}
			started = true
		}
		return second.Poll(cx)
	})
}
