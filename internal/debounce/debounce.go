// Package debounce coalesces bursts of calls into one trailing invocation,
// used to fold rapid address edits into a single shipping requote.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recent function after a quiet period. Each Call
// resets the timer and replaces the pending function.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels the pending invocation, if any. It reports whether a call
// was still pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}

// Group keeps one Debouncer per key, so independent sessions debounce
// independently.
type Group struct {
	delay time.Duration

	mu         sync.Mutex
	debouncers map[string]*Debouncer
}

func NewGroup(delay time.Duration) *Group {
	return &Group{
		delay:      delay,
		debouncers: make(map[string]*Debouncer),
	}
}

func (g *Group) Call(key string, fn func()) {
	g.mu.Lock()
	d, ok := g.debouncers[key]
	if !ok {
		d = New(g.delay)
		g.debouncers[key] = d
	}
	g.mu.Unlock()
	d.Call(fn)
}

// Forget stops and drops the debouncer for a key.
func (g *Group) Forget(key string) {
	g.mu.Lock()
	d, ok := g.debouncers[key]
	delete(g.debouncers, key)
	g.mu.Unlock()
	if ok {
		d.Stop()
	}
}
