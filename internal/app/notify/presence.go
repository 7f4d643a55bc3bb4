package notify

import (
	"sync/atomic"
	"time"
)

// Presence considers the user focused while they have typed within the idle window.
// It is the terminal's stand-in for a focused browser tab.
type Presence struct {
	idleAfter time.Duration
	last      atomic.Int64
	now       func() time.Time
}

// NewPresence returns a Presence that reports focus for idleAfter after each Touch.
// The user starts out focused.
func NewPresence(idleAfter time.Duration) *Presence {
	p := &Presence{idleAfter: idleAfter, now: time.Now}
	p.Touch()
	return p
}

// Touch records user activity.
func (p *Presence) Touch() {
	p.last.Store(p.now().UnixNano())
}

// Focused reports whether the last activity is within the idle window.
func (p *Presence) Focused() bool {
	last := time.Unix(0, p.last.Load())
	return p.now().Sub(last) < p.idleAfter
}
