package core

import (
	"sync"
	"time"
)

// FrameID identifies a pending frame callback. Zero is never issued.
type FrameID uint64

// FrameFunc receives the loop's monotonic time since it was created.
type FrameFunc func(now time.Duration)

// FrameLoop is a cooperative animation-frame scheduler for a single UI thread.
//
// RequestFrame queues a callback for the next Tick; callbacks requested while a
// Tick is running land in the following Tick. Post queues work from any
// goroutine to run on the UI thread at the start of the next Tick, which is how
// async loads hand their results back.
type FrameLoop struct {
	start time.Time
	clock func() time.Time

	nextID  FrameID
	pending map[FrameID]FrameFunc
	order   []FrameID

	mu     sync.Mutex
	posted []func()
}

func NewFrameLoop() *FrameLoop {
	return NewFrameLoopWithClock(time.Now)
}

// NewFrameLoopWithClock is NewFrameLoop with an injectable clock (tests step it manually).
func NewFrameLoopWithClock(clock func() time.Time) *FrameLoop {
	return &FrameLoop{
		start:   clock(),
		clock:   clock,
		pending: make(map[FrameID]FrameFunc),
	}
}

func (l *FrameLoop) RequestFrame(fn FrameFunc) FrameID {
	l.nextID++
	id := l.nextID
	l.pending[id] = fn
	l.order = append(l.order, id)
	return id
}

// CancelFrame drops a pending callback. Unknown or already-run ids are ignored.
func (l *FrameLoop) CancelFrame(id FrameID) {
	delete(l.pending, id)
}

// Post is safe for concurrent use.
func (l *FrameLoop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
}

// Pending reports how many frame callbacks are waiting.
func (l *FrameLoop) Pending() int {
	return len(l.pending)
}

// Tick drains posted work, then runs every frame callback requested before the tick began.
func (l *FrameLoop) Tick() {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	l.mu.Unlock()
	for _, fn := range posted {
		fn()
	}

	now := l.clock().Sub(l.start)
	order := l.order
	l.order = nil
	for _, id := range order {
		fn, ok := l.pending[id]
		if !ok {
			continue
		}
		delete(l.pending, id)
		fn(now)
	}
}
