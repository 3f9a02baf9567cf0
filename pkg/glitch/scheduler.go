package glitch

import (
	"slices"
	"sync"
	"time"
)

// FrameFunc is invoked once per display refresh with the elapsed time in
// milliseconds since the scheduler started.
type FrameFunc func(elapsed float64)

// FrameID identifies a pending frame request.
type FrameID uint64

// Scheduler delivers one-shot frame callbacks, like requestAnimationFrame.
// A callback requested while a frame is being delivered runs on the next one.
type Scheduler interface {
	RequestFrame(fn FrameFunc) FrameID
	CancelFrame(id FrameID)
}

// frameQueue is the pending-callback bookkeeping shared by both schedulers.
type frameQueue struct {
	mu      sync.Mutex
	next    FrameID
	pending map[FrameID]FrameFunc
}

func (q *frameQueue) request(fn FrameFunc) FrameID {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		q.pending = make(map[FrameID]FrameFunc)
	}
	q.next++
	q.pending[q.next] = fn
	return q.next
}

func (q *frameQueue) cancel(id FrameID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, id)
}

// take removes and returns the pending callbacks in request order.
func (q *frameQueue) take() []FrameFunc {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	ids := make([]FrameID, 0, len(q.pending))
	for id := range q.pending {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]FrameFunc, len(ids))
	for i, id := range ids {
		fns[i] = q.pending[id]
		delete(q.pending, id)
	}
	return fns
}

func (q *frameQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// TickerScheduler delivers frames from its own goroutine at a fixed rate.
// Callbacks run sequentially, never concurrently with each other.
type TickerScheduler struct {
	queue    frameQueue
	interval time.Duration
	start    time.Time
	done     chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

// NewTickerScheduler starts a scheduler ticking fps times per second.
func NewTickerScheduler(fps int) *TickerScheduler {
	fps = max(fps, 1)
	s := &TickerScheduler{
		interval: time.Second / time.Duration(fps),
		start:    time.Now(),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *TickerScheduler) run() {
	defer close(s.stopped)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			elapsed := float64(now.Sub(s.start)) / float64(time.Millisecond)
			for _, fn := range s.queue.take() {
				fn(elapsed)
			}
		}
	}
}

// RequestFrame implements Scheduler.
func (s *TickerScheduler) RequestFrame(fn FrameFunc) FrameID { return s.queue.request(fn) }

// CancelFrame implements Scheduler.
func (s *TickerScheduler) CancelFrame(id FrameID) { s.queue.cancel(id) }

// Close stops the ticker goroutine and waits for an in-flight frame to finish.
// It must not be called from inside a frame callback.
func (s *TickerScheduler) Close() {
	s.once.Do(func() { close(s.done) })
	<-s.stopped
}

// ManualScheduler delivers frames only when stepped. It drives offline
// rendering and tests.
type ManualScheduler struct {
	queue frameQueue
}

// NewManualScheduler creates an idle manual scheduler.
func NewManualScheduler() *ManualScheduler { return &ManualScheduler{} }

// RequestFrame implements Scheduler.
func (s *ManualScheduler) RequestFrame(fn FrameFunc) FrameID { return s.queue.request(fn) }

// CancelFrame implements Scheduler.
func (s *ManualScheduler) CancelFrame(id FrameID) { s.queue.cancel(id) }

// Step delivers one frame at elapsed and returns how many callbacks ran.
func (s *ManualScheduler) Step(elapsed float64) int {
	fns := s.queue.take()
	for _, fn := range fns {
		fn(elapsed)
	}
	return len(fns)
}

// Pending returns the number of callbacks waiting for the next step.
func (s *ManualScheduler) Pending() int { return s.queue.len() }

var (
	_ Scheduler = (*TickerScheduler)(nil)
	_ Scheduler = (*ManualScheduler)(nil)
)
