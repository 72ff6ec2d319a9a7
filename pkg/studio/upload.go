package studio

import (
	"sync"
	"time"
)

const uploadStepPercent = 5

// UploadTracker models transfer readiness as a cancellable periodic timer:
// progress advances 5% per tick until 100%, then a one-shot ready callback
// fires and the timer is released. The tracker is owned by the selector that
// started it and must be stopped on teardown or source switch so a superseded
// selection can never tick again.
type UploadTracker struct {
	mu       sync.Mutex
	progress int
	ready    bool
	stopped  bool
	onReady  func()
	stop     chan struct{}
	stopOnce sync.Once
}

func NewUploadTracker(interval time.Duration, onReady func()) *UploadTracker {
	t := &UploadTracker{
		onReady: onReady,
		stop:    make(chan struct{}),
	}
	go t.run(interval)
	return t
}

func (t *UploadTracker) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if t.advance() {
				return
			}
		}
	}
}

// advance reports whether the transfer just completed, firing the ready
// callback exactly once. A tick that raced past the stop channel re-checks
// the stopped flag here so it can never complete a cancelled transfer.
func (t *UploadTracker) advance() bool {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return true
	}
	if t.ready {
		t.mu.Unlock()
		return true
	}
	t.progress += uploadStepPercent
	if t.progress < 100 {
		t.mu.Unlock()
		return false
	}
	t.progress = 100
	t.ready = true
	onReady := t.onReady
	t.mu.Unlock()

	if onReady != nil {
		onReady()
	}
	return true
}

func (t *UploadTracker) Progress() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

func (t *UploadTracker) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready
}

// Stop cancels the transfer. Safe to call more than once. Once Stop returns,
// a tracker that has not already completed will never report ready or fire
// its callback, even if a tick was in flight.
func (t *UploadTracker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.stopOnce.Do(func() { close(t.stop) })
}
