package engine

import (
	"sync"
	"time"

	"jordanella.com/clickwatch/internal/logging"
	"jordanella.com/clickwatch/internal/platform"
)

// activityPollInterval is how often the watcher samples the pointer
const activityPollInterval = 500 * time.Millisecond

// ActivityWatcher samples the pointer position in the background and
// flags recent human input, so the orchestrator backs off instead of
// fighting the operator for the mouse. The orchestrator suppresses the
// watcher around its own pointer moves so they do not count as human.
type ActivityWatcher struct {
	input   platform.Input
	timeout time.Duration
	log     *logging.Logger

	mu            sync.Mutex
	lastX, lastY  int
	havePos       bool
	lastActivity  time.Time
	suppressUntil time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewActivityWatcher creates a watcher; timeout is how long after the
// last observed human input UserActive keeps reporting true
func NewActivityWatcher(input platform.Input, timeout time.Duration, log *logging.Logger) *ActivityWatcher {
	return &ActivityWatcher{
		input:   input,
		timeout: timeout,
		log:     log,
		stopCh:  make(chan struct{}),
	}
}

// Start begins background polling
func (w *ActivityWatcher) Start() {
	w.wg.Add(1)
	go w.poll()
}

// Stop ends background polling
func (w *ActivityWatcher) Stop() {
	close(w.stopCh)
	w.wg.Wait()
}

// Suppress marks the next d of pointer movement as self-inflicted
func (w *ActivityWatcher) Suppress(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	until := time.Now().Add(d)
	if until.After(w.suppressUntil) {
		w.suppressUntil = until
	}
}

// UserActive reports whether human pointer input was seen within the
// timeout window
func (w *ActivityWatcher) UserActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.lastActivity.IsZero() && time.Since(w.lastActivity) < w.timeout
}

func (w *ActivityWatcher) poll() {
	defer w.wg.Done()

	ticker := time.NewTicker(activityPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sample()
		}
	}
}

func (w *ActivityWatcher) sample() {
	x, y, err := w.input.PointerPosition()
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	moved := w.havePos && (x != w.lastX || y != w.lastY)
	w.lastX, w.lastY = x, y
	w.havePos = true

	if !moved {
		return
	}
	if time.Now().Before(w.suppressUntil) {
		// Our own click moved the pointer
		return
	}
	if w.lastActivity.IsZero() || time.Since(w.lastActivity) >= w.timeout {
		w.log.Debug("human pointer activity detected, holding clicks")
	}
	w.lastActivity = time.Now()
}
