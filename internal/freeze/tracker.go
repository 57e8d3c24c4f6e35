package freeze

import (
	"sync"
	"time"

	"jordanella.com/clickwatch/internal/logging"
	"jordanella.com/clickwatch/internal/platform"
)

// State is the per-window freeze state
type State int

const (
	// StateActive means the window content changed recently
	StateActive State = iota
	// StateUnchanged means the fingerprint has repeated for at least one
	// cycle but the freeze threshold has not been reached
	StateUnchanged
	// StateRecoveryPending means the threshold is reached but the
	// recovery cooldown has not yet elapsed
	StateRecoveryPending
	// StateRecovering means a recovery attempt has just been issued
	StateRecovering
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateUnchanged:
		return "unchanged"
	case StateRecoveryPending:
		return "recovery_pending"
	case StateRecovering:
		return "recovering"
	default:
		return "unknown"
	}
}

// windowState is the tracker's private bookkeeping for one window id
type windowState struct {
	state            State
	fingerprint      uint64
	unchangedSince   time.Time
	unchangedCycles  int
	lastRecovery     time.Time
	recoveryAttempts int
	lastSeen         time.Time
	title            string
}

// Observation is what one Observe call decided about a window. When
// RecoveryDue is true the window has entered StateRecovering and the
// caller is expected to run the escalator, then report the result back
// through RecoveryAttempted.
type Observation struct {
	WindowID        string
	State           State
	UnchangedCycles int
	UnchangedFor    time.Duration
	RecoveryDue     bool
}

// WindowStatus is a read-only snapshot of one tracked window, consumed
// by the dashboard and the stats command
type WindowStatus struct {
	WindowID         string
	Title            string
	State            State
	UnchangedCycles  int
	UnchangedFor     time.Duration
	RecoveryAttempts int
	LastRecovery     time.Time
}

// Tracker decides, window by window, when unchanged content has crossed
// the freeze threshold and a recovery attempt is due. All state is
// mutated by the orchestrator's loop; the mutex only protects snapshot
// reads from other goroutines (GUI, stats).
type Tracker struct {
	threshold time.Duration
	cooldown  time.Duration
	clock     func() time.Time
	log       *logging.Logger

	mu      sync.Mutex
	windows map[string]*windowState
}

// NewTracker creates a freeze tracker with the given threshold and
// recovery cooldown
func NewTracker(threshold, cooldown time.Duration, log *logging.Logger) *Tracker {
	return &Tracker{
		threshold: threshold,
		cooldown:  cooldown,
		clock:     time.Now,
		log:       log,
		windows:   make(map[string]*windowState),
	}
}

// WithClock overrides the time source, used by tests
func (t *Tracker) WithClock(clock func() time.Time) *Tracker {
	t.clock = clock
	return t
}

// Observe feeds one cycle's capture of a window into the state machine
// and returns the resulting state. Call exactly once per window per
// cycle.
func (t *Tracker) Observe(win platform.WindowHandle, frame *platform.Frame) Observation {
	now := t.clock()
	fp := Fingerprint(win, frame)

	t.mu.Lock()
	defer t.mu.Unlock()

	ws, seen := t.windows[win.ID]
	if !seen {
		ws = &windowState{
			state:          StateActive,
			fingerprint:    fp,
			unchangedSince: now,
		}
		t.windows[win.ID] = ws
	}
	ws.lastSeen = now
	ws.title = win.Title

	if seen && fp != ws.fingerprint {
		// Content changed: back to square one
		ws.state = StateActive
		ws.fingerprint = fp
		ws.unchangedSince = now
		ws.unchangedCycles = 0
		return t.observation(win.ID, ws, now)
	}

	if seen {
		ws.unchangedCycles++
	}

	unchangedFor := now.Sub(ws.unchangedSince)
	if unchangedFor < t.threshold {
		if ws.unchangedCycles > 0 {
			ws.state = StateUnchanged
		}
		return t.observation(win.ID, ws, now)
	}

	// Threshold crossed. Fire unless a previous attempt is still cooling
	// down.
	if !ws.lastRecovery.IsZero() && now.Sub(ws.lastRecovery) < t.cooldown {
		ws.state = StateRecoveryPending
		return t.observation(win.ID, ws, now)
	}

	ws.state = StateRecovering
	t.log.Warnf("%s frozen for %s (%d cycles), recovery due", win.ID, unchangedFor.Round(time.Second), ws.unchangedCycles)
	obs := t.observation(win.ID, ws, now)
	obs.RecoveryDue = true
	return obs
}

// RecoveryAttempted records that the escalator ran for a window. The
// window resets to Active whether or not the attempt succeeded, so a
// failed action cannot re-fire every cycle; a still-frozen window
// re-accumulates and re-triggers after another full threshold period.
func (t *Tracker) RecoveryAttempted(windowID string, ok bool) {
	now := t.clock()

	t.mu.Lock()
	defer t.mu.Unlock()

	ws, seen := t.windows[windowID]
	if !seen {
		return
	}
	ws.state = StateActive
	ws.unchangedSince = now
	ws.unchangedCycles = 0
	ws.lastRecovery = now
	ws.recoveryAttempts++

	if ok {
		t.log.Infof("recovery for %s succeeded, attempt %d", windowID, ws.recoveryAttempts)
	} else {
		t.log.Warnf("recovery for %s exhausted all methods, attempt %d", windowID, ws.recoveryAttempts)
	}
}

// Prune drops state for windows that no longer appear in enumeration
func (t *Tracker) Prune(live []platform.WindowHandle) {
	alive := make(map[string]bool, len(live))
	for _, w := range live {
		alive[w.ID] = true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for id := range t.windows {
		if !alive[id] {
			t.log.Debugf("window %s gone, dropping freeze state", id)
			delete(t.windows, id)
		}
	}
}

// Snapshot returns the current status of every tracked window, ordered
// arbitrarily
func (t *Tracker) Snapshot() []WindowStatus {
	now := t.clock()

	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]WindowStatus, 0, len(t.windows))
	for id, ws := range t.windows {
		out = append(out, WindowStatus{
			WindowID:         id,
			Title:            ws.title,
			State:            ws.state,
			UnchangedCycles:  ws.unchangedCycles,
			UnchangedFor:     now.Sub(ws.unchangedSince),
			RecoveryAttempts: ws.recoveryAttempts,
			LastRecovery:     ws.lastRecovery,
		})
	}
	return out
}

func (t *Tracker) observation(id string, ws *windowState, now time.Time) Observation {
	return Observation{
		WindowID:        id,
		State:           ws.state,
		UnchangedCycles: ws.unchangedCycles,
		UnchangedFor:    now.Sub(ws.unchangedSince),
	}
}
