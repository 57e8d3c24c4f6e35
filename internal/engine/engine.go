package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"jordanella.com/clickwatch/internal/config"
	"jordanella.com/clickwatch/internal/database"
	"jordanella.com/clickwatch/internal/events"
	"jordanella.com/clickwatch/internal/freeze"
	"jordanella.com/clickwatch/internal/logging"
	"jordanella.com/clickwatch/internal/platform"
	"jordanella.com/clickwatch/internal/recovery"
	"jordanella.com/clickwatch/internal/vision"
)

// chatIndicators mark window titles that carry the chat surface, used
// when filtering.requireChatIndicator is on
var chatIndicators = []string{"chat", "copilot"}

// Engine is the automation orchestrator: one control loop whose cycle
// enumerates windows, captures and detects per window, clicks ranked
// candidates, and drives the freeze tracker and recovery escalator.
// Input simulation is never concurrent; everything that touches the
// pointer or keyboard runs on the loop goroutine.
type Engine struct {
	cfg        *config.Config
	backend    platform.Backend
	strategies []vision.Strategy
	merger     *vision.Merger
	tracker    *freeze.Tracker
	escalator  *recovery.Escalator
	log        *logging.Logger

	bus      events.EventBus
	activity *ActivityWatcher
	db       *database.DB
	runID    int64

	stats         *Statistics
	excludeTitles []*regexp.Regexp

	dryRun  atomic.Bool
	paused  atomic.Bool
	stopped atomic.Bool
	cancel  context.CancelFunc

	lastFreezeCheck time.Time
}

// New wires an engine from configuration. The strategy list comes from
// the caller so tests can inject fakes; merger, tracker, and escalator
// are built here from the config.
func New(cfg *config.Config, backend platform.Backend, strategies []vision.Strategy, log *logging.Logger) (*Engine, error) {
	chain, err := recovery.ChainFromNames(cfg.Freeze.RecoveryMethods)
	if err != nil {
		return nil, fmt.Errorf("invalid recovery configuration: %w", err)
	}

	var excludes []*regexp.Regexp
	for _, p := range cfg.Filtering.TitleExcludePatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			log.Warnf("ignoring bad title exclude pattern %q: %v", p, err)
			continue
		}
		excludes = append(excludes, re)
	}

	e := &Engine{
		cfg:           cfg,
		backend:       backend,
		strategies:    strategies,
		merger:        vision.NewMerger(cfg.Detection.OverlapThreshold),
		tracker:       freeze.NewTracker(cfg.Freeze.Threshold(), cfg.Freeze.RecoveryCooldown(), log.Named("freeze")),
		escalator:     recovery.NewEscalator(backend, chain, log.Named("recovery")),
		log:           log,
		stats:         NewStatistics(),
		excludeTitles: excludes,
	}
	e.dryRun.Store(cfg.Automation.DryRun)
	return e, nil
}

// WithEventBus attaches a bus for detection/freeze/lifecycle events
func (e *Engine) WithEventBus(bus events.EventBus) *Engine {
	e.bus = bus
	return e
}

// WithActivityWatcher attaches the user-activity interlock
func (e *Engine) WithActivityWatcher(w *ActivityWatcher) *Engine {
	e.activity = w
	return e
}

// WithDatabase attaches the run store for recovery-event auditing
func (e *Engine) WithDatabase(db *database.DB, runID int64) *Engine {
	e.db = db
	e.runID = runID
	return e
}

// WithTracker replaces the freeze tracker, used by tests
func (e *Engine) WithTracker(t *freeze.Tracker) *Engine {
	e.tracker = t
	return e
}

// WithEscalator replaces the recovery escalator, used by tests
func (e *Engine) WithEscalator(esc *recovery.Escalator) *Engine {
	e.escalator = esc
	return e
}

// Run drives the control loop until the context is cancelled or Stop is
// called. The first cycle starts immediately.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	defer cancel()

	if e.activity != nil {
		e.activity.Start()
		defer e.activity.Stop()
	}

	e.log.Infof("watching windows matching %q every %s", e.cfg.Automation.WindowTitlePattern, e.cfg.Automation.Interval())

	ticker := time.NewTicker(e.cfg.Automation.Interval())
	defer ticker.Stop()

	e.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			e.log.Info("control loop stopped")
			return nil
		case <-ticker.C:
			if e.stopped.Load() {
				return nil
			}
			e.runCycle(ctx)
		}
	}
}

// Stop asks the control loop to exit after the current cycle
func (e *Engine) Stop() {
	e.stopped.Store(true)
	if e.cancel != nil {
		e.cancel()
	}
}

// Pause suspends clicking and recovery; detection and freeze tracking
// keep running so statistics stay meaningful
func (e *Engine) Pause(reason string) {
	if e.paused.CompareAndSwap(false, true) {
		e.log.Infof("paused: %s", reason)
		e.publish(events.NewWatcherPausedEvent(reason))
	}
}

// Resume lifts a pause
func (e *Engine) Resume() {
	if e.paused.CompareAndSwap(true, false) {
		e.log.Info("resumed")
		e.publish(events.NewWatcherResumedEvent())
	}
}

// IsPaused reports the pause flag
func (e *Engine) IsPaused() bool { return e.paused.Load() }

// SetDryRun flips dry-run mode at runtime
func (e *Engine) SetDryRun(on bool) { e.dryRun.Store(on) }

// DryRun reports whether dry-run mode is on
func (e *Engine) DryRun() bool { return e.dryRun.Load() }

// Statistics returns a snapshot of the process-wide counters
func (e *Engine) Statistics() StatisticsSnapshot { return e.stats.Snapshot() }

// ResetStatistics zeroes the counters
func (e *Engine) ResetStatistics() { e.stats.Reset() }

// FreezeStates returns the tracker's current per-window view
func (e *Engine) FreezeStates() []freeze.WindowStatus { return e.tracker.Snapshot() }

// Totals converts the counters into the persistent run summary shape
func (e *Engine) Totals() database.RunTotals {
	s := e.stats.Snapshot()
	return database.RunTotals{
		Cycles:              s.Cycles,
		WindowsProcessed:    s.WindowsProcessed,
		CandidatesFound:     s.CandidatesFound,
		ClicksAttempted:     s.ClicksAttempted,
		ClicksSucceeded:     s.ClicksSucceeded,
		FreezesDetected:     s.FreezesDetected,
		RecoveriesTriggered: s.RecoveriesTriggered,
		Errors:              s.Errors,
	}
}

// runCycle executes one full iteration. Nothing inside a cycle may kill
// the loop; panics are absorbed and counted.
func (e *Engine) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.stats.addError()
			e.log.Warnf("cycle panicked: %v", r)
		}
	}()

	start := time.Now()

	windows, err := e.backend.Enumerate(ctx, e.cfg.Automation.WindowTitlePattern)
	if err != nil {
		e.log.Debugf("enumeration failed: %v", err)
		e.stats.addError()
		return
	}

	windows = e.filterWindows(windows)
	e.tracker.Prune(windows)

	freezePass := e.lastFreezeCheck.IsZero() || time.Since(e.lastFreezeCheck) >= e.cfg.Freeze.CheckInterval()
	if freezePass {
		e.lastFreezeCheck = time.Now()
	}

	var cycleCandidates, cycleClicks int
	for _, win := range windows {
		if ctx.Err() != nil {
			return
		}
		candidates, clicks := e.processWindow(ctx, win, freezePass)
		cycleCandidates += candidates
		cycleClicks += clicks
	}

	e.stats.addCycle()
	snapshot := e.stats.Snapshot()
	e.publish(events.NewCycleCompletedEvent(snapshot.Cycles, len(windows), cycleCandidates, cycleClicks, time.Since(start)))
}

// processWindow runs capture, detection, clicking, and the freeze pass
// for one window
func (e *Engine) processWindow(ctx context.Context, win platform.WindowHandle, freezePass bool) (candidates, clicks int) {
	frame, err := e.backend.CaptureWindow(ctx, win)
	if err != nil {
		e.log.Debugf("capture failed for %s: %v", win.ID, err)
		return 0, 0
	}

	e.stats.addWindows(1)
	ranked := e.detect(frame)
	candidates = len(ranked)
	e.stats.addCandidates(candidates)

	for _, rc := range ranked {
		e.publish(events.NewCandidateDetectedEvent(win.ID, rc.Strategy, rc.Text, rc.Confidence))
	}

	if candidates > 0 && e.canAct() {
		clicks = e.clickCandidates(ctx, win, ranked)
	}

	if freezePass {
		e.observeFreeze(ctx, win, frame)
	}
	return candidates, clicks
}

// detect runs every strategy concurrently over the immutable frame,
// joins them, and merges the combined output
func (e *Engine) detect(frame *platform.Frame) []vision.RankedCandidate {
	results := make([][]vision.Candidate, len(e.strategies))

	var wg sync.WaitGroup
	for i, s := range e.strategies {
		wg.Add(1)
		go func(i int, s vision.Strategy) {
			defer wg.Done()
			results[i] = s.Detect(frame)
		}(i, s)
	}
	wg.Wait()

	var all []vision.Candidate
	for _, r := range results {
		all = append(all, r...)
	}

	ranked := e.merger.Merge(all)

	// Drop anything under the global confidence floor
	kept := ranked[:0]
	for _, rc := range ranked {
		if rc.Confidence >= e.cfg.Detection.ConfidenceThreshold {
			kept = append(kept, rc)
		}
	}
	return kept
}

// canAct reports whether input simulation is currently allowed
func (e *Engine) canAct() bool {
	if e.paused.Load() {
		return false
	}
	if e.cfg.Safety.PauseOnUserActivity && e.activity != nil && e.activity.UserActive() {
		return false
	}
	return true
}

// clickCandidates clicks the top-ranked candidates for one window,
// bounded by maxClicksPerWindow, with the configured delay between
// clicks in the same cycle
func (e *Engine) clickCandidates(ctx context.Context, win platform.WindowHandle, ranked []vision.RankedCandidate) int {
	limit := e.cfg.Automation.MaxClicksPerWindow
	if limit <= 0 {
		limit = 1
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}
	targets := ranked[:limit]

	if e.dryRun.Load() {
		for _, rc := range targets {
			e.log.Infof("dry-run: would click %s at (%d,%d)", rc.Strategy, rc.CenterX(), rc.CenterY())
			e.stats.addClickAttempt()
			e.stats.addClickSuccess()
			e.publish(events.NewClickPerformedEvent(win.ID, rc.CenterX(), rc.CenterY(), true, true))
		}
		return len(targets)
	}

	if e.activity != nil {
		e.activity.Suppress(5 * time.Second)
	}

	var restoreX, restoreY int
	restore := false
	if e.cfg.Automation.RestorePointer {
		if x, y, err := e.backend.PointerPosition(); err == nil {
			restoreX, restoreY, restore = x, y, true
		}
	}

	if err := e.backend.Foreground(ctx, win); err != nil {
		e.log.Warnf("cannot foreground %s for clicking: %v", win.ID, err)
		e.stats.addError()
		return 0
	}

	clicked := 0
	for i, rc := range targets {
		if ctx.Err() != nil {
			break
		}
		e.stats.addClickAttempt()
		if err := e.backend.Click(ctx, rc.CenterX(), rc.CenterY()); err != nil {
			e.log.Warnf("click failed on %s at (%d,%d): %v", win.ID, rc.CenterX(), rc.CenterY(), err)
			e.stats.addError()
			e.publish(events.NewClickPerformedEvent(win.ID, rc.CenterX(), rc.CenterY(), false, false))
			continue
		}
		clicked++
		e.stats.addClickSuccess()
		e.log.Infof("clicked %s candidate %q on %s at (%d,%d)", rc.Strategy, rc.Text, win.ID, rc.CenterX(), rc.CenterY())
		e.publish(events.NewClickPerformedEvent(win.ID, rc.CenterX(), rc.CenterY(), false, true))

		if i < len(targets)-1 {
			if err := sleepCtx(ctx, e.cfg.Automation.ClickDelay()); err != nil {
				break
			}
		}
	}

	if restore {
		if err := e.backend.MovePointer(restoreX, restoreY); err != nil {
			e.log.Debugf("pointer restore failed: %v", err)
		}
	}
	return clicked
}

// observeFreeze feeds one window into the freeze tracker and, when a
// recovery is due, runs the escalator
func (e *Engine) observeFreeze(ctx context.Context, win platform.WindowHandle, frame *platform.Frame) {
	obs := e.tracker.Observe(win, frame)
	if !obs.RecoveryDue {
		return
	}

	e.stats.addFreezeDetected()
	e.publish(events.NewFreezeDetectedEvent(win.ID, obs.UnchangedFor, obs.UnchangedCycles))

	if !e.canAct() {
		e.log.Infof("recovery for %s held back by safety pause", win.ID)
		e.tracker.RecoveryAttempted(win.ID, false)
		return
	}

	e.stats.addRecoveryTriggered()

	if e.dryRun.Load() {
		e.log.Infof("dry-run: would run recovery chain for %s", win.ID)
		e.tracker.RecoveryAttempted(win.ID, true)
		e.publish(events.NewRecoveryAttemptedEvent(win.ID, "dry-run", true))
		return
	}

	if e.activity != nil {
		e.activity.Suppress(10 * time.Second)
	}

	action, err := e.escalator.Recover(ctx, win)
	ok := err == nil
	method := "none"
	if ok {
		method = action.String()
	} else {
		e.log.Warnf("recovery failed for %s: %v", win.ID, err)
		e.stats.addError()
	}

	e.tracker.RecoveryAttempted(win.ID, ok)
	e.publish(events.NewRecoveryAttemptedEvent(win.ID, method, ok))

	if e.db != nil {
		if dbErr := e.db.RecordRecoveryEvent(e.runID, win.ID, win.Title, method, ok); dbErr != nil {
			e.log.Debugf("failed to persist recovery event: %v", dbErr)
		}
	}
}

// filterWindows applies the size and title filters
func (e *Engine) filterWindows(windows []platform.WindowHandle) []platform.WindowHandle {
	kept := windows[:0]
	for _, win := range windows {
		if win.Width < e.cfg.Filtering.MinWindowWidth || win.Height < e.cfg.Filtering.MinWindowHeight {
			continue
		}
		if e.titleExcluded(win.Title) {
			continue
		}
		if e.cfg.Filtering.RequireChatIndicator && !hasChatIndicator(win.Title) {
			continue
		}
		kept = append(kept, win)
	}
	return kept
}

func (e *Engine) titleExcluded(title string) bool {
	for _, re := range e.excludeTitles {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

func hasChatIndicator(title string) bool {
	lower := strings.ToLower(title)
	for _, marker := range chatIndicators {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func (e *Engine) publish(event events.Event) {
	if e.bus != nil {
		e.bus.Publish(event)
	}
}

// sleepCtx waits for d unless the context ends first
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
