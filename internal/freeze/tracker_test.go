package freeze

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/clickwatch/internal/logging"
	"jordanella.com/clickwatch/internal/platform"
)

// fakeClock is a manually advanced time source
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testWindow(id string) platform.WindowHandle {
	return platform.WindowHandle{ID: id, Title: "editor", X: 10, Y: 20, Width: 800, Height: 600}
}

func solidFrame(c color.RGBA) *platform.Frame {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return &platform.Frame{Image: img, OriginX: 10, OriginY: 20}
}

func newTestTracker(threshold, cooldown time.Duration) (*Tracker, *fakeClock) {
	clock := newFakeClock()
	tracker := NewTracker(threshold, cooldown, logging.NewLogger("test")).WithClock(clock.Now)
	return tracker, clock
}

func TestFingerprintReflectsContentAndGeometry(t *testing.T) {
	win := testWindow("w1")
	white := solidFrame(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	black := solidFrame(color.RGBA{A: 255})

	assert.Equal(t, Fingerprint(win, white), Fingerprint(win, white))
	assert.NotEqual(t, Fingerprint(win, white), Fingerprint(win, black))

	moved := win
	moved.X += 50
	assert.NotEqual(t, Fingerprint(win, white), Fingerprint(moved, white),
		"moving a window must change the fingerprint")

	resized := win
	resized.Width -= 100
	assert.NotEqual(t, Fingerprint(win, white), Fingerprint(resized, white))
}

func TestFingerprintNilFrame(t *testing.T) {
	win := testWindow("w1")
	assert.Equal(t, Fingerprint(win, nil), Fingerprint(win, nil))
}

func TestObserveFirstSightIsActive(t *testing.T) {
	tracker, _ := newTestTracker(30*time.Second, time.Minute)

	obs := tracker.Observe(testWindow("w1"), solidFrame(color.RGBA{A: 255}))
	assert.Equal(t, StateActive, obs.State)
	assert.False(t, obs.RecoveryDue)
	assert.Zero(t, obs.UnchangedCycles)
}

func TestObserveChangeResetsToActive(t *testing.T) {
	tracker, clock := newTestTracker(30*time.Second, time.Minute)
	win := testWindow("w1")
	white := solidFrame(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	black := solidFrame(color.RGBA{A: 255})

	tracker.Observe(win, white)
	clock.Advance(10 * time.Second)
	obs := tracker.Observe(win, white)
	assert.Equal(t, StateUnchanged, obs.State)
	assert.Equal(t, 1, obs.UnchangedCycles)

	clock.Advance(10 * time.Second)
	obs = tracker.Observe(win, black)
	assert.Equal(t, StateActive, obs.State)
	assert.Zero(t, obs.UnchangedCycles)
	assert.Zero(t, obs.UnchangedFor)
}

func TestThresholdBoundary(t *testing.T) {
	// Exactly threshold seconds of unchanged content must trigger, and
	// one instant before must not
	tracker, clock := newTestTracker(30*time.Second, time.Minute)
	win := testWindow("w1")
	frame := solidFrame(color.RGBA{A: 255})

	tracker.Observe(win, frame)

	clock.Advance(30*time.Second - time.Millisecond)
	obs := tracker.Observe(win, frame)
	assert.False(t, obs.RecoveryDue, "just below threshold must not trigger")
	assert.Equal(t, StateUnchanged, obs.State)

	clock.Advance(time.Millisecond)
	obs = tracker.Observe(win, frame)
	assert.True(t, obs.RecoveryDue, "reaching the threshold exactly must trigger")
	assert.Equal(t, StateRecovering, obs.State)
}

func TestFreezeScenarioShortProfile(t *testing.T) {
	// Identical fingerprints for 3 cycles at a 10s check interval with a
	// 30s threshold: recovery fires on the cycle that reaches 30s, and a
	// successful attempt returns the window to Active with counters at
	// zero on the next cycle.
	tracker, clock := newTestTracker(30*time.Second, 30*time.Second)
	win := testWindow("w1")
	frame := solidFrame(color.RGBA{A: 255})

	tracker.Observe(win, frame) // baseline

	for cycle := 1; cycle <= 2; cycle++ {
		clock.Advance(10 * time.Second)
		obs := tracker.Observe(win, frame)
		assert.False(t, obs.RecoveryDue, "cycle %d must not trigger", cycle)
	}

	clock.Advance(10 * time.Second)
	obs := tracker.Observe(win, frame)
	require.True(t, obs.RecoveryDue, "cycle 3 reaches the threshold")
	assert.Equal(t, 3, obs.UnchangedCycles)

	tracker.RecoveryAttempted(win.ID, true)

	clock.Advance(10 * time.Second)
	obs = tracker.Observe(win, frame)
	assert.False(t, obs.RecoveryDue)
	assert.Equal(t, StateUnchanged, obs.State)
	assert.Equal(t, 1, obs.UnchangedCycles, "counters restart after the attempt")
}

func TestCooldownEnforcement(t *testing.T) {
	// Two recovery attempts for the same window are never less than the
	// cooldown apart
	tracker, clock := newTestTracker(10*time.Second, time.Minute)
	win := testWindow("w1")
	frame := solidFrame(color.RGBA{A: 255})

	tracker.Observe(win, frame)
	clock.Advance(10 * time.Second)
	obs := tracker.Observe(win, frame)
	require.True(t, obs.RecoveryDue)
	tracker.RecoveryAttempted(win.ID, false)
	firstAttempt := clock.Now()

	// The window stays frozen; threshold keeps being re-reached but the
	// cooldown holds recovery back
	for i := 0; i < 4; i++ {
		clock.Advance(10 * time.Second)
		obs = tracker.Observe(win, frame)
		if clock.Now().Sub(firstAttempt) < time.Minute {
			assert.False(t, obs.RecoveryDue, "attempt %d inside cooldown", i)
			assert.Equal(t, StateRecoveryPending, obs.State)
		}
	}

	clock.Advance(30 * time.Second) // now 70s past the first attempt
	obs = tracker.Observe(win, frame)
	assert.True(t, obs.RecoveryDue, "cooldown elapsed, recovery may fire again")
	assert.GreaterOrEqual(t, clock.Now().Sub(firstAttempt), time.Minute)
}

func TestOptimisticResetAfterFailedAttempt(t *testing.T) {
	// A failed attempt still resets the window so the escalator does not
	// re-fire every cycle; re-triggering requires a full threshold again
	tracker, clock := newTestTracker(10*time.Second, 5*time.Second)
	win := testWindow("w1")
	frame := solidFrame(color.RGBA{A: 255})

	tracker.Observe(win, frame)
	clock.Advance(10 * time.Second)
	require.True(t, tracker.Observe(win, frame).RecoveryDue)
	tracker.RecoveryAttempted(win.ID, false)

	clock.Advance(5 * time.Second)
	obs := tracker.Observe(win, frame)
	assert.False(t, obs.RecoveryDue, "threshold must re-accumulate from the attempt")

	clock.Advance(5 * time.Second)
	obs = tracker.Observe(win, frame)
	assert.True(t, obs.RecoveryDue)
}

func TestPruneDropsDepartedWindows(t *testing.T) {
	tracker, _ := newTestTracker(10*time.Second, time.Minute)
	frame := solidFrame(color.RGBA{A: 255})

	tracker.Observe(testWindow("w1"), frame)
	tracker.Observe(testWindow("w2"), frame)
	require.Len(t, tracker.Snapshot(), 2)

	tracker.Prune([]platform.WindowHandle{testWindow("w2")})

	snapshot := tracker.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "w2", snapshot[0].WindowID)
}

func TestSnapshotReportsAttempts(t *testing.T) {
	tracker, clock := newTestTracker(10*time.Second, 5*time.Second)
	win := testWindow("w1")
	frame := solidFrame(color.RGBA{A: 255})

	tracker.Observe(win, frame)
	clock.Advance(10 * time.Second)
	require.True(t, tracker.Observe(win, frame).RecoveryDue)
	tracker.RecoveryAttempted(win.ID, true)

	snapshot := tracker.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, 1, snapshot[0].RecoveryAttempts)
	assert.Equal(t, StateActive, snapshot[0].State)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "unchanged", StateUnchanged.String())
	assert.Equal(t, "recovery_pending", StateRecoveryPending.String())
	assert.Equal(t, "recovering", StateRecovering.String())
}
