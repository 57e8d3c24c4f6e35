package gui

import (
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"jordanella.com/clickwatch/internal/engine"
	"jordanella.com/clickwatch/internal/events"
)

// maxRecentEvents bounds the scrollback of the activity feed
const maxRecentEvents = 200

// Dashboard is the live view over a running engine: counters, the
// per-window freeze table, the activity feed, and the pause and
// dry-run controls.
type Dashboard struct {
	eng *engine.Engine
	bus events.EventBus

	statsLabel  *widget.Label
	freezeBox   *fyne.Container
	eventList   *widget.List
	pauseBtn    *widget.Button
	dryRunCheck *widget.Check

	mu     sync.Mutex
	recent []string

	subs        []events.SubscriptionID
	stopRefresh chan struct{}
}

// NewDashboard creates a dashboard over the given engine and bus
func NewDashboard(eng *engine.Engine, bus events.EventBus) *Dashboard {
	return &Dashboard{
		eng:         eng,
		bus:         bus,
		stopRefresh: make(chan struct{}),
	}
}

// Build constructs the dashboard UI and starts its refresh loop
func (d *Dashboard) Build() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Continue Watcher", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	d.statsLabel = widget.NewLabel("")
	d.freezeBox = container.NewVBox()

	d.eventList = widget.NewList(
		func() int {
			d.mu.Lock()
			defer d.mu.Unlock()
			return len(d.recent)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			d.mu.Lock()
			defer d.mu.Unlock()
			if i < len(d.recent) {
				obj.(*widget.Label).SetText(d.recent[i])
			}
		},
	)

	d.pauseBtn = widget.NewButton("Pause", d.togglePause)
	d.dryRunCheck = widget.NewCheck("Dry run", func(on bool) {
		d.eng.SetDryRun(on)
	})
	d.dryRunCheck.SetChecked(d.eng.DryRun())

	controls := container.NewHBox(d.pauseBtn, d.dryRunCheck)

	freezeSection := widget.NewLabelWithStyle("Window freeze states", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	feedSection := widget.NewLabelWithStyle("Activity", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	top := container.NewVBox(
		header,
		d.statsLabel,
		controls,
		widget.NewSeparator(),
		freezeSection,
		d.freezeBox,
		widget.NewSeparator(),
		feedSection,
	)

	d.subscribe()
	d.refresh()
	go d.autoRefresh()

	return container.NewBorder(top, nil, nil, nil, d.eventList)
}

// Shutdown stops the refresh loop and drops the bus subscriptions
func (d *Dashboard) Shutdown() {
	close(d.stopRefresh)
	for _, id := range d.subs {
		d.bus.Unsubscribe(id)
	}
}

func (d *Dashboard) togglePause() {
	if d.eng.IsPaused() {
		d.eng.Resume()
		d.pauseBtn.SetText("Pause")
	} else {
		d.eng.Pause("paused from dashboard")
		d.pauseBtn.SetText("Resume")
	}
}

// subscribe wires the activity feed to the event bus
func (d *Dashboard) subscribe() {
	feed := func(format func(events.Event) string) events.EventHandler {
		return func(e events.Event) {
			d.appendEvent(e.Timestamp.Format("15:04:05") + "  " + format(e))
		}
	}

	d.subs = append(d.subs,
		d.bus.Subscribe(events.EventTypeClickPerformed, feed(func(e events.Event) string {
			if dry, _ := e.Data["dry_run"].(bool); dry {
				return fmt.Sprintf("dry-run click on %v at (%v,%v)", e.Data["window_id"], e.Data["x"], e.Data["y"])
			}
			return fmt.Sprintf("clicked %v at (%v,%v)", e.Data["window_id"], e.Data["x"], e.Data["y"])
		})),
		d.bus.Subscribe(events.EventTypeFreezeDetected, feed(func(e events.Event) string {
			return fmt.Sprintf("freeze on %v after %v", e.Data["window_id"], e.Data["unchanged_for"])
		})),
		d.bus.Subscribe(events.EventTypeRecoveryAttempted, feed(func(e events.Event) string {
			return fmt.Sprintf("recovery %v on %v (ok=%v)", e.Data["method"], e.Data["window_id"], e.Data["succeeded"])
		})),
		d.bus.Subscribe(events.EventTypeError, feed(func(e events.Event) string {
			return fmt.Sprintf("error in %v: %v", e.Data["component"], e.Data["error"])
		})),
	)
}

// appendEvent adds one line to the feed, newest first
func (d *Dashboard) appendEvent(line string) {
	d.mu.Lock()
	d.recent = append([]string{line}, d.recent...)
	if len(d.recent) > maxRecentEvents {
		d.recent = d.recent[:maxRecentEvents]
	}
	d.mu.Unlock()

	fyne.Do(func() {
		d.eventList.Refresh()
	})
}

// autoRefresh updates the counters and freeze table periodically
func (d *Dashboard) autoRefresh() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fyne.Do(d.refresh)
		case <-d.stopRefresh:
			return
		}
	}
}

// refresh redraws the counters and the freeze table from engine state
func (d *Dashboard) refresh() {
	s := d.eng.Statistics()
	d.statsLabel.SetText(fmt.Sprintf(
		"cycles %d | windows %d | candidates %d | clicks %d/%d | freezes %d | recoveries %d | errors %d",
		s.Cycles, s.WindowsProcessed, s.CandidatesFound,
		s.ClicksSucceeded, s.ClicksAttempted,
		s.FreezesDetected, s.RecoveriesTriggered, s.Errors))

	d.freezeBox.RemoveAll()
	states := d.eng.FreezeStates()
	if len(states) == 0 {
		d.freezeBox.Add(widget.NewLabel("no windows tracked"))
	}
	for _, ws := range states {
		title := ws.Title
		if title == "" {
			title = ws.WindowID
		}
		d.freezeBox.Add(widget.NewLabel(fmt.Sprintf(
			"%s — %s, unchanged %s (%d cycles), %d recovery attempts",
			title, ws.State, ws.UnchangedFor.Round(time.Second), ws.UnchangedCycles, ws.RecoveryAttempts)))
	}
	d.freezeBox.Refresh()
}
