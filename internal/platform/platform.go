package platform

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// WindowHandle identifies one top-level window of the target application.
// Handles are re-created on every enumeration pass; the only identity that
// survives across cycles is the platform ID.
type WindowHandle struct {
	ID      string
	Title   string
	PID     int
	X       int
	Y       int
	Width   int
	Height  int
	Focused bool
}

func (w WindowHandle) String() string {
	return fmt.Sprintf("window %s %q (%dx%d at %d,%d pid=%d)", w.ID, w.Title, w.Width, w.Height, w.X, w.Y, w.PID)
}

// Frame is a captured pixel buffer together with the screen origin of its
// top-left corner, used to convert local detection coordinates into
// absolute click coordinates. A frame belongs to the cycle that captured
// it and is never shared across cycles.
type Frame struct {
	Image   *image.RGBA
	OriginX int
	OriginY int
}

// Width returns the frame width in pixels
func (f *Frame) Width() int { return f.Image.Bounds().Dx() }

// Height returns the frame height in pixels
func (f *Frame) Height() int { return f.Image.Bounds().Dy() }

// Enumerator lists candidate windows of the target application
type Enumerator interface {
	Enumerate(ctx context.Context, titlePattern string) ([]WindowHandle, error)
}

// Capturer produces a still image of a window
type Capturer interface {
	CaptureWindow(ctx context.Context, win WindowHandle) (*Frame, error)
}

// Input simulates pointer and keyboard actions. Callers must serialize
// Input use: the pointer and keyboard are a single shared resource.
type Input interface {
	Foreground(ctx context.Context, win WindowHandle) error
	Click(ctx context.Context, x, y int) error
	MovePointer(x, y int) error
	PointerPosition() (x, y int, err error)
	SendKeys(ctx context.Context, chord string) error
	TypeText(ctx context.Context, text string) error
}

// Backend bundles the full platform capability set. Implementations
// self-report availability so the orchestrator can build its active
// backend once at startup instead of branching on platform in shared
// logic.
type Backend interface {
	Enumerator
	Capturer
	Input

	Name() string
	Available() bool
}

// ErrNoBackend is returned when no platform backend reports availability.
// This is a fatal startup condition.
var ErrNoBackend = errors.New("no platform backend available")

// Select returns the first available backend from the candidate list, in
// preference order.
func Select(candidates ...Backend) (Backend, error) {
	for _, b := range candidates {
		if b != nil && b.Available() {
			return b, nil
		}
	}
	return nil, ErrNoBackend
}

// DefaultBackends returns the built-in backends in preference order: the
// xdotool backend first (per-window key routing), then robotgo.
func DefaultBackends() []Backend {
	return []Backend{
		NewXDoToolBackend(),
		NewRobotBackend(),
	}
}
