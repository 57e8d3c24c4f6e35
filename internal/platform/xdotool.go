package platform

import (
	"context"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/vova616/screenshot"
)

// XDoToolBackend drives X11 windows through the xdotool command-line
// utility. Key and type events are routed to a specific window, so the
// backend can operate on windows without stealing global keyboard focus
// for longer than a single action.
type XDoToolBackend struct {
	binary string
}

// NewXDoToolBackend creates the xdotool-based backend
func NewXDoToolBackend() *XDoToolBackend {
	return &XDoToolBackend{binary: "xdotool"}
}

// Name returns the backend identifier
func (x *XDoToolBackend) Name() string { return "xdotool" }

// Available reports whether the xdotool binary can be found
func (x *XDoToolBackend) Available() bool {
	_, err := exec.LookPath(x.binary)
	return err == nil
}

// Enumerate lists windows whose title matches the pattern
func (x *XDoToolBackend) Enumerate(ctx context.Context, titlePattern string) ([]WindowHandle, error) {
	out, err := x.run(ctx, "search", "--name", titlePattern)
	if err != nil {
		// xdotool exits non-zero when nothing matches
		return nil, nil
	}

	activeID, _ := x.run(ctx, "getactivewindow")
	activeID = strings.TrimSpace(activeID)

	var windows []WindowHandle
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		id := strings.TrimSpace(line)
		if id == "" {
			continue
		}
		win, err := x.windowInfo(ctx, id)
		if err != nil {
			// Window may have closed between search and query
			continue
		}
		win.Focused = id == activeID
		windows = append(windows, win)
	}
	return windows, nil
}

// windowInfo fills in the title, pid, and geometry for one window id
func (x *XDoToolBackend) windowInfo(ctx context.Context, id string) (WindowHandle, error) {
	win := WindowHandle{ID: id}

	title, err := x.run(ctx, "getwindowname", id)
	if err != nil {
		return win, fmt.Errorf("failed to get window name for %s: %w", id, err)
	}
	win.Title = strings.TrimSpace(title)

	if pidOut, err := x.run(ctx, "getwindowpid", id); err == nil {
		win.PID, _ = strconv.Atoi(strings.TrimSpace(pidOut))
	}

	geom, err := x.run(ctx, "getwindowgeometry", "--shell", id)
	if err != nil {
		return win, fmt.Errorf("failed to get geometry for %s: %w", id, err)
	}
	x.parseGeometry(geom, &win)
	return win, nil
}

// parseGeometry parses `getwindowgeometry --shell` output (X=..\nY=.. lines)
func (x *XDoToolBackend) parseGeometry(out string, win *WindowHandle) {
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		switch key {
		case "X":
			win.X = n
		case "Y":
			win.Y = n
		case "WIDTH":
			win.Width = n
		case "HEIGHT":
			win.Height = n
		}
	}
}

// CaptureWindow grabs the window's screen region
func (x *XDoToolBackend) CaptureWindow(ctx context.Context, win WindowHandle) (*Frame, error) {
	if win.Width <= 0 || win.Height <= 0 {
		return nil, fmt.Errorf("invalid window dimensions: %dx%d", win.Width, win.Height)
	}

	rect := image.Rect(win.X, win.Y, win.X+win.Width, win.Y+win.Height)
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, fmt.Errorf("failed to capture window region: %w", err)
	}

	return &Frame{Image: img, OriginX: win.X, OriginY: win.Y}, nil
}

// Foreground activates the window and waits for the change to apply
func (x *XDoToolBackend) Foreground(ctx context.Context, win WindowHandle) error {
	if _, err := x.run(ctx, "windowactivate", "--sync", win.ID); err != nil {
		return fmt.Errorf("failed to activate %s: %w", win.ID, err)
	}
	// Give the window manager a beat to finish the focus transfer
	select {
	case <-time.After(200 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Click moves the pointer to absolute screen coordinates and left-clicks
func (x *XDoToolBackend) Click(ctx context.Context, xPos, yPos int) error {
	if _, err := x.run(ctx, "mousemove", strconv.Itoa(xPos), strconv.Itoa(yPos)); err != nil {
		return fmt.Errorf("failed to move pointer: %w", err)
	}
	if _, err := x.run(ctx, "click", "1"); err != nil {
		return fmt.Errorf("failed to click: %w", err)
	}
	return nil
}

// MovePointer moves the pointer without clicking
func (x *XDoToolBackend) MovePointer(xPos, yPos int) error {
	_, err := x.run(context.Background(), "mousemove", strconv.Itoa(xPos), strconv.Itoa(yPos))
	return err
}

// PointerPosition returns the current pointer location
func (x *XDoToolBackend) PointerPosition() (int, int, error) {
	out, err := x.run(context.Background(), "getmouselocation", "--shell")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read pointer position: %w", err)
	}
	var px, py int
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(value))
		if convErr != nil {
			continue
		}
		switch key {
		case "X":
			px = n
		case "Y":
			py = n
		}
	}
	return px, py, nil
}

// SendKeys sends a key chord to the focused window
func (x *XDoToolBackend) SendKeys(ctx context.Context, chord string) error {
	if _, err := x.run(ctx, "key", xdotoolChord(chord)); err != nil {
		return fmt.Errorf("failed to send keys %q: %w", chord, err)
	}
	return nil
}

// TypeText types a literal string into the focused window
func (x *XDoToolBackend) TypeText(ctx context.Context, text string) error {
	if _, err := x.run(ctx, "type", "--delay", "20", text); err != nil {
		return fmt.Errorf("failed to type text: %w", err)
	}
	return nil
}

// run executes an xdotool subcommand, bounded by the caller's context
func (x *XDoToolBackend) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, x.binary, args...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("xdotool %s: %w", args[0], err)
	}
	return string(out), nil
}
