package platform

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/vova616/screenshot"
)

// RobotBackend drives the desktop through robotgo's native bindings. It is
// the portable fallback when xdotool is not installed: enumeration works
// off process ids rather than window ids, and key events always go to the
// globally focused window.
type RobotBackend struct{}

// NewRobotBackend creates the robotgo-based backend
func NewRobotBackend() *RobotBackend {
	return &RobotBackend{}
}

// Name returns the backend identifier
func (r *RobotBackend) Name() string { return "robotgo" }

// Available reports whether robotgo can talk to a display
func (r *RobotBackend) Available() bool {
	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" {
		return false
	}
	return true
}

// Enumerate lists windows of processes matching the pattern. The process
// name is taken from the first word of the title pattern, lowercased,
// which matches how editors and terminals name their binaries.
func (r *RobotBackend) Enumerate(ctx context.Context, titlePattern string) ([]WindowHandle, error) {
	procName := processNameFromPattern(titlePattern)
	pids, err := robotgo.FindIds(procName)
	if err != nil {
		return nil, fmt.Errorf("failed to find %q processes: %w", procName, err)
	}

	activeTitle := robotgo.GetTitle()

	var windows []WindowHandle
	for _, pid := range pids {
		if ctx.Err() != nil {
			return windows, ctx.Err()
		}

		x, y, w, h := robotgo.GetBounds(pid)
		if w <= 0 || h <= 0 {
			continue
		}

		title := robotgo.GetTitle(pid)
		windows = append(windows, WindowHandle{
			ID:      strconv.Itoa(int(pid)),
			Title:   title,
			PID:     int(pid),
			X:       x,
			Y:       y,
			Width:   w,
			Height:  h,
			Focused: title != "" && title == activeTitle,
		})
	}
	return windows, nil
}

// processNameFromPattern derives a process name from a window title
// pattern ("Visual Studio Code" -> "code" is handled by the special case)
func processNameFromPattern(pattern string) string {
	lower := strings.ToLower(strings.TrimSpace(pattern))
	if strings.Contains(lower, "visual studio code") {
		return "code"
	}
	if fields := strings.Fields(lower); len(fields) > 0 {
		return fields[0]
	}
	return lower
}

// CaptureWindow grabs the window's screen region
func (r *RobotBackend) CaptureWindow(ctx context.Context, win WindowHandle) (*Frame, error) {
	if win.Width <= 0 || win.Height <= 0 {
		return nil, fmt.Errorf("invalid window dimensions: %dx%d", win.Width, win.Height)
	}

	img, err := robotgo.CaptureImg(win.X, win.Y, win.Width, win.Height)
	if err != nil || img == nil {
		// Fall back to the plain X11/Win32 screen grabber
		rect := image.Rect(win.X, win.Y, win.X+win.Width, win.Y+win.Height)
		rgba, capErr := screenshot.CaptureRect(rect)
		if capErr != nil {
			return nil, fmt.Errorf("failed to capture window region: %w", capErr)
		}
		return &Frame{Image: rgba, OriginX: win.X, OriginY: win.Y}, nil
	}

	return &Frame{Image: toRGBA(img), OriginX: win.X, OriginY: win.Y}, nil
}

// Foreground brings the window's owning process to the front
func (r *RobotBackend) Foreground(ctx context.Context, win WindowHandle) error {
	if win.PID == 0 {
		return fmt.Errorf("cannot foreground window without pid")
	}
	if err := robotgo.ActivePid(win.PID); err != nil {
		return fmt.Errorf("failed to activate pid %d: %w", win.PID, err)
	}
	select {
	case <-time.After(200 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Click moves the pointer and left-clicks
func (r *RobotBackend) Click(ctx context.Context, x, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	robotgo.Move(x, y)
	robotgo.Click("left", false)
	return nil
}

// MovePointer moves the pointer without clicking
func (r *RobotBackend) MovePointer(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

// PointerPosition returns the current pointer location
func (r *RobotBackend) PointerPosition() (int, int, error) {
	x, y := robotgo.Location()
	return x, y, nil
}

// SendKeys sends a key chord to the focused window
func (r *RobotBackend) SendKeys(ctx context.Context, chord string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, mods := parseChord(chord)
	if key == "" {
		return fmt.Errorf("empty key chord")
	}
	args := make([]interface{}, len(mods))
	for i, m := range mods {
		args[i] = m
	}
	if err := robotgo.KeyTap(key, args...); err != nil {
		return fmt.Errorf("failed to tap %q: %w", chord, err)
	}
	return nil
}

// TypeText types a literal string into the focused window
func (r *RobotBackend) TypeText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	robotgo.TypeStr(text)
	return nil
}

// toRGBA converts any image to *image.RGBA without copying when possible
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
