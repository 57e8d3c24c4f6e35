package vision

import (
	"fmt"
	"image"
)

// Candidate is a single strategy's guess at a clickable region. The
// bounding box is in absolute screen coordinates; Confidence is in [0,1].
// Candidates are immutable once produced.
type Candidate struct {
	X          int
	Y          int
	Width      int
	Height     int
	Confidence float64
	Strategy   string
	Text       string
}

func (c Candidate) String() string {
	return fmt.Sprintf("candidate %s conf=%.2f at (%d,%d %dx%d)", c.Strategy, c.Confidence, c.X, c.Y, c.Width, c.Height)
}

// CenterX returns the horizontal click target
func (c Candidate) CenterX() int { return c.X + c.Width/2 }

// CenterY returns the vertical click target
func (c Candidate) CenterY() int { return c.Y + c.Height/2 }

// Area returns the box area in square pixels
func (c Candidate) Area() int { return c.Width * c.Height }

// Bounds returns the box as an image.Rectangle
func (c Candidate) Bounds() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
}

// RankedCandidate is a Candidate that survived deduplication. A slice of
// RankedCandidates is always ordered by non-increasing confidence.
type RankedCandidate struct {
	Candidate
}

// padded grows the box by margin pixels on every side, clamped to the
// frame rectangle when one is given
func (c Candidate) padded(margin int, clamp *image.Rectangle) Candidate {
	out := c
	out.X -= margin
	out.Y -= margin
	out.Width += 2 * margin
	out.Height += 2 * margin
	if clamp != nil {
		r := out.Bounds().Intersect(*clamp)
		out.X, out.Y = r.Min.X, r.Min.Y
		out.Width, out.Height = r.Dx(), r.Dy()
	}
	return out
}
