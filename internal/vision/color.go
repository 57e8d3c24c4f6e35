package vision

import (
	"gocv.io/x/gocv"

	"jordanella.com/clickwatch/internal/logging"
	"jordanella.com/clickwatch/internal/platform"
)

// ColorStrategyName identifies the color/geometry strategy in config
const ColorStrategyName = "color"

// Geometry envelope for button-like contours
const (
	minButtonArea   = 300.0
	maxButtonArea   = 10000.0
	minButtonAspect = 0.3
	maxButtonAspect = 6.0
	colorConfidence = 0.35 // fixed low baseline: this strategy is a fallback
)

// AccentRange is one HSV slice of the target application's accent color.
// Hue uses OpenCV's 0-179 scale.
type AccentRange struct {
	Name                string
	HueLo, SatLo, ValLo float64
	HueHi, SatHi, ValHi float64
}

// DefaultAccentRanges covers the editor's blue action-button accents
func DefaultAccentRanges() []AccentRange {
	return []AccentRange{
		{Name: "accent-blue", HueLo: 95, SatLo: 120, ValLo: 80, HueHi: 115, SatHi: 255, ValHi: 255},
	}
}

// ColorStrategy thresholds the frame in HSV space against known accent
// color ranges and keeps contours whose area and aspect ratio fall inside
// a button-like envelope. It carries a fixed low confidence and exists as
// a fallback for when text recognition is unavailable.
type ColorStrategy struct {
	ranges []AccentRange
	log    *logging.Logger
}

// NewColorStrategy creates the color/geometry heuristic strategy
func NewColorStrategy(ranges []AccentRange, log *logging.Logger) *ColorStrategy {
	if len(ranges) == 0 {
		ranges = DefaultAccentRanges()
	}
	return &ColorStrategy{ranges: ranges, log: log}
}

// Name returns the strategy identifier
func (s *ColorStrategy) Name() string { return ColorStrategyName }

// Available reports whether the OpenCV bindings are usable
func (s *ColorStrategy) Available() bool {
	ok := false
	guarded(s.log, ColorStrategyName, func() []Candidate {
		m := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3)
		ok = !m.Empty()
		m.Close()
		return nil
	})
	return ok
}

// Detect extracts button-like accent-colored contours
func (s *ColorStrategy) Detect(frame *platform.Frame) []Candidate {
	return guarded(s.log, ColorStrategyName, func() []Candidate {
		if frame == nil || frame.Image == nil {
			return nil
		}

		rgba, err := gocv.ImageToMatRGBA(frame.Image)
		if err != nil {
			s.log.Debugf("color: failed to convert frame: %v", err)
			return nil
		}
		defer rgba.Close()

		bgr := gocv.NewMat()
		defer bgr.Close()
		if err := gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR); err != nil {
			s.log.Debugf("color: bgr conversion failed: %v", err)
			return nil
		}

		hsv := gocv.NewMat()
		defer hsv.Close()
		if err := gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV); err != nil {
			s.log.Debugf("color: hsv conversion failed: %v", err)
			return nil
		}

		var candidates []Candidate
		for _, r := range s.ranges {
			candidates = append(candidates, s.detectRange(hsv, r, frame)...)
		}
		return candidates
	})
}

// detectRange masks one HSV range and walks its contours
func (s *ColorStrategy) detectRange(hsv gocv.Mat, r AccentRange, frame *platform.Frame) []Candidate {
	mask := gocv.NewMat()
	defer mask.Close()

	lb := gocv.NewScalar(r.HueLo, r.SatLo, r.ValLo, 0)
	ub := gocv.NewScalar(r.HueHi, r.SatHi, r.ValHi, 0)
	if err := gocv.InRangeWithScalar(hsv, lb, ub, &mask); err != nil {
		s.log.Debugf("color: %s mask failed: %v", r.Name, err)
		return nil
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var candidates []Candidate
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < minButtonArea || area > maxButtonArea {
			continue
		}

		rect := gocv.BoundingRect(contour)
		if rect.Dy() == 0 {
			continue
		}
		aspect := float64(rect.Dx()) / float64(rect.Dy())
		if aspect < minButtonAspect || aspect > maxButtonAspect {
			continue
		}

		candidates = append(candidates, Candidate{
			X:          frame.OriginX + rect.Min.X,
			Y:          frame.OriginY + rect.Min.Y,
			Width:      rect.Dx(),
			Height:     rect.Dy(),
			Confidence: colorConfidence,
			Strategy:   ColorStrategyName,
			Text:       r.Name,
		})
	}
	return candidates
}
