package vision

import (
	"image"
	"math"
)

// MatchMethod selects the template matching score function
type MatchMethod int

const (
	// MatchMethodSSD scores by inverted sum of squared differences (fast)
	MatchMethodSSD MatchMethod = iota
	// MatchMethodNCC scores by normalized cross-correlation (accurate)
	MatchMethodNCC
)

// Match is one template hit inside a frame, local coordinates
type Match struct {
	Location image.Point
	Score    float64
}

// MatchConfig configures template matching
type MatchConfig struct {
	Method     MatchMethod
	Threshold  float64
	MaxMatches int
	Step       int // scan stride; 1 = exhaustive
}

// DefaultMatchConfig returns the recommended matcher settings
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		Method:     MatchMethodNCC,
		Threshold:  0.7,
		MaxMatches: 8,
		Step:       2,
	}
}

// grayPlane is a luma view of an RGBA image, used so the inner matching
// loops touch one byte per pixel instead of four
type grayPlane struct {
	pix    []float64
	width  int
	height int
}

func newGrayPlane(img *image.RGBA) *grayPlane {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	g := &grayPlane{pix: make([]float64, w*h), width: w, height: h}

	for y := 0; y < h; y++ {
		row := img.Pix[(y+bounds.Min.Y-img.Rect.Min.Y)*img.Stride:]
		for x := 0; x < w; x++ {
			i := (x + bounds.Min.X - img.Rect.Min.X) * 4
			r, gr, b := row[i], row[i+1], row[i+2]
			g.pix[y*w+x] = 0.299*float64(r) + 0.587*float64(gr) + 0.114*float64(b)
		}
	}
	return g
}

func (g *grayPlane) at(x, y int) float64 { return g.pix[y*g.width+x] }

// mean returns the average luma of the w×h patch at (ox,oy)
func (g *grayPlane) mean(ox, oy, w, h int) float64 {
	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += g.at(ox+x, oy+y)
		}
	}
	return sum / float64(w*h)
}

// FindAllTemplates scans the frame for every location where the template
// scores at or above the threshold, strongest first, suppressing hits
// closer than half the template size to an accepted one.
func FindAllTemplates(frame, template *image.RGBA, config *MatchConfig) []Match {
	if config == nil {
		config = DefaultMatchConfig()
	}
	step := config.Step
	if step < 1 {
		step = 1
	}

	haystack := newGrayPlane(frame)
	needle := newGrayPlane(template)

	if needle.width > haystack.width || needle.height > haystack.height || needle.width == 0 || needle.height == 0 {
		return nil
	}

	needleMean := needle.mean(0, 0, needle.width, needle.height)
	var needleVar float64
	for y := 0; y < needle.height; y++ {
		for x := 0; x < needle.width; x++ {
			d := needle.at(x, y) - needleMean
			needleVar += d * d
		}
	}

	var raw []Match
	maxY := haystack.height - needle.height
	maxX := haystack.width - needle.width
	for y := 0; y <= maxY; y += step {
		for x := 0; x <= maxX; x += step {
			var score float64
			switch config.Method {
			case MatchMethodNCC:
				score = nccScore(haystack, needle, x, y, needleMean, needleVar)
			default:
				score = ssdScore(haystack, needle, x, y)
			}
			if score >= config.Threshold {
				raw = append(raw, Match{Location: image.Point{X: x, Y: y}, Score: score})
			}
		}
	}

	return suppressNeighbors(raw, needle.width, needle.height, config.MaxMatches)
}

// FindTemplate returns the single best match, or nil when nothing reaches
// the threshold
func FindTemplate(frame, template *image.RGBA, config *MatchConfig) *Match {
	if config == nil {
		config = DefaultMatchConfig()
	}
	limited := *config
	limited.MaxMatches = 1
	matches := FindAllTemplates(frame, template, &limited)
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

// nccScore computes normalized cross-correlation at (ox,oy), mapped from
// [-1,1] to [0,1]
func nccScore(haystack, needle *grayPlane, ox, oy int, needleMean, needleVar float64) float64 {
	patchMean := haystack.mean(ox, oy, needle.width, needle.height)

	var cross, patchVar float64
	for y := 0; y < needle.height; y++ {
		for x := 0; x < needle.width; x++ {
			dp := haystack.at(ox+x, oy+y) - patchMean
			dn := needle.at(x, y) - needleMean
			cross += dp * dn
			patchVar += dp * dp
		}
	}

	denom := math.Sqrt(patchVar * needleVar)
	if denom == 0 {
		// Flat patch against flat template: identical means count as a match
		if math.Abs(patchMean-needleMean) < 1 {
			return 1
		}
		return 0
	}
	return (cross/denom + 1) / 2
}

// ssdScore computes 1 - normalized mean squared difference at (ox,oy)
func ssdScore(haystack, needle *grayPlane, ox, oy int) float64 {
	var sum float64
	for y := 0; y < needle.height; y++ {
		for x := 0; x < needle.width; x++ {
			d := haystack.at(ox+x, oy+y) - needle.at(x, y)
			sum += d * d
		}
	}
	norm := sum / (float64(needle.width*needle.height) * 255 * 255)
	return 1 - norm
}

// suppressNeighbors keeps the strongest matches, discarding any hit whose
// center falls within half a template of an already-kept hit
func suppressNeighbors(raw []Match, tw, th, limit int) []Match {
	if len(raw) == 0 {
		return nil
	}

	// Selection sort by score: match counts are small
	for i := 0; i < len(raw); i++ {
		best := i
		for j := i + 1; j < len(raw); j++ {
			if raw[j].Score > raw[best].Score {
				best = j
			}
		}
		raw[i], raw[best] = raw[best], raw[i]
	}

	var kept []Match
	for _, m := range raw {
		tooClose := false
		for _, k := range kept {
			dx := m.Location.X - k.Location.X
			dy := m.Location.Y - k.Location.Y
			if abs(dx) < tw/2 && abs(dy) < th/2 {
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, m)
			if limit > 0 && len(kept) >= limit {
				break
			}
		}
	}
	return kept
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
