package vision

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fill paints a solid rectangle into an RGBA image
func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// checker paints a 2x2 checkerboard pattern so patches have variance
func checker(img *image.RGBA, origin image.Point, w, h int) {
	light := color.RGBA{R: 220, G: 220, B: 220, A: 255}
	dark := color.RGBA{R: 30, G: 30, B: 30, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := light
			if (x/2+y/2)%2 == 0 {
				c = dark
			}
			img.SetRGBA(origin.X+x, origin.Y+y, c)
		}
	}
}

func TestFindTemplateExactMatch(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 100, 80))
	fill(frame, frame.Bounds(), color.RGBA{R: 128, G: 128, B: 128, A: 255})
	checker(frame, image.Pt(40, 30), 12, 8)

	tmpl := image.NewRGBA(image.Rect(0, 0, 12, 8))
	checker(tmpl, image.Pt(0, 0), 12, 8)

	config := DefaultMatchConfig()
	config.Step = 1

	match := FindTemplate(frame, tmpl, config)
	require.NotNil(t, match)
	assert.Equal(t, image.Pt(40, 30), match.Location)
	assert.InDelta(t, 1.0, match.Score, 0.01)
}

func TestFindTemplateNoMatch(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 60, 60))
	fill(frame, frame.Bounds(), color.RGBA{R: 10, G: 10, B: 10, A: 255})

	tmpl := image.NewRGBA(image.Rect(0, 0, 8, 8))
	checker(tmpl, image.Pt(0, 0), 8, 8)

	config := DefaultMatchConfig()
	config.Threshold = 0.9
	config.Step = 1

	assert.Nil(t, FindTemplate(frame, tmpl, config))
}

func TestFindTemplateLargerThanFrame(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 10, 10))
	tmpl := image.NewRGBA(image.Rect(0, 0, 20, 20))

	assert.Nil(t, FindTemplate(frame, tmpl, nil))
}

func TestFindAllTemplatesMultipleHits(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 120, 40))
	fill(frame, frame.Bounds(), color.RGBA{R: 128, G: 128, B: 128, A: 255})
	checker(frame, image.Pt(10, 10), 10, 10)
	checker(frame, image.Pt(80, 10), 10, 10)

	tmpl := image.NewRGBA(image.Rect(0, 0, 10, 10))
	checker(tmpl, image.Pt(0, 0), 10, 10)

	config := DefaultMatchConfig()
	config.Step = 1
	config.Threshold = 0.95

	matches := FindAllTemplates(frame, tmpl, config)
	require.Len(t, matches, 2)

	locations := []image.Point{matches[0].Location, matches[1].Location}
	assert.Contains(t, locations, image.Pt(10, 10))
	assert.Contains(t, locations, image.Pt(80, 10))
}

func TestFindAllTemplatesSuppressesNeighbors(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 60, 40))
	fill(frame, frame.Bounds(), color.RGBA{R: 128, G: 128, B: 128, A: 255})
	checker(frame, image.Pt(20, 12), 10, 10)

	tmpl := image.NewRGBA(image.Rect(0, 0, 10, 10))
	checker(tmpl, image.Pt(0, 0), 10, 10)

	// Low threshold so near-miss offsets around the true hit also score
	config := DefaultMatchConfig()
	config.Step = 1
	config.Threshold = 0.5

	matches := FindAllTemplates(frame, tmpl, config)
	require.NotEmpty(t, matches)

	// The strongest hit is the exact location; anything else kept must be
	// at least half a template away from it
	assert.Equal(t, image.Pt(20, 12), matches[0].Location)
	for _, m := range matches[1:] {
		dx := m.Location.X - 20
		dy := m.Location.Y - 12
		tooClose := abs(dx) < 5 && abs(dy) < 5
		assert.False(t, tooClose, "match at %v inside suppression radius", m.Location)
	}
}

func TestFindAllTemplatesRespectsMaxMatches(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 200, 20))
	fill(frame, frame.Bounds(), color.RGBA{R: 128, G: 128, B: 128, A: 255})
	for i := 0; i < 5; i++ {
		checker(frame, image.Pt(10+i*38, 5), 8, 8)
	}

	tmpl := image.NewRGBA(image.Rect(0, 0, 8, 8))
	checker(tmpl, image.Pt(0, 0), 8, 8)

	config := DefaultMatchConfig()
	config.Step = 1
	config.Threshold = 0.95
	config.MaxMatches = 3

	matches := FindAllTemplates(frame, tmpl, config)
	assert.Len(t, matches, 3)
}

func TestSSDScoreIdenticalPatch(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 30, 30))
	fill(frame, frame.Bounds(), color.RGBA{R: 128, G: 128, B: 128, A: 255})
	checker(frame, image.Pt(5, 5), 10, 10)

	tmpl := image.NewRGBA(image.Rect(0, 0, 10, 10))
	checker(tmpl, image.Pt(0, 0), 10, 10)

	config := &MatchConfig{Method: MatchMethodSSD, Threshold: 0.9, MaxMatches: 1, Step: 1}

	match := FindTemplate(frame, tmpl, config)
	require.NotNil(t, match)
	assert.Equal(t, image.Pt(5, 5), match.Location)
	assert.InDelta(t, 1.0, match.Score, 0.001)
}

func TestNCCScoreFlatRegions(t *testing.T) {
	// Flat template on a flat frame of the same brightness counts as a
	// match; a different brightness does not
	frame := image.NewRGBA(image.Rect(0, 0, 20, 20))
	fill(frame, frame.Bounds(), color.RGBA{R: 100, G: 100, B: 100, A: 255})

	same := image.NewRGBA(image.Rect(0, 0, 5, 5))
	fill(same, same.Bounds(), color.RGBA{R: 100, G: 100, B: 100, A: 255})

	differ := image.NewRGBA(image.Rect(0, 0, 5, 5))
	fill(differ, differ.Bounds(), color.RGBA{R: 200, G: 200, B: 200, A: 255})

	config := DefaultMatchConfig()
	config.Step = 1

	require.NotNil(t, FindTemplate(frame, same, config))
	assert.Nil(t, FindTemplate(frame, differ, config))
}
