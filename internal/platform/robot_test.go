package platform

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The robotgo backend must satisfy the full backend contract; this
// also keeps its robotgo call sites compiling against the pinned
// library version.
var _ Backend = (*RobotBackend)(nil)

func TestProcessNameFromPattern(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"Visual Studio Code", "code"},
		{"visual studio code - insiders", "code"},
		{"Code", "code"},
		{"  Terminal  ", "terminal"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, processNameFromPattern(tt.pattern), "pattern %q", tt.pattern)
	}
}

func TestToRGBAPassthrough(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	assert.Same(t, src, toRGBA(src), "RGBA input must not be copied")
}

func TestToRGBAConvertsAndNormalizesOrigin(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 20, 14, 24))
	src.SetNRGBA(10, 20, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	got := toRGBA(src)
	require.NotNil(t, got)
	assert.Equal(t, image.Rect(0, 0, 4, 4), got.Bounds())
	r, g, b, _ := got.At(0, 0).RGBA()
	assert.Equal(t, uint32(200), r>>8)
	assert.Equal(t, uint32(100), g>>8)
	assert.Equal(t, uint32(50), b>>8)
}
