package templates

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 0, G: 120, B: 212, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestScanDirectoryRegistersPNGStems(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "continue_button.png"), 12, 8)
	writePNG(t, filepath.Join(dir, "keep_going.PNG"), 12, 8)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))

	r := NewRegistry(dir)
	require.NoError(t, r.ScanDirectory())

	assert.Equal(t, []string{"continue_button", "keep_going"}, r.Names())
	assert.Equal(t, 2, r.Count())
}

func TestScanDirectoryMissingDirIsNotAnError(t *testing.T) {
	r := NewRegistry(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, r.ScanDirectory())
	assert.Zero(t, r.Count())
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "continue.png"), 12, 8)

	manifest := filepath.Join(dir, "templates.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
templates:
  - name: continue_button
    path: continue.png
    threshold: 0.85
    preload: true
`), 0o644))

	r := NewRegistry(dir)
	require.NoError(t, r.LoadManifest(manifest))

	assert.Equal(t, []string{"continue_button"}, r.Names())
	assert.Equal(t, 0.85, r.Threshold("continue_button"))
	assert.Zero(t, r.Threshold("unknown"), "unregistered names fall back to the caller default")
}

func TestLoadManifestRejectsIncompleteEntries(t *testing.T) {
	dir := t.TempDir()

	noName := filepath.Join(dir, "noname.yaml")
	require.NoError(t, os.WriteFile(noName, []byte("templates:\n  - path: x.png\n"), 0o644))
	assert.Error(t, NewRegistry(dir).LoadManifest(noName))

	noPath := filepath.Join(dir, "nopath.yaml")
	require.NoError(t, os.WriteFile(noPath, []byte("templates:\n  - name: x\n"), 0o644))
	assert.Error(t, NewRegistry(dir).LoadManifest(noPath))
}

func TestManifestWinsOverScan(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "continue.png"), 12, 8)
	writePNG(t, filepath.Join(dir, "alt.png"), 12, 8)

	manifest := filepath.Join(dir, "templates.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
templates:
  - name: continue
    path: alt.png
    threshold: 0.9
`), 0o644))

	r := NewRegistry(dir)
	require.NoError(t, r.LoadManifest(manifest))
	require.NoError(t, r.ScanDirectory())

	// The scan must not clobber the manifest's definition for "continue"
	assert.Equal(t, 0.9, r.Threshold("continue"))
	assert.Equal(t, []string{"alt", "continue"}, r.Names())
}

func TestImageLoadsAndCaches(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "continue.png"), 16, 10)

	r := NewRegistry(dir)
	require.NoError(t, r.ScanDirectory())

	img, err := r.Image("continue")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 10), img.Bounds())

	again, err := r.Image("continue")
	require.NoError(t, err)
	assert.Same(t, img, again, "repeated loads return the cached image")

	stats := r.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestImageUnknownName(t *testing.T) {
	r := NewRegistry(t.TempDir())
	_, err := r.Image("missing")
	assert.Error(t, err)
}

func TestPreloadLoadsMarkedGlyphs(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "continue.png"), 12, 8)
	writePNG(t, filepath.Join(dir, "lazy.png"), 12, 8)

	manifest := filepath.Join(dir, "templates.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
templates:
  - name: continue
    path: continue.png
    preload: true
  - name: lazy
    path: lazy.png
`), 0o644))

	r := NewRegistry(dir)
	require.NoError(t, r.LoadManifest(manifest))
	require.NoError(t, r.Preload())

	assert.Equal(t, int64(1), r.Stats().Misses, "only the marked glyph is decoded")
}

func TestPreloadMissingFile(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "templates.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
templates:
  - name: ghost
    path: ghost.png
    preload: true
`), 0o644))

	r := NewRegistry(dir)
	require.NoError(t, r.LoadManifest(manifest))
	assert.Error(t, r.Preload())
}
