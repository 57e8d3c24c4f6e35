package freeze

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"image"

	"jordanella.com/clickwatch/internal/platform"
)

// fingerprintGrid is the side length of the downsampled luma grid the
// content hash runs over. Downsampling keeps hashing cheap on large
// frames while still changing whenever visible content changes.
const fingerprintGrid = 64

// Fingerprint combines a content hash of the captured frame with the
// window geometry into a single value. A moved or resized window counts
// as changed even when its pixels happen to hash the same.
func Fingerprint(win platform.WindowHandle, frame *platform.Frame) uint64 {
	h := fnv.New64a()

	var buf [8]byte
	for _, v := range []int{win.X, win.Y, win.Width, win.Height} {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		h.Write(buf[:])
	}

	if frame != nil && frame.Image != nil {
		writeLumaGrid(h, frame.Image)
	}
	return h.Sum64()
}

// writeLumaGrid samples the image on an evenly spaced grid and feeds the
// luma of each sample point into the hash
func writeLumaGrid(h hash.Hash64, img *image.RGBA) {
	bounds := img.Bounds()
	w, ht := bounds.Dx(), bounds.Dy()
	if w == 0 || ht == 0 {
		return
	}

	gridX, gridY := fingerprintGrid, fingerprintGrid
	if w < gridX {
		gridX = w
	}
	if ht < gridY {
		gridY = ht
	}

	sample := make([]byte, 0, gridX*gridY)
	for gy := 0; gy < gridY; gy++ {
		sy := bounds.Min.Y + gy*ht/gridY
		for gx := 0; gx < gridX; gx++ {
			sx := bounds.Min.X + gx*w/gridX
			i := img.PixOffset(sx, sy)
			r, g, b := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
			luma := (299*int(r) + 587*int(g) + 114*int(b)) / 1000
			sample = append(sample, byte(luma))
		}
	}
	h.Write(sample)
}
