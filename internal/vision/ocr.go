package vision

import (
	"bytes"
	"image"
	"image/png"
	"regexp"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"jordanella.com/clickwatch/internal/logging"
	"jordanella.com/clickwatch/internal/platform"
)

// TextStrategyName identifies the OCR strategy in config and candidates
const TextStrategyName = "text"

// defaultOCRConfidenceFloor drops recognizer fragments below this raw
// tesseract confidence (0-100 scale)
const defaultOCRConfidenceFloor = 30.0

// TextStrategy recognizes the prompt label by running OCR over the frame
// and matching word fragments against the configured label patterns.
type TextStrategy struct {
	patterns        []*regexp.Regexp
	padding         int
	confidenceFloor float64
	log             *logging.Logger

	client   *gosseract.Client
	initOnce sync.Once
	initErr  error
	mu       sync.Mutex
}

// NewTextStrategy creates the OCR strategy. Patterns are matched
// case-insensitively against each recognized word.
func NewTextStrategy(patterns []*regexp.Regexp, padding int, log *logging.Logger) *TextStrategy {
	return &TextStrategy{
		patterns:        patterns,
		padding:         padding,
		confidenceFloor: defaultOCRConfidenceFloor,
		log:             log,
	}
}

// Name returns the strategy identifier
func (s *TextStrategy) Name() string { return TextStrategyName }

// Available reports whether a tesseract client can be created and sees at
// least one language pack
func (s *TextStrategy) Available() bool {
	s.initOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				s.initErr = &strategyInitError{name: TextStrategyName}
			}
		}()
		client := gosseract.NewClient()
		langs, err := client.GetAvailableLanguages()
		if err != nil || len(langs) == 0 {
			client.Close()
			s.initErr = &strategyInitError{name: TextStrategyName}
			return
		}
		s.client = client
	})
	return s.initErr == nil
}

// Detect runs OCR and returns one padded candidate per matching word
func (s *TextStrategy) Detect(frame *platform.Frame) []Candidate {
	return guarded(s.log, TextStrategyName, func() []Candidate {
		if !s.Available() || frame == nil || frame.Image == nil {
			return nil
		}

		// The tesseract client is stateful; serialize access to it
		s.mu.Lock()
		defer s.mu.Unlock()

		var buf bytes.Buffer
		if err := png.Encode(&buf, frame.Image); err != nil {
			s.log.Debugf("ocr: failed to encode frame: %v", err)
			return nil
		}
		if err := s.client.SetImageFromBytes(buf.Bytes()); err != nil {
			s.log.Debugf("ocr: failed to set image: %v", err)
			return nil
		}

		boxes, err := s.client.GetBoundingBoxes(gosseract.RIL_WORD)
		if err != nil {
			s.log.Debugf("ocr: recognition failed: %v", err)
			return nil
		}

		frameBounds := frame.Image.Bounds()
		var candidates []Candidate
		for _, box := range boxes {
			if box.Confidence < s.confidenceFloor {
				continue
			}
			if !s.matchesLabel(box.Word) {
				continue
			}

			cand := Candidate{
				X:          frame.OriginX + box.Box.Min.X,
				Y:          frame.OriginY + box.Box.Min.Y,
				Width:      box.Box.Dx(),
				Height:     box.Box.Dy(),
				Confidence: clamp01(box.Confidence / 100),
				Strategy:   TextStrategyName,
				Text:       box.Word,
			}

			// Pad the tight OCR box so the click lands inside the button
			clampRect := frameBounds.Sub(frameBounds.Min).
				Add(image.Pt(frame.OriginX, frame.OriginY))
			candidates = append(candidates, cand.padded(s.padding, &clampRect))
		}
		return candidates
	})
}

// matchesLabel reports whether a recognized word matches any label pattern
func (s *TextStrategy) matchesLabel(word string) bool {
	for _, re := range s.patterns {
		if re.MatchString(word) {
			return true
		}
	}
	return false
}

// Close releases the tesseract client
func (s *TextStrategy) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}

type strategyInitError struct{ name string }

func (e *strategyInitError) Error() string { return e.name + " strategy backend unavailable" }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
