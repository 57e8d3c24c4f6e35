package vision

import (
	"image"

	"jordanella.com/clickwatch/internal/logging"
	"jordanella.com/clickwatch/internal/platform"
)

// TemplateStrategyName identifies the template strategy in config
const TemplateStrategyName = "template"

// TemplateSource provides named reference button-glyph images. Implemented
// by pkg/templates; kept as an interface so the strategy is testable with
// in-memory images.
type TemplateSource interface {
	Names() []string
	Image(name string) (*image.RGBA, error)
	Threshold(name string) float64
}

// TemplateStrategy cross-correlates the frame against every registered
// button glyph, emitting one candidate per match location per template.
type TemplateStrategy struct {
	source           TemplateSource
	defaultThreshold float64
	log              *logging.Logger
}

// NewTemplateStrategy creates the template matching strategy
func NewTemplateStrategy(source TemplateSource, defaultThreshold float64, log *logging.Logger) *TemplateStrategy {
	if defaultThreshold <= 0 || defaultThreshold > 1 {
		defaultThreshold = 0.7
	}
	return &TemplateStrategy{source: source, defaultThreshold: defaultThreshold, log: log}
}

// Name returns the strategy identifier
func (s *TemplateStrategy) Name() string { return TemplateStrategyName }

// Available reports whether at least one template is registered
func (s *TemplateStrategy) Available() bool {
	return s.source != nil && len(s.source.Names()) > 0
}

// Detect matches every template against the frame
func (s *TemplateStrategy) Detect(frame *platform.Frame) []Candidate {
	return guarded(s.log, TemplateStrategyName, func() []Candidate {
		if frame == nil || frame.Image == nil {
			return nil
		}

		var candidates []Candidate
		for _, name := range s.source.Names() {
			tmpl, err := s.source.Image(name)
			if err != nil {
				s.log.Debugf("template %s failed to load: %v", name, err)
				continue
			}

			threshold := s.source.Threshold(name)
			if threshold <= 0 {
				threshold = s.defaultThreshold
			}

			config := DefaultMatchConfig()
			config.Threshold = threshold

			for _, match := range FindAllTemplates(frame.Image, tmpl, config) {
				candidates = append(candidates, Candidate{
					X:          frame.OriginX + match.Location.X,
					Y:          frame.OriginY + match.Location.Y,
					Width:      tmpl.Bounds().Dx(),
					Height:     tmpl.Bounds().Dy(),
					Confidence: clamp01(match.Score),
					Strategy:   TemplateStrategyName,
					Text:       name,
				})
			}
		}
		return candidates
	})
}
