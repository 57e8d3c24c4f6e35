package vision

import (
	"jordanella.com/clickwatch/internal/logging"
	"jordanella.com/clickwatch/internal/platform"
)

// Strategy is one independent way of spotting the prompt in a frame.
// Detect must never let a failure escape: a broken backend or a malformed
// frame yields an empty result. Strategies are pure over the frame and may
// run concurrently.
type Strategy interface {
	Name() string
	Available() bool
	Detect(frame *platform.Frame) []Candidate
}

// guarded wraps a strategy body so panics from native backends (OCR,
// OpenCV) degrade to an empty result instead of killing the cycle.
func guarded(log *logging.Logger, name string, fn func() []Candidate) (out []Candidate) {
	defer func() {
		if r := recover(); r != nil {
			if log != nil {
				log.Warnf("%s strategy panicked: %v", name, r)
			}
			out = nil
		}
	}()
	return fn()
}

// ActiveStrategies filters the given strategies down to those both
// enabled by name and reporting availability. The orchestrator calls this
// once at startup; the resulting list is fixed for the process lifetime.
func ActiveStrategies(log *logging.Logger, enabled func(name string) bool, all ...Strategy) []Strategy {
	var active []Strategy
	for _, s := range all {
		if !enabled(s.Name()) {
			log.Debugf("strategy %s disabled by configuration", s.Name())
			continue
		}
		if !s.Available() {
			log.Warnf("strategy %s enabled but unavailable, skipping", s.Name())
			continue
		}
		active = append(active, s)
	}
	return active
}
