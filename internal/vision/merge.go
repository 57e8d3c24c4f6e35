package vision

import "sort"

// DefaultOverlapThreshold is the intersection-over-smaller-area above
// which two candidates are considered the same region.
const DefaultOverlapThreshold = 0.5

// Merger deduplicates overlapping candidates across strategies and
// produces a confidence-ranked list.
type Merger struct {
	overlapThreshold float64
}

// NewMerger creates a merger with the given overlap threshold. Values
// outside (0,1] fall back to the default.
func NewMerger(overlapThreshold float64) *Merger {
	if overlapThreshold <= 0 || overlapThreshold > 1 {
		overlapThreshold = DefaultOverlapThreshold
	}
	return &Merger{overlapThreshold: overlapThreshold}
}

// Merge deduplicates the concatenated strategy output for one window.
// Candidates are visited in confidence order; a candidate overlapping an
// already-accepted one past the threshold is dropped as a duplicate.
//
// Overlap is intersection over the smaller area, not IoU: a small
// high-confidence text box fully inside a large low-confidence color blob
// must suppress the blob, which IoU would let through.
func (m *Merger) Merge(candidates []Candidate) []RankedCandidate {
	if len(candidates) == 0 {
		return nil
	}

	sorted := append([]Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	accepted := make([]RankedCandidate, 0, len(sorted))
	for _, cand := range sorted {
		duplicate := false
		for _, kept := range accepted {
			if overlapRatio(cand, kept.Candidate) > m.overlapThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			accepted = append(accepted, RankedCandidate{Candidate: cand})
		}
	}
	return accepted
}

// overlapRatio computes intersection area over the smaller of the two
// boxes' areas. Degenerate boxes yield zero.
func overlapRatio(a, b Candidate) float64 {
	inter := a.Bounds().Intersect(b.Bounds())
	if inter.Empty() {
		return 0
	}

	smaller := a.Area()
	if ba := b.Area(); ba < smaller {
		smaller = ba
	}
	if smaller <= 0 {
		return 0
	}

	return float64(inter.Dx()*inter.Dy()) / float64(smaller)
}
