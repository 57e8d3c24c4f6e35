package engine

import "sync"

// Statistics holds process-wide counters for the watcher. Counters live
// for the process lifetime and reset only on explicit request.
type Statistics struct {
	mu sync.Mutex

	cycles              int64
	windowsProcessed    int64
	candidatesFound     int64
	clicksAttempted     int64
	clicksSucceeded     int64
	freezesDetected     int64
	recoveriesTriggered int64
	errors              int64
}

// StatisticsSnapshot is a point-in-time copy of the counters
type StatisticsSnapshot struct {
	Cycles              int64
	WindowsProcessed    int64
	CandidatesFound     int64
	ClicksAttempted     int64
	ClicksSucceeded     int64
	FreezesDetected     int64
	RecoveriesTriggered int64
	Errors              int64
}

// NewStatistics creates zeroed counters
func NewStatistics() *Statistics {
	return &Statistics{}
}

func (s *Statistics) addCycle()             { s.add(&s.cycles, 1) }
func (s *Statistics) addWindows(n int)      { s.add(&s.windowsProcessed, int64(n)) }
func (s *Statistics) addCandidates(n int)   { s.add(&s.candidatesFound, int64(n)) }
func (s *Statistics) addClickAttempt()      { s.add(&s.clicksAttempted, 1) }
func (s *Statistics) addClickSuccess()      { s.add(&s.clicksSucceeded, 1) }
func (s *Statistics) addFreezeDetected()    { s.add(&s.freezesDetected, 1) }
func (s *Statistics) addRecoveryTriggered() { s.add(&s.recoveriesTriggered, 1) }
func (s *Statistics) addError()             { s.add(&s.errors, 1) }

func (s *Statistics) add(counter *int64, n int64) {
	s.mu.Lock()
	*counter += n
	s.mu.Unlock()
}

// Snapshot returns a consistent copy of all counters
func (s *Statistics) Snapshot() StatisticsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StatisticsSnapshot{
		Cycles:              s.cycles,
		WindowsProcessed:    s.windowsProcessed,
		CandidatesFound:     s.candidatesFound,
		ClicksAttempted:     s.clicksAttempted,
		ClicksSucceeded:     s.clicksSucceeded,
		FreezesDetected:     s.freezesDetected,
		RecoveriesTriggered: s.recoveriesTriggered,
		Errors:              s.errors,
	}
}

// Reset zeroes every counter
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cycles = 0
	s.windowsProcessed = 0
	s.candidatesFound = 0
	s.clicksAttempted = 0
	s.clicksSucceeded = 0
	s.freezesDetected = 0
	s.recoveriesTriggered = 0
	s.errors = 0
}
