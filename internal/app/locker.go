package app

import "sync"

// submissionLocker serializes all transitions for one submission. Commands,
// button taps and timer firings race against each other; the loser of a
// race runs second and observes the committed state instead of overwriting
// it. Different submissions proceed independently.
type submissionLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newSubmissionLocker() *submissionLocker {
	return &submissionLocker{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the submission's mutex and returns its unlock func.
func (l *submissionLocker) Lock(submissionID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[submissionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[submissionID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
