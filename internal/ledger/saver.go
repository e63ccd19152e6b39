package ledger

import (
	"sync"
	"time"
)

// Saver coalesces rapid writes into one trailing-edge write. Every Schedule
// supersedes the pending payload and restarts the delay.
type Saver struct {
	delay time.Duration
	write func(payload string) error

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	dirty   bool
	err     error
	writes  int
}

// NewSaver returns a Saver that calls write at most once per quiet period of delay.
func NewSaver(delay time.Duration, write func(payload string) error) *Saver {
	return &Saver{delay: delay, write: write}
}

// Schedule replaces the pending payload and restarts the timer.
func (s *Saver) Schedule(payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = payload
	s.dirty = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
}

// Flush writes the pending payload now, if any, and waits for it.
func (s *Saver) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.fire()
}

// Cancel drops the pending payload without writing it.
func (s *Saver) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = ""
	s.dirty = false
}

// Pending reports whether a write is waiting for its delay to elapse.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Err returns the result of the most recent write.
func (s *Saver) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Writes returns how many writes have reached the store.
func (s *Saver) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *Saver) clearErr() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

// fire holds mu across the write so a Flush racing the timer cannot write twice
// or write an older payload after a newer one.
func (s *Saver) fire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return
	}
	payload := s.pending
	s.pending = ""
	s.dirty = false
	s.err = s.write(payload)
	s.writes++
}
