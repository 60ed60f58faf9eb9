package bot

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrReplyTimeout   = errors.New("timed out waiting for reply")
	ErrReplyCancelled = errors.New("pending reply cancelled")
	ErrSessionsClosed = errors.New("sessions closed")
)

// SessionKey identifies one conversation: a user in a channel on a platform.
type SessionKey struct {
	Platform  string
	ChannelID string
	UserID    string
}

// Sessions tracks interactions waiting for one more message from a user.
// At most one wait is pending per key; starting a new one cancels the old.
type Sessions struct {
	mu      sync.Mutex
	pending map[SessionKey]*Pending
	closed  bool
}

// Pending is a registered wait. Obtain it with Begin, then call Wait once.
type Pending struct {
	s      *Sessions
	key    SessionKey
	reply  chan string
	cancel chan struct{}
	once   sync.Once
}

func NewSessions() *Sessions {
	return &Sessions{pending: make(map[SessionKey]*Pending)}
}

// Begin registers a wait for key, replacing (and cancelling) any earlier one.
// Registration happens before the caller prompts the user so that a fast
// reply cannot slip past.
func (s *Sessions) Begin(key SessionKey) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionsClosed
	}
	if old, ok := s.pending[key]; ok {
		old.stop()
	}
	p := &Pending{
		s:      s,
		key:    key,
		reply:  make(chan string, 1),
		cancel: make(chan struct{}),
	}
	s.pending[key] = p
	return p, nil
}

// Deliver hands text to the wait registered for key. It reports false when
// nothing was waiting.
func (s *Sessions) Deliver(key SessionKey, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[key]
	if !ok {
		return false
	}
	delete(s.pending, key)
	p.reply <- text
	return true
}

// Cancel drops the wait registered for key, if any.
func (s *Sessions) Cancel(key SessionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[key]
	if !ok {
		return false
	}
	delete(s.pending, key)
	p.stop()
	return true
}

// Has reports whether a wait is registered for key.
func (s *Sessions) Has(key SessionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Len returns the number of pending waits.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close cancels every pending wait and refuses new ones.
func (s *Sessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for k, p := range s.pending {
		delete(s.pending, k)
		p.stop()
	}
}

func (p *Pending) stop() {
	p.once.Do(func() { close(p.cancel) })
}

// Wait blocks until a reply is delivered, the wait is cancelled or replaced,
// timeout elapses, or ctx is done.
func (p *Pending) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case text := <-p.reply:
		return text, nil
	case <-p.cancel:
		return "", ErrReplyCancelled
	case <-timer.C:
		return p.expire(ErrReplyTimeout)
	case <-ctx.Done():
		return p.expire(ctx.Err())
	}
}

// expire unregisters p. A reply delivered concurrently still wins.
func (p *Pending) expire(reason error) (string, error) {
	p.s.mu.Lock()
	if cur, ok := p.s.pending[p.key]; ok && cur == p {
		delete(p.s.pending, p.key)
	}
	p.s.mu.Unlock()

	select {
	case text := <-p.reply:
		return text, nil
	default:
		return "", reason
	}
}
