package app

import (
	"sync"

	"github.com/yourusername/youtubify-go/internal/domain"
)

// subscriber delivers snapshots to one observer in publish order.
// push never blocks; a pump goroutine drains the queue into out.
type subscriber struct {
	mu     sync.Mutex
	queue  []domain.Snapshot
	closed bool

	signal   chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	out      chan domain.Snapshot
}

func newSubscriber() *subscriber {
	s := &subscriber{
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		out:    make(chan domain.Snapshot),
	}
	go s.pump()
	return s
}

func (s *subscriber) push(snap domain.Snapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, snap)
	s.mu.Unlock()
	s.wake()
}

// finish closes out once everything queued so far has been delivered
func (s *subscriber) finish() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wake()
}

// cancel stops delivery immediately
func (s *subscriber) cancel() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *subscriber) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			select {
			case <-s.signal:
				continue
			case <-s.stop:
				return
			}
		}
		next := s.queue[0]
		s.queue[0] = domain.Snapshot{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- next:
		case <-s.stop:
			return
		}
	}
}
