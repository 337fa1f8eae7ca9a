package progress

import (
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

// Feed distributes snapshots to channel subscribers. Publish never blocks:
// each subscriber has its own queue drained by a dedicated goroutine.
type Feed struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

// NewFeed creates an open feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[*subscriber]struct{})}
}

// Subscribe returns a channel receiving every snapshot published after the
// call and a function that detaches the subscriber. The channel is closed
// once the feed is closed and every queued snapshot has been delivered, or
// as soon as the subscriber detaches.
func (f *Feed) Subscribe() (<-chan transfertypes.ProgressSnapshot, func()) {
	sub := newSubscriber()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		sub.finish()
		go sub.pump()
		return sub.out, func() {}
	}
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	go sub.pump()

	return sub.out, func() {
		f.mu.Lock()
		delete(f.subs, sub)
		f.mu.Unlock()
		sub.stop()
	}
}

// Publish queues s for every current subscriber.
func (f *Feed) Publish(s transfertypes.ProgressSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for sub := range f.subs {
		sub.push(s)
	}
}

// Close ends the feed. Subscribers receive their queued snapshots and then
// see their channel closed.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for sub := range f.subs {
		sub.finish()
	}
	f.subs = nil
}

type subscriber struct {
	mu       sync.Mutex
	queue    []transfertypes.ProgressSnapshot
	finished bool

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	out      chan transfertypes.ProgressSnapshot
}

func newSubscriber() *subscriber {
	return &subscriber{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan transfertypes.ProgressSnapshot),
	}
}

func (s *subscriber) push(snapshot transfertypes.ProgressSnapshot) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, snapshot)
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber) finish() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *subscriber) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			finished := s.finished
			s.mu.Unlock()
			if finished {
				return
			}
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- next:
		case <-s.done:
			return
		}
	}
}
