package application

import "sync"

// Notifier fans status changes out to subscribers. Each subscriber owns an
// unbounded queue drained by its own goroutine, so publishing never blocks.
type Notifier struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	next   int
	closed bool
}

type subscriber struct {
	mu     sync.Mutex
	queue  []StatusChange
	signal chan struct{}
	out    chan StatusChange
	done   chan struct{}
	once   sync.Once
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]*subscriber)}
}

// Subscribe returns a channel receiving every change published after the
// call, and a cancel func that closes it.
func (n *Notifier) Subscribe() (<-chan StatusChange, func()) {
	sub := &subscriber{
		signal: make(chan struct{}, 1),
		out:    make(chan StatusChange),
		done:   make(chan struct{}),
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(sub.out)
		return sub.out, func() {}
	}
	id := n.next
	n.next++
	n.subs[id] = sub
	n.mu.Unlock()

	go sub.pump()

	return sub.out, func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
		sub.stop()
	}
}

func (n *Notifier) Publish(changes ...StatusChange) {
	if len(changes) == 0 {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range n.subs {
		sub.enqueue(changes)
	}
}

// Close ends every subscription.
func (n *Notifier) Close() {
	n.mu.Lock()
	subs := n.subs
	n.subs = make(map[int]*subscriber)
	n.closed = true
	n.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
}

func (s *subscriber) enqueue(changes []StatusChange) {
	s.mu.Lock()
	s.queue = append(s.queue, changes...)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		pending := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, change := range pending {
			select {
			case s.out <- change:
			case <-s.done:
				return
			}
		}

		select {
		case <-s.signal:
		case <-s.done:
			return
		}
	}
}
