package authsession

import "sync"

// Subject holds the latest State and pushes every new value to its
// observers synchronously. Late subscribers get the current value on
// Subscribe. All observers see the same sequence of states.
//
// Observers run while the subject is publishing and must not publish or
// subscribe from inside the callback.
type Subject struct {
	deliverMu sync.Mutex

	mu     sync.Mutex
	value  State
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn func(State)
}

// NewSubject creates a subject holding initial.
func NewSubject(initial State) *Subject {
	return &Subject{value: initial}
}

// Value returns the latest state.
func (s *Subject) Value() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Publish stores v and delivers it to every observer in subscription order.
func (s *Subject) Publish(v State) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	s.value = v
	subs := append([]subscription(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(v)
	}
}

// Subscribe registers fn, immediately calls it with the latest state and
// returns a function that removes it. Unsubscribe is idempotent.
func (s *Subject) Subscribe(fn func(State)) (unsubscribe func()) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	current := s.value
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Len returns the number of observers.
func (s *Subject) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
