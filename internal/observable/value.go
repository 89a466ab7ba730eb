// Package observable provides a value holder that notifies subscribers on
// every change.
package observable

import "sync"

// Value holds the latest T and fans each Set out to subscribers.
//
// Delivery never blocks Set: a subscriber whose buffer is full misses that
// update but keeps receiving later ones. Get always returns the latest value.
type Value[T any] struct {
	mu     sync.RWMutex
	cur    T
	nextID int
	subs   map[int]chan T
	closed bool
}

func New[T any](initial T) *Value[T] {
	return &Value[T]{cur: initial, subs: make(map[int]chan T)}
}

func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cur
}

func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cur = val
	for _, ch := range v.subs {
		select {
		case ch <- val:
		default:
		}
	}
}

// Subscribe returns a channel receiving every later Set and a cancel func
// that closes it. The current value is not replayed. After Close the
// channel comes back already closed. cancel is safe to call any number of
// times, before or after Close.
func (v *Value[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		close(ch)
		return ch, func() {}
	}
	id := v.nextID
	v.nextID++
	v.subs[id] = ch

	cancel := func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		// Close may have closed ch already; whoever removes it closes it.
		if sub, ok := v.subs[id]; ok {
			delete(v.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Close detaches and closes every subscriber channel. Later Sets only
// update the value.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	for id, ch := range v.subs {
		delete(v.subs, id)
		close(ch)
	}
}
