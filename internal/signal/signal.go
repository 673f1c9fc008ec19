// Package signal provides a small observable value.
package signal

// Signal holds a value and notifies subscribers synchronously when Set
// changes it. It is not safe for concurrent use; the editor owns it from a
// single loop.
type Signal[T comparable] struct {
	value  T
	nextID int
	subs   map[int]func(T)
	order  []int
}

func New[T comparable](initial T) *Signal[T] {
	return &Signal[T]{value: initial, subs: map[int]func(T){}}
}

func (s *Signal[T]) Get() T { return s.value }

// Set stores v and reports whether the value changed.
func (s *Signal[T]) Set(v T) bool {
	if s.value == v {
		return false
	}
	s.value = v
	for _, id := range append([]int(nil), s.order...) {
		if fn, ok := s.subs[id]; ok {
			fn(v)
		}
	}
	return true
}

// Subscribe registers fn and returns a func that removes it.
func (s *Signal[T]) Subscribe(fn func(T)) func() {
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)
	return func() {
		if _, ok := s.subs[id]; !ok {
			return
		}
		delete(s.subs, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

func (s *Signal[T]) Subscribers() int { return len(s.subs) }
