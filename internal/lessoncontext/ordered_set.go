package lessoncontext

// OrderedSet keeps the first occurrence of each key in insertion order
type OrderedSet[K comparable] struct {
	seen  map[K]struct{}
	items []K
}

func NewOrderedSet[K comparable]() *OrderedSet[K] {
	return &OrderedSet[K]{seen: make(map[K]struct{})}
}

// Add inserts k and reports whether it was new
func (s *OrderedSet[K]) Add(k K) bool {
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}
	s.items = append(s.items, k)
	return true
}

func (s *OrderedSet[K]) Contains(k K) bool {
	_, ok := s.seen[k]
	return ok
}

func (s *OrderedSet[K]) Len() int {
	return len(s.items)
}

// Items returns a copy of the keys in insertion order, never nil
func (s *OrderedSet[K]) Items() []K {
	out := make([]K, len(s.items))
	copy(out, s.items)
	return out
}
