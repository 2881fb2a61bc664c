package engine

// IDSet tracks identifiers already held, preserving insertion order.
type IDSet struct {
	seen  map[string]struct{}
	order []string
}

// NewIDSet creates an IDSet with the given estimated capacity.
func NewIDSet(capacity int) *IDSet {
	return &IDSet{
		seen:  make(map[string]struct{}, capacity),
		order: make([]string, 0, capacity),
	}
}

// Add inserts id and reports whether it was new. Empty ids are always
// treated as new so records without identifiers are never collapsed.
func (s *IDSet) Add(id string) bool {
	if id == "" {
		return true
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Has reports whether id is present.
func (s *IDSet) Has(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// Len returns the number of ids held.
func (s *IDSet) Len() int {
	return len(s.order)
}

// IDs returns a copy of the ids in insertion order.
func (s *IDSet) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
