package notifications

import "sort"

// Selection is the set of notification IDs the user has checked. Pure
// bookkeeping, independent of read state.
type Selection map[string]struct{}

// NewSelection builds an empty selection set.
func NewSelection(ids ...string) Selection {
	s := Selection{}
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Toggle flips membership for one ID.
func (s Selection) Toggle(id string) {
	if _, ok := s[id]; ok {
		delete(s, id)
		return
	}
	s[id] = struct{}{}
}

// Add marks the given IDs as selected.
func (s Selection) Add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Remove drops the given IDs from the selection.
func (s Selection) Remove(ids ...string) {
	for _, id := range ids {
		delete(s, id)
	}
}

// Has reports membership for one ID.
func (s Selection) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the selected IDs in a stable order.
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
