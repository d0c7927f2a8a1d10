package types

import "iter"

// FieldIndex maps field names to descriptor positions, remembering the order
// in which names were first seen.
//
// Re-using a name does not replace the earlier entry: the new position is
// appended and becomes the visible one, the older positions stay reachable
// through Shadowed.
type FieldIndex struct {
	data  map[string][]int
	order []string
}

func NewFieldIndex() *FieldIndex {
	return &FieldIndex{data: make(map[string][]int)}
}

// Len is the number of distinct names.
func (fi *FieldIndex) Len() int {
	return len(fi.data)
}

// Has reports whether name was ever inserted.
func (fi *FieldIndex) Has(name string) bool {
	_, ok := fi.data[name]
	return ok
}

// Insert records pos as the visible position for name.
func (fi *FieldIndex) Insert(name string, pos int) {
	positions, ok := fi.data[name]
	if !ok {
		fi.order = append(fi.order, name)
	}
	fi.data[name] = append(positions, pos)
}

// Lookup returns the visible position for name.
func (fi *FieldIndex) Lookup(name string) (int, bool) {
	positions, ok := fi.data[name]
	if !ok {
		return -1, false
	}
	return positions[len(positions)-1], true
}

// Shadowed returns the positions hidden by later inserts of the same name,
// oldest first.
func (fi *FieldIndex) Shadowed(name string) []int {
	positions := fi.data[name]
	if len(positions) < 2 {
		return nil
	}
	out := make([]int, len(positions)-1)
	copy(out, positions)
	return out
}

// Names returns names in first-insertion order.
func (fi *FieldIndex) Names() []string {
	out := make([]string, len(fi.order))
	copy(out, fi.order)
	return out
}

// NamesIter returns an iterator over names paired with their visible position.
func (fi *FieldIndex) NamesIter() iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		for _, name := range fi.order {
			positions := fi.data[name]
			if !yield(name, positions[len(positions)-1]) {
				return
			}
		}
	}
}

// Reset drops every entry but keeps allocated storage.
func (fi *FieldIndex) Reset() {
	clear(fi.data)
	fi.order = fi.order[:0]
}
