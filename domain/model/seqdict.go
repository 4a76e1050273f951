package model

import (
	"iter"
	"strings"
)

// SequenceDictionary is a sparse mapping from key sequences to values,
// carrying the defining sets of its key space. Only entries whose value
// differs from the element type's zero value are stored; the logical size
// is the product of the set sizes and missing logical entries materialize
// as zero values during expanded enumeration.
//
// Insertion order of stored entries is preserved for serialization.
// Expanded enumeration is in reverse-lex order: the first set varies
// fastest, the last set slowest.
type SequenceDictionary[V comparable] struct {
	sets    []Set
	order   []KeySequence
	entries map[string]V
}

// NewSequenceDictionary creates an empty dictionary over the Cartesian
// product of the given defining sets.
func NewSequenceDictionary[V comparable](sets ...Set) *SequenceDictionary[V] {
	owned := make([]Set, len(sets))
	copy(owned, sets)
	return &SequenceDictionary[V]{
		sets:    owned,
		entries: make(map[string]V),
	}
}

// entryKey folds a key sequence into the case-insensitive map key.
func entryKey(k KeySequence) string {
	return strings.ToUpper(k.String())
}

// Sets returns a copy of the defining sets.
func (d *SequenceDictionary[V]) Sets() []Set {
	out := make([]Set, len(d.sets))
	copy(out, d.sets)
	return out
}

// Rank returns the number of defining sets.
func (d *SequenceDictionary[V]) Rank() int {
	return len(d.sets)
}

// Len returns the number of stored (non-zero) entries.
func (d *SequenceDictionary[V]) Len() int {
	return len(d.entries)
}

// Size returns the logical size: the product of the set sizes.
func (d *SequenceDictionary[V]) Size() int {
	size := 1
	for _, s := range d.sets {
		size *= s.Len()
	}
	return size
}

// Insert stores the value under the given key. Zero values are never
// stored; inserting a zero value removes any previously stored entry so
// the sparse storage invariant holds after overwrites.
func (d *SequenceDictionary[V]) Insert(k KeySequence, v V) {
	var zero V
	key := entryKey(k)
	if v == zero {
		if _, ok := d.entries[key]; ok {
			delete(d.entries, key)
			for i, stored := range d.order {
				if entryKey(stored) == key {
					d.order = append(d.order[:i], d.order[i+1:]...)
					break
				}
			}
		}
		return
	}
	if _, ok := d.entries[key]; !ok {
		d.order = append(d.order, k)
	}
	d.entries[key] = v
}

// Get returns the stored value for the key, or the zero value when the key
// has no stored entry.
func (d *SequenceDictionary[V]) Get(k KeySequence) V {
	return d.entries[entryKey(k)]
}

// Lookup returns the stored value and whether a non-zero entry exists.
func (d *SequenceDictionary[V]) Lookup(k KeySequence) (V, bool) {
	v, ok := d.entries[entryKey(k)]
	return v, ok
}

// StoredKeys returns the keys of the stored entries in insertion order.
func (d *SequenceDictionary[V]) StoredKeys() []KeySequence {
	out := make([]KeySequence, len(d.order))
	copy(out, d.order)
	return out
}

// Partial returns the sub-dictionary of every entry whose leading
// components match the given prefix. The result is defined over the
// remaining sets; missing logical entries materialize lazily as zero
// values during enumeration. ErrKeyNotFound is returned when a prefix
// component is not an element of its corresponding set.
func (d *SequenceDictionary[V]) Partial(prefix KeySequence) (*SequenceDictionary[V], error) {
	if prefix.Len() > len(d.sets) {
		return nil, ErrKeyNotFound
	}
	for i := range prefix.Len() {
		if d.sets[i].Index(prefix.At(i)) < 0 {
			return nil, ErrKeyNotFound
		}
	}
	sub := NewSequenceDictionary[V](d.sets[prefix.Len():]...)
	for _, k := range d.order {
		if k.Prefix(prefix.Len()).Equal(prefix) {
			sub.Insert(k.Suffix(prefix.Len()), d.entries[entryKey(k)])
		}
	}
	return sub, nil
}

// ExpandedKeys enumerates every key tuple of the Cartesian product of the
// defining sets in reverse-lex order: the first set varies fastest, the
// last set slowest. The sequence is materialized lazily and has exactly
// Size() elements.
func (d *SequenceDictionary[V]) ExpandedKeys() iter.Seq[KeySequence] {
	return func(yield func(KeySequence) bool) {
		size := d.Size()
		if size == 0 {
			return
		}
		pos := make([]int, len(d.sets))
		for range size {
			keys := make([]string, len(d.sets))
			for i, s := range d.sets {
				keys[i] = s.At(pos[i])
			}
			if !yield(KeySequence{keys: keys}) {
				return
			}
			for i := range pos {
				pos[i]++
				if pos[i] < d.sets[i].Len() {
					break
				}
				pos[i] = 0
			}
		}
	}
}

// LogicalValues enumerates the value of every expanded key in expanded
// key order, materializing zero values for missing entries.
func (d *SequenceDictionary[V]) LogicalValues() iter.Seq[V] {
	return func(yield func(V) bool) {
		for k := range d.ExpandedKeys() {
			if !yield(d.Get(k)) {
				return
			}
		}
	}
}

// Values collects LogicalValues into a slice of length Size().
func (d *SequenceDictionary[V]) Values() []V {
	out := make([]V, 0, d.Size())
	for v := range d.LogicalValues() {
		out = append(out, v)
	}
	return out
}

// KeyAt returns the expanded key at the given linear position in
// reverse-lex enumeration order.
func (d *SequenceDictionary[V]) KeyAt(index int) KeySequence {
	keys := make([]string, len(d.sets))
	for i, s := range d.sets {
		keys[i] = s.At(index % s.Len())
		index /= s.Len()
	}
	return KeySequence{keys: keys}
}

// IndexOf returns the linear position of the key in reverse-lex
// enumeration order, or ErrKeyNotFound when a component is not an element
// of its corresponding set.
func (d *SequenceDictionary[V]) IndexOf(k KeySequence) (int, error) {
	if k.Len() != len(d.sets) {
		return 0, ErrKeyNotFound
	}
	index := 0
	stride := 1
	for i, s := range d.sets {
		pos := s.Index(k.At(i))
		if pos < 0 {
			return 0, ErrKeyNotFound
		}
		index += pos * stride
		stride *= s.Len()
	}
	return index, nil
}

// Equal reports whether both dictionaries have the same defining sets and
// the same logical values.
func (d *SequenceDictionary[V]) Equal(other *SequenceDictionary[V]) bool {
	if len(d.sets) != len(other.sets) || len(d.entries) != len(other.entries) {
		return false
	}
	for i, s := range d.sets {
		if !s.Equal(other.sets[i]) {
			return false
		}
	}
	for key, v := range d.entries {
		if ov, ok := other.entries[key]; !ok || ov != v {
			return false
		}
	}
	return true
}
