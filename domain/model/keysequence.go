package model

import (
	"strings"
)

// KeySequence is an immutable ordered tuple of string keys addressing one
// logical entry of a header array. The canonical string form is
// "[k0][k1]...[kn-1]"; the empty sequence stringifies to "".
type KeySequence struct {
	keys []string
}

// NewKeySequence creates a key sequence from the given components.
func NewKeySequence(keys ...string) KeySequence {
	owned := make([]string, len(keys))
	copy(owned, keys)
	return KeySequence{keys: owned}
}

// ParseKeySequence parses the canonical "[a][b][c]" form. The separators
// "][" and "*" are accepted interchangeably and surrounding brackets are
// trimmed, so "a*b*c" and "[a][b][c]" parse to the same sequence.
func ParseKeySequence(s string) KeySequence {
	s = strings.Trim(s, "[]")
	if s == "" {
		return KeySequence{}
	}
	s = strings.ReplaceAll(s, "][", "*")
	return NewKeySequence(strings.Split(s, "*")...)
}

// Len returns the number of components.
func (k KeySequence) Len() int {
	return len(k.keys)
}

// At returns the i-th component.
func (k KeySequence) At(i int) string {
	return k.keys[i]
}

// Keys returns a copy of the components.
func (k KeySequence) Keys() []string {
	out := make([]string, len(k.keys))
	copy(out, k.keys)
	return out
}

// Append returns a new sequence with the given components added at the end.
func (k KeySequence) Append(keys ...string) KeySequence {
	out := make([]string, 0, len(k.keys)+len(keys))
	out = append(out, k.keys...)
	out = append(out, keys...)
	return KeySequence{keys: out}
}

// Prefix returns the sequence of the first n components.
func (k KeySequence) Prefix(n int) KeySequence {
	return NewKeySequence(k.keys[:n]...)
}

// Suffix returns the sequence of the components from position n onward.
func (k KeySequence) Suffix(n int) KeySequence {
	return NewKeySequence(k.keys[n:]...)
}

// String returns the canonical "[k0][k1]...[kn-1]" form.
func (k KeySequence) String() string {
	if len(k.keys) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, key := range k.keys {
		sb.WriteByte('[')
		sb.WriteString(key)
		sb.WriteByte(']')
	}
	return sb.String()
}

// Equal reports whether both sequences have the same components, compared
// case-insensitively.
func (k KeySequence) Equal(other KeySequence) bool {
	if len(k.keys) != len(other.keys) {
		return false
	}
	for i, key := range k.keys {
		if !strings.EqualFold(key, other.keys[i]) {
			return false
		}
	}
	return true
}

// Compare orders two sequences component by component left to right using
// case-insensitive ordinal comparison. A shorter sequence that is a prefix
// of a longer one orders first.
func (k KeySequence) Compare(other KeySequence) int {
	n := min(len(k.keys), len(other.keys))
	for i := range n {
		if c := compareFold(k.keys[i], other.keys[i]); c != 0 {
			return c
		}
	}
	return len(k.keys) - len(other.keys)
}

// CompareReverse orders two sequences with the components taken in reverse
// order, so the last component is the most significant. This is the order
// in which the Cartesian product of the defining sets is enumerated: the
// first set varies fastest, mirroring Fortran column-major storage.
func (k KeySequence) CompareReverse(other KeySequence) int {
	n := min(len(k.keys), len(other.keys))
	for i := 1; i <= n; i++ {
		if c := compareFold(k.keys[len(k.keys)-i], other.keys[len(other.keys)-i]); c != 0 {
			return c
		}
	}
	return len(k.keys) - len(other.keys)
}

// compareFold compares two strings byte-wise after upper-case folding,
// matching ordinal case-insensitive ordering.
func compareFold(a, b string) int {
	return strings.Compare(strings.ToUpper(a), strings.ToUpper(b))
}
