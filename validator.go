package opengtap

import (
	"fmt"
	"io"

	"github.com/devchoca/OpenGTAP/domain/model"
)

// SetValidator cross-checks that every occurrence of a set name across
// the arrays of one file carries an identical element list. Mismatches
// are collected and reported to the optional sink; they never abort a
// read. Anonymous positional sets are not checked.
type SetValidator struct {
	sink       io.Writer
	seen       map[string][]string
	mismatches []SetMismatch
}

// NewSetValidator creates a validator. The sink may be nil.
func NewSetValidator(sink io.Writer) *SetValidator {
	return &SetValidator{
		sink: sink,
		seen: make(map[string][]string),
	}
}

// Check records the sets of one array, comparing each named set against
// its first-seen element list.
func (v *SetValidator) Check(arr *model.HeaderArray) {
	for _, s := range arr.Sets() {
		name := s.Name()
		if name == "" {
			continue
		}
		elements := s.Elements()
		first, ok := v.seen[name]
		if !ok {
			v.seen[name] = elements
			continue
		}
		if !sameElements(first, elements) {
			mismatch := SetMismatch{SetName: name, FirstSeen: first, Found: elements}
			v.mismatches = append(v.mismatches, mismatch)
			if v.sink != nil {
				fmt.Fprintln(v.sink, mismatch.Error())
			}
		}
	}
}

// Consistent reports whether no mismatch has been recorded.
func (v *SetValidator) Consistent() bool {
	return len(v.mismatches) == 0
}

// Mismatches returns the recorded mismatches in detection order.
func (v *SetValidator) Mismatches() []SetMismatch {
	out := make([]SetMismatch, len(v.mismatches))
	copy(out, v.mismatches)
	return out
}

// sameElements reports element-wise equality of two ordered lists.
func sameElements(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
