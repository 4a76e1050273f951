package model

import (
	"fmt"
	"strings"
)

// VariableKind classifies a solution variable by how its values are
// obtained.
type VariableKind int32

const (
	// KindExogenous marks a variable imposed by inputs.
	KindExogenous VariableKind = iota
	// KindEndogenous marks a variable solved by the model.
	KindEndogenous
	// KindBacksolved marks an endogenous variable reconstructed from the
	// cumulative-results block.
	KindBacksolved
	// KindCondensed marks a condensed-out variable reconstructed from the
	// cumulative-results block.
	KindCondensed
)

// VariableKindFromRepr maps the integer representation stored in a
// solution file to its VariableKind.
func VariableKindFromRepr(v int32) (VariableKind, error) {
	switch k := VariableKind(v); k {
	case KindExogenous, KindEndogenous, KindBacksolved, KindCondensed:
		return k, nil
	default:
		return 0, fmt.Errorf("unknown variable kind %d", v)
	}
}

// String returns the kind name.
func (k VariableKind) String() string {
	switch k {
	case KindExogenous:
		return "exogenous"
	case KindEndogenous:
		return "endogenous"
	case KindBacksolved:
		return "backsolved"
	case KindCondensed:
		return "condensed"
	default:
		return fmt.Sprintf("kind(%d)", int32(k))
	}
}

// Reconstructed reports whether the variable's values are rebuilt from the
// cumulative-results block.
func (k VariableKind) Reconstructed() bool {
	return k == KindBacksolved || k == KindCondensed
}

// ChangeType records how a solution variable's results are expressed.
type ChangeType int32

const (
	// ChangePercent marks percentage-change results.
	ChangePercent ChangeType = iota
	// ChangeOrdinary marks ordinary (level) change results.
	ChangeOrdinary
)

// ChangeTypeFromRepr maps the integer representation stored in a solution
// file to its ChangeType.
func ChangeTypeFromRepr(v int32) (ChangeType, error) {
	switch c := ChangeType(v); c {
	case ChangePercent, ChangeOrdinary:
		return c, nil
	default:
		return 0, fmt.Errorf("unknown change type %d", v)
	}
}

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangePercent:
		return "percent"
	case ChangeOrdinary:
		return "ordinary"
	default:
		return fmt.Sprintf("change(%d)", int32(c))
	}
}

// SetInfo is the metadata a solution file records for one set.
type SetInfo struct {
	Name          string
	Description   string
	Intertemporal bool
	Elements      []string
}

// ToSet converts the metadata to a defining Set.
func (si SetInfo) ToSet() Set {
	return NewSet(si.Name, si.Elements)
}

// SolutionVariable is one variable of a solution file: its position in the
// variable tables, naming metadata and defining sets.
type SolutionVariable struct {
	Index       int
	Name        string
	Description string
	Label       string
	ChangeType  ChangeType
	Kind        VariableKind
	Sets        []Set
}

// Size returns the logical value count: the product of the set sizes.
func (v SolutionVariable) Size() int {
	size := 1
	for _, s := range v.Sets {
		size *= s.Len()
	}
	return size
}

// ExogenousDefinition is one exogenous assignment extracted from a command
// file: the variable name and the index tuple it pins.
type ExogenousDefinition struct {
	Name    string
	Indexes []string
}

// ShockDefinition is one shock extracted from a command file: the variable
// name, the index tuple and the imposed values.
type ShockDefinition struct {
	Name    string
	Indexes []string
	Values  []float32
}

// Matches reports whether the definition names the given variable,
// compared case-insensitively.
func (e ExogenousDefinition) Matches(name string) bool {
	return strings.EqualFold(e.Name, name)
}

// Matches reports whether the definition names the given variable,
// compared case-insensitively.
func (s ShockDefinition) Matches(name string) bool {
	return strings.EqualFold(s.Name, name)
}
