package model

import (
	"fmt"
	"strings"
)

// ArrayType identifies the element type and binary layout family of a
// header array.
type ArrayType int

const (
	// ArrayTypeRealElement is a real array indexed by defining sets ("RE").
	ArrayTypeRealElement ArrayType = iota
	// ArrayTypeRealList is a real list without set labels ("RL").
	ArrayTypeRealList
	// ArrayTypeString is a character array ("1C").
	ArrayTypeString
	// ArrayTypeInteger is an integer array without set labels ("2I").
	ArrayTypeInteger
	// ArrayTypeReal is a real array without set labels ("2R").
	ArrayTypeReal
)

// HeaderLength is the fixed length of a header identifier.
const HeaderLength = 4

// MaxDescriptionLength is the longest description a header array carries.
const MaxDescriptionLength = 70

// MaxDimensions is the fixed length of the dimension vector.
const MaxDimensions = 7

// Code returns the two-character type code used on the wire.
func (t ArrayType) Code() string {
	switch t {
	case ArrayTypeRealElement:
		return "RE"
	case ArrayTypeRealList:
		return "RL"
	case ArrayTypeString:
		return "1C"
	case ArrayTypeInteger:
		return "2I"
	case ArrayTypeReal:
		return "2R"
	default:
		return "??"
	}
}

// String returns the type code.
func (t ArrayType) String() string {
	return t.Code()
}

// ArrayTypeFromCode maps a two-character type code to its ArrayType.
func ArrayTypeFromCode(code string) (ArrayType, error) {
	switch code {
	case "RE":
		return ArrayTypeRealElement, nil
	case "RL":
		return ArrayTypeRealList, nil
	case "1C":
		return ArrayTypeString, nil
	case "2I":
		return ArrayTypeInteger, nil
	case "2R":
		return ArrayTypeReal, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownArrayType, code)
	}
}

// HeaderArray is a single named array of a header array file: a
// four-character header, a description, a type, a seven-slot dimension
// vector, defining sets and a sparse payload of strings, reals or
// integers. Header arrays are immutable after construction.
type HeaderArray struct {
	header            string
	description       string
	arrayType         ArrayType
	dimensions        [MaxDimensions]int32
	serializedVectors int

	strings *SequenceDictionary[string]
	reals   *SequenceDictionary[float32]
	ints    *SequenceDictionary[int32]
}

// NewStringArray creates a "1C" header array over the given entries.
func NewStringArray(header, description string, entries *SequenceDictionary[string]) *HeaderArray {
	h := newHeaderArray(header, description, ArrayTypeString, entries.Sets())
	h.strings = entries
	return h
}

// NewRealArray creates a real-valued header array of the given type (RE,
// RL or 2R) over the given entries.
func NewRealArray(header, description string, arrayType ArrayType, entries *SequenceDictionary[float32]) *HeaderArray {
	h := newHeaderArray(header, description, arrayType, entries.Sets())
	h.reals = entries
	return h
}

// NewIntegerArray creates a "2I" header array over the given entries.
func NewIntegerArray(header, description string, entries *SequenceDictionary[int32]) *HeaderArray {
	h := newHeaderArray(header, description, ArrayTypeInteger, entries.Sets())
	h.ints = entries
	return h
}

func newHeaderArray(header, description string, arrayType ArrayType, sets []Set) *HeaderArray {
	h := &HeaderArray{
		header:      PadHeader(header),
		description: TrimDescription(description),
		arrayType:   arrayType,
	}
	for i := range h.dimensions {
		h.dimensions[i] = 1
	}
	for i, s := range sets {
		if i < MaxDimensions {
			h.dimensions[i] = int32(s.Len())
		}
	}
	return h
}

// PadHeader space-pads a header identifier to its fixed four characters.
func PadHeader(header string) string {
	if len(header) >= HeaderLength {
		return header[:HeaderLength]
	}
	return header + strings.Repeat(" ", HeaderLength-len(header))
}

// TrimDescription strips the NUL, STX and space padding a description
// picks up on the wire and bounds it to its maximum length.
func TrimDescription(description string) string {
	if len(description) > MaxDescriptionLength {
		description = description[:MaxDescriptionLength]
	}
	return strings.TrimRight(description, "\x00\x02 ")
}

// Header returns the four-character header identifier.
func (h *HeaderArray) Header() string {
	return h.header
}

// Description returns the trimmed description.
func (h *HeaderArray) Description() string {
	return h.description
}

// Type returns the array type.
func (h *HeaderArray) Type() ArrayType {
	return h.arrayType
}

// Dimensions returns the seven-slot dimension vector; unused positions
// are 1.
func (h *HeaderArray) Dimensions() [MaxDimensions]int32 {
	return h.dimensions
}

// Rank returns the number of defining sets.
func (h *HeaderArray) Rank() int {
	return len(h.Sets())
}

// Size returns the logical element count: the product of the set sizes.
func (h *HeaderArray) Size() int {
	switch {
	case h.strings != nil:
		return h.strings.Size()
	case h.reals != nil:
		return h.reals.Size()
	case h.ints != nil:
		return h.ints.Size()
	}
	return 0
}

// Sets returns the defining sets of the payload.
func (h *HeaderArray) Sets() []Set {
	switch {
	case h.strings != nil:
		return h.strings.Sets()
	case h.reals != nil:
		return h.reals.Sets()
	case h.ints != nil:
		return h.ints.Sets()
	}
	return nil
}

// SerializedVectors returns the number of sub-vectors used in the binary
// layout, or 0 when the writer is free to choose.
func (h *HeaderArray) SerializedVectors() int {
	return h.serializedVectors
}

// Strings returns the string payload when the array holds strings.
func (h *HeaderArray) Strings() (*SequenceDictionary[string], bool) {
	return h.strings, h.strings != nil
}

// Reals returns the real payload when the array holds reals.
func (h *HeaderArray) Reals() (*SequenceDictionary[float32], bool) {
	return h.reals, h.reals != nil
}

// Ints returns the integer payload when the array holds integers.
func (h *HeaderArray) Ints() (*SequenceDictionary[int32], bool) {
	return h.ints, h.ints != nil
}

// GetString returns the string value stored under the given keys.
func (h *HeaderArray) GetString(keys ...string) string {
	if h.strings == nil {
		return ""
	}
	return h.strings.Get(NewKeySequence(keys...))
}

// GetReal returns the real value stored under the given keys.
func (h *HeaderArray) GetReal(keys ...string) float32 {
	if h.reals == nil {
		return 0
	}
	return h.reals.Get(NewKeySequence(keys...))
}

// GetInt returns the integer value stored under the given keys.
func (h *HeaderArray) GetInt(keys ...string) int32 {
	if h.ints == nil {
		return 0
	}
	return h.ints.Get(NewKeySequence(keys...))
}

// StringValues collects the expanded logical string values.
func (h *HeaderArray) StringValues() []string {
	if h.strings == nil {
		return nil
	}
	return h.strings.Values()
}

// RealValues collects the expanded logical real values.
func (h *HeaderArray) RealValues() []float32 {
	if h.reals == nil {
		return nil
	}
	return h.reals.Values()
}

// IntValues collects the expanded logical integer values.
func (h *HeaderArray) IntValues() []int32 {
	if h.ints == nil {
		return nil
	}
	return h.ints.Values()
}

// With returns a shallow copy renamed to the given header.
func (h *HeaderArray) With(header string) *HeaderArray {
	copied := *h
	copied.header = PadHeader(header)
	return &copied
}

// WithSerializedVectors returns a shallow copy carrying the given
// sub-vector count for the binary layout.
func (h *HeaderArray) WithSerializedVectors(n int) *HeaderArray {
	copied := *h
	copied.serializedVectors = n
	return &copied
}

// WithDimensions returns a shallow copy carrying the given dimension
// vector. The product of the non-unit dimensions must equal the product
// of the set sizes; callers that reshape are responsible for that.
func (h *HeaderArray) WithDimensions(dims [MaxDimensions]int32) *HeaderArray {
	copied := *h
	copied.dimensions = dims
	return &copied
}

// Equal reports whether both arrays agree on header, description, type,
// dimensions, sets and entries.
func (h *HeaderArray) Equal(other *HeaderArray) bool {
	if h.header != other.header ||
		h.description != other.description ||
		h.arrayType != other.arrayType ||
		h.dimensions != other.dimensions {
		return false
	}
	switch {
	case h.strings != nil:
		return other.strings != nil && h.strings.Equal(other.strings)
	case h.reals != nil:
		return other.reals != nil && h.reals.Equal(other.reals)
	case h.ints != nil:
		return other.ints != nil && h.ints.Equal(other.ints)
	}
	return other.strings == nil && other.reals == nil && other.ints == nil
}
